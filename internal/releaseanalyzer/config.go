package releaseanalyzer

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port       string
	Interval   time.Duration
	Thresholds Thresholds
}

// Thresholds границы статусов: уверенность ниже Critical дает critical,
// ниже Warning или релиз старше StaleAfter дает warning
type Thresholds struct {
	WarningConfidence  float64
	CriticalConfidence float64
	StaleAfter         time.Duration
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		WarningConfidence:  80,
		CriticalConfidence: 60,
		StaleAfter:         7 * 24 * time.Hour,
	}
}

func LoadConfigFromEnv() (Config, error) {
	interval, err := time.ParseDuration(getEnv("ANALYZER_INTERVAL", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid ANALYZER_INTERVAL: %w", err)
	}

	if interval < 5*time.Second {
		return Config{}, errors.New("ANALYZER_INTERVAL must be >= 5s")
	}

	thresholds := DefaultThresholds()

	if thresholds.WarningConfidence, err = getEnvFloat("ANALYZER_WARNING_CONFIDENCE", thresholds.WarningConfidence); err != nil {
		return Config{}, err
	}
	if thresholds.CriticalConfidence, err = getEnvFloat("ANALYZER_CRITICAL_CONFIDENCE", thresholds.CriticalConfidence); err != nil {
		return Config{}, err
	}
	if thresholds.CriticalConfidence > thresholds.WarningConfidence {
		return Config{}, errors.New("ANALYZER_CRITICAL_CONFIDENCE must not exceed ANALYZER_WARNING_CONFIDENCE")
	}

	thresholds.StaleAfter, err = time.ParseDuration(getEnv("ANALYZER_STALE_AFTER", thresholds.StaleAfter.String()))
	if err != nil {
		return Config{}, fmt.Errorf("invalid ANALYZER_STALE_AFTER: %w", err)
	}

	return Config{
		Port:       getEnv("ANALYZER_PORT", "8081"),
		Interval:   interval,
		Thresholds: thresholds,
	}, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}
