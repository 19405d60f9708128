package service

import (
	"math"

	"github.com/dreschagin/release-confidence/internal/domain/valueobject"
)

const (
	ConfidenceCoverageWeight = 0.6
	ConfidencePassRateWeight = 0.3
	ConfidenceRiskWeight     = 0.1
)

// CalculateReleaseConfidence взвешивает покрытие, pass rate и инвертированный риск.
// Значения вне [0,100] не обрезаются, а возвращаются как ValidationError.
func CalculateReleaseConfidence(coverage, passRate, riskScore float64) (float64, error) {
	if err := validatePercent("coverage", coverage); err != nil {
		return 0, err
	}
	if err := validatePercent("passRate", passRate); err != nil {
		return 0, err
	}
	if err := validatePercent("riskScore", riskScore); err != nil {
		return 0, err
	}

	confidence := coverage*ConfidenceCoverageWeight +
		passRate*ConfidencePassRateWeight +
		(100-riskScore)*ConfidenceRiskWeight

	return round2(confidence), nil
}

// CalculatePassRate процент прошедших тестов, 0 при пустом прогоне
func CalculatePassRate(passed, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(passed) / float64(total) * 100)
}

// CalculateCoverageTrend сравнивает покрытие двух последовательных релизов.
// Изменение меньше одного пункта считается стабильным.
func CalculateCoverageTrend(latest, previous float64) valueobject.Trend {
	change := round2(latest - previous)

	direction := valueobject.TrendDown
	switch {
	case math.Abs(change) < 1:
		direction = valueobject.TrendStable
	case change > 0:
		direction = valueobject.TrendUp
	}

	return valueobject.Trend{Direction: direction, Change: change}
}
