package service

import (
	"fmt"
	"math"

	"github.com/dreschagin/release-confidence/internal/domain/valueobject"
)

const baseShipMinutes = 30

var riskLevelShipMinutes = map[valueobject.RiskLevel]int{
	valueobject.RiskCritical: 240,
	valueobject.RiskHigh:     120,
	valueobject.RiskMedium:   60,
	valueobject.RiskLow:      0,
}

// EstimateShipMinutes оценка в минутах: 30 + блок уровня риска + 15 мин на каждые 10 пунктов риска
func EstimateShipMinutes(coverage, riskScore float64) (int, error) {
	level, err := CalculateRiskLevel(coverage)
	if err != nil {
		return 0, err
	}

	minutes := baseShipMinutes + riskLevelShipMinutes[level]
	minutes += int(math.Floor(riskScore/10)) * 15

	return minutes, nil
}

// CalculateTimeToShip возвращает оценку в виде "1h 45m"
func CalculateTimeToShip(coverage, riskScore float64) (string, error) {
	minutes, err := EstimateShipMinutes(coverage, riskScore)
	if err != nil {
		return "", err
	}
	return FormatMinutesToTime(minutes), nil
}

// FormatMinutesToTime: 150 -> "2h 30m", 120 -> "2h", 45 -> "45m", 0 -> "0m"
func FormatMinutesToTime(totalMinutes int) string {
	hours := totalMinutes / 60
	minutes := totalMinutes % 60

	switch {
	case hours > 0 && minutes > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}
