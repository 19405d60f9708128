package service

import (
	"math"

	"github.com/dreschagin/release-confidence/internal/domain/entity"
	"github.com/dreschagin/release-confidence/internal/domain/valueobject"
)

const (
	CoverageRiskWeight = 0.4
	FailureRiskWeight  = 0.3
	// VarianceRiskWeight и VarianceRiskCap подобраны эмпирически
	VarianceRiskWeight = 0.3
	VarianceRiskCap    = 30.0
)

// CalculateRiskScore складывает дефицит покрытия, долю упавших тестов и разброс
// покрытия между фичами. Результат округлен до 2 знаков и ограничен [0,100].
func CalculateRiskScore(coverage float64, failedTests, totalTests int, features []entity.FeatureCoverage) float64 {
	score := math.Max(0, 100-coverage) * CoverageRiskWeight

	if totalTests > 0 {
		failureRate := float64(failedTests) / float64(totalTests) * 100
		score += failureRate * FailureRiskWeight
	}

	if len(features) > 0 {
		score += math.Min(VarianceRiskCap, featureStdDev(features)*VarianceRiskWeight)
	}

	return math.Max(0, math.Min(100, round2(score)))
}

// featureStdDev стандартное отклонение генеральной совокупности (деление на n)
func featureStdDev(features []entity.FeatureCoverage) float64 {
	var sum float64
	for _, f := range features {
		sum += f.Coverage
	}
	mean := sum / float64(len(features))

	var squares float64
	for _, f := range features {
		d := f.Coverage - mean
		squares += d * d
	}

	return math.Sqrt(squares / float64(len(features)))
}

// CalculateRiskLevel классифицирует общее покрытие; вне [0,100] возвращает ValidationError
func CalculateRiskLevel(coverage float64) (valueobject.RiskLevel, error) {
	if err := validatePercent("coverage", coverage); err != nil {
		return "", err
	}

	switch {
	case coverage < 70:
		return valueobject.RiskCritical, nil
	case coverage < 85:
		return valueobject.RiskHigh, nil
	case coverage < 90:
		return valueobject.RiskMedium, nil
	default:
		return valueobject.RiskLow, nil
	}
}
