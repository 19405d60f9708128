package service

import (
	"fmt"

	"github.com/dreschagin/release-confidence/internal/domain/entity"
	"github.com/dreschagin/release-confidence/internal/domain/valueobject"
)

const (
	RiskCriticalCoverageGap = "Critical Coverage Gap"
	RiskLowTestCoverage     = "Low Test Coverage"
	RiskFailedTests         = "Failed Tests"
	RiskFeatureCritical     = "Feature Coverage Critical"
	RiskFeatureNeedsTesting = "Feature Needs Testing"
	RiskAllChecksPassed     = "All Checks Passed"
)

// GenerateRiskItems применяет правила по порядку; каждое сработавшее добавляет находку.
// Если не сработало ни одно, возвращается единственная Info-запись.
func GenerateRiskItems(coverage float64, failedTests int, features []entity.FeatureCoverage) []entity.RiskItem {
	risks := make([]entity.RiskItem, 0, len(features)+2)

	switch {
	case coverage < 70:
		risks = append(risks, newRiskItem(
			RiskCriticalCoverageGap, valueobject.ItemHigh, 9,
			fmt.Sprintf("Overall test coverage is only %.1f%% - well below the 70%% minimum threshold.", coverage),
			"Add comprehensive test coverage before deploying to production. Focus on critical paths and edge cases.",
		))
	case coverage < 85:
		risks = append(risks, newRiskItem(
			RiskLowTestCoverage, valueobject.ItemMedium, 6,
			fmt.Sprintf("Test coverage is at %.1f%% - below the recommended 85%% threshold.", coverage),
			"Increase test coverage, especially for business-critical features.",
		))
	}

	if failedTests > 0 {
		severity, level := 6, valueobject.ItemLow
		switch {
		case failedTests > 10:
			severity, level = 10, valueobject.ItemHigh
		case failedTests > 5:
			severity, level = 8, valueobject.ItemMedium
		}
		risks = append(risks, newRiskItem(
			RiskFailedTests, level, severity,
			fmt.Sprintf("%d test(s) are currently failing.", failedTests),
			"Fix all failing tests before proceeding with deployment.",
		))
	}

	for _, feature := range features {
		var item entity.RiskItem
		switch {
		case feature.Coverage < 60:
			item = newRiskItem(
				RiskFeatureCritical, valueobject.ItemHigh, 8,
				fmt.Sprintf("%s has critically low coverage at %.1f%%.", feature.Name, feature.Coverage),
				fmt.Sprintf("Add tests for %s module to improve coverage to at least 70%%.", feature.Name),
			)
		case feature.Coverage < 80:
			item = newRiskItem(
				RiskFeatureNeedsTesting, valueobject.ItemMedium, 5,
				fmt.Sprintf("%s has %.1f%% coverage - below recommended levels.", feature.Name, feature.Coverage),
				fmt.Sprintf("Consider adding more tests for %s, especially for edge cases.", feature.Name),
			)
		default:
			continue
		}
		item.AffectedFeature = feature.Name
		risks = append(risks, item)
	}

	if len(risks) == 0 {
		risks = append(risks, newRiskItem(
			RiskAllChecksPassed, valueobject.ItemInfo, 1,
			"Release looks good! All quality metrics are within acceptable ranges.",
			"Proceed with deployment. Consider monitoring key metrics post-release.",
		))
	}

	return risks
}

func newRiskItem(name string, level valueobject.RiskItemLevel, severity int, description, recommendation string) entity.RiskItem {
	return entity.RiskItem{
		RiskName:       name,
		RiskLevel:      level,
		Severity:       severity,
		Description:    description,
		Recommendation: recommendation,
		AutoGenerated:  true,
	}
}
