package entity

import "github.com/dreschagin/release-confidence/internal/domain/valueobject"

// ReleaseEvaluation результат одного прогона движка метрик по входным данным релиза.
// Пересчитывается целиком, отдельные поля не изменяются.
type ReleaseEvaluation struct {
	Coverage          float64               `json:"coverage" yaml:"coverage"`
	TotalTests        int                   `json:"total_tests" yaml:"total_tests"`
	PassedTests       int                   `json:"passed_tests" yaml:"passed_tests"`
	FailedTests       int                   `json:"failed_tests" yaml:"failed_tests"`
	PassRate          float64               `json:"pass_rate" yaml:"pass_rate"`
	RiskScore         float64               `json:"risk_score" yaml:"risk_score"`
	RiskLevel         valueobject.RiskLevel `json:"risk_level" yaml:"risk_level"`
	Confidence        float64               `json:"release_confidence" yaml:"release_confidence"`
	TimeToShipMinutes int                   `json:"time_to_ship_minutes" yaml:"time_to_ship_minutes"`
	TimeToShip        string                `json:"time_to_ship" yaml:"time_to_ship"`
	Features          []FeatureCoverage     `json:"features" yaml:"features"`
	Risks             []RiskItem            `json:"risks" yaml:"risks"`
}
