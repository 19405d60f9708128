package service

import (
	"fmt"

	"github.com/dreschagin/release-confidence/internal/domain/entity"
)

// TestSuite результаты одного набора тестов
type TestSuite struct {
	Name   string `json:"name" yaml:"name"`
	Tests  int    `json:"tests" yaml:"tests"`
	Passed int    `json:"passed" yaml:"passed"`
	Failed int    `json:"failed" yaml:"failed"`
}

// TestResults итог прогона тестов в CI
type TestResults struct {
	Total      int         `json:"total" yaml:"total"`
	Passed     int         `json:"passed" yaml:"passed"`
	Failed     int         `json:"failed" yaml:"failed"`
	Skipped    int         `json:"skipped" yaml:"skipped"`
	DurationMs int64       `json:"duration,omitempty" yaml:"duration,omitempty"`
	Suites     []TestSuite `json:"suites,omitempty" yaml:"suites,omitempty"`
}

// EvaluationInput входные данные одной оценки релиза.
// Features, если задан, заменяет разбор отчета о покрытии.
type EvaluationInput struct {
	Coverage CoverageData
	Tests    TestResults
	Features []FeatureInput
}

// ReleaseEvaluator прогоняет движок метрик в порядке зависимостей (Domain Service)
type ReleaseEvaluator struct{}

// NewReleaseEvaluator создает новый ReleaseEvaluator
func NewReleaseEvaluator() *ReleaseEvaluator {
	return &ReleaseEvaluator{}
}

// Evaluate вычисляет все метрики релиза. Ошибки валидации возвращаются как есть,
// частичный результат не возвращается.
func (e *ReleaseEvaluator) Evaluate(input EvaluationInput) (*entity.ReleaseEvaluation, error) {
	data := input.Coverage
	if input.Features != nil {
		data.Features = input.Features
	}
	features := ParseFeatureCoverage(data)

	coverage := input.Coverage.OverallCoverage()
	total := input.Tests.Total
	if total == 0 {
		total = input.Tests.Passed + input.Tests.Failed
	}
	passRate := CalculatePassRate(input.Tests.Passed, total)

	riskScore := CalculateRiskScore(coverage, input.Tests.Failed, total, features)

	level, err := CalculateRiskLevel(coverage)
	if err != nil {
		return nil, fmt.Errorf("risk level: %w", err)
	}

	confidence, err := CalculateReleaseConfidence(coverage, passRate, riskScore)
	if err != nil {
		return nil, fmt.Errorf("release confidence: %w", err)
	}

	minutes, err := EstimateShipMinutes(coverage, riskScore)
	if err != nil {
		return nil, fmt.Errorf("time to ship: %w", err)
	}

	return &entity.ReleaseEvaluation{
		Coverage:          coverage,
		TotalTests:        total,
		PassedTests:       input.Tests.Passed,
		FailedTests:       input.Tests.Failed,
		PassRate:          passRate,
		RiskScore:         riskScore,
		RiskLevel:         level,
		Confidence:        confidence,
		TimeToShipMinutes: minutes,
		TimeToShip:        FormatMinutesToTime(minutes),
		Features:          features,
		Risks:             GenerateRiskItems(coverage, input.Tests.Failed, features),
	}, nil
}
