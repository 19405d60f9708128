package entity

import "github.com/dreschagin/release-confidence/internal/domain/valueobject"

// FeatureCoverage покрытие одного модуля. Status всегда выводится из Coverage
// классификатором фич и не задается отдельно.
type FeatureCoverage struct {
	Name         string                    `json:"name" yaml:"name"`
	Coverage     float64                   `json:"coverage" yaml:"coverage"`
	Status       valueobject.FeatureStatus `json:"status" yaml:"status"`
	TestCount    int                       `json:"testCount,omitempty" yaml:"testCount,omitempty"`
	LinesCovered int                       `json:"linesCovered,omitempty" yaml:"linesCovered,omitempty"`
	TotalLines   int                       `json:"totalLines,omitempty" yaml:"totalLines,omitempty"`
}
