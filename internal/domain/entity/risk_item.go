package entity

import (
	"time"

	"github.com/dreschagin/release-confidence/internal/domain/valueobject"
)

// RiskItem одна находка генератора рисков
type RiskItem struct {
	ID              string                    `json:"id,omitempty" yaml:"id,omitempty"`
	ReleaseID       string                    `json:"release_id,omitempty" yaml:"release_id,omitempty"`
	RiskName        string                    `json:"risk_name" yaml:"risk_name"`
	RiskLevel       valueobject.RiskItemLevel `json:"risk_level" yaml:"risk_level"`
	Severity        int                       `json:"severity" yaml:"severity"`
	Description     string                    `json:"description" yaml:"description"`
	AffectedFeature string                    `json:"affected_feature,omitempty" yaml:"affected_feature,omitempty"`
	Recommendation  string                    `json:"recommendation,omitempty" yaml:"recommendation,omitempty"`
	AutoGenerated   bool                      `json:"auto_generated" yaml:"auto_generated"`
	CreatedAt       time.Time                 `json:"created_at,omitempty" yaml:"-"`
}

// IsFeatureScoped проверяет, относится ли находка к конкретной фиче
func (r RiskItem) IsFeatureScoped() bool {
	return r.AffectedFeature != ""
}
