package service

import (
	"testing"

	"github.com/dreschagin/release-confidence/internal/domain/valueobject"
	"github.com/stretchr/testify/assert"
)

func TestClassifyFeature(t *testing.T) {
	tests := []struct {
		coverage float64
		want     valueobject.FeatureStatus
	}{
		{100, valueobject.StatusExcellent},
		{95.0, valueobject.StatusExcellent},
		{94.99, valueobject.StatusGood},
		{80.0, valueobject.StatusGood},
		{79.99, valueobject.StatusWarning},
		{60.0, valueobject.StatusWarning},
		{59.99, valueobject.StatusDanger},
		{0, valueobject.StatusDanger},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyFeature(tt.coverage), "coverage %v", tt.coverage)
	}
}

func TestClassifyFeatureIsTotal(t *testing.T) {
	for c := 0.0; c <= 100; c += 0.25 {
		assert.NoError(t, ClassifyFeature(c).Validate())
	}
}

func TestFormatFeatureName(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"auth", "Authentication"},
		{"AUTH", "Authentication"},
		{"api", "API Routes"},
		{"Db", "Database"},
		{"ui", "User Interface"},
		{"utils", "Utilities"},
		{"lib", "Libraries"},
		{"components", "Components"},
		{"pages", "Pages"},
		{"app", "Application"},
		{"api-routes", "Api Routes"},
		{"user_profile", "User Profile"},
		{"billing", "Billing"},
		{"PAYMENT-gateway", "Payment Gateway"},
		{"core", "Core"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatFeatureName(tt.raw))
		})
	}
}
