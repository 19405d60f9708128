package service

import (
	"errors"
	"math"
	"testing"

	"github.com/dreschagin/release-confidence/internal/domain/entity"
	"github.com/dreschagin/release-confidence/internal/domain/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func features(coverages ...float64) []entity.FeatureCoverage {
	out := make([]entity.FeatureCoverage, 0, len(coverages))
	for _, c := range coverages {
		out = append(out, entity.FeatureCoverage{Name: "f", Coverage: c, Status: ClassifyFeature(c)})
	}
	return out
}

func TestCalculateRiskScore(t *testing.T) {
	tests := []struct {
		name     string
		coverage float64
		failed   int
		total    int
		features []entity.FeatureCoverage
		want     float64
	}{
		{name: "perfect release", coverage: 100, failed: 0, total: 100, want: 0},
		{name: "coverage only", coverage: 87.5, want: 5},
		{name: "no tests recorded", coverage: 50, failed: 3, total: 0, want: 20},
		{name: "with failures", coverage: 87.5, failed: 8, total: 253, want: 5.95},
		{name: "feature spread", coverage: 100, features: features(100, 0), want: 15},
		{name: "uniform features", coverage: 90, features: features(90, 90, 90), want: 4},
		{name: "worst case", coverage: 0, failed: 10, total: 10, features: features(0, 100), want: 85},
		{name: "variance capped", coverage: 100, features: features(300, -100), want: 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateRiskScore(tt.coverage, tt.failed, tt.total, tt.features))
		})
	}
}

func TestCalculateRiskScoreMonotonicInCoverage(t *testing.T) {
	feats := features(92, 71, 55)
	prev := math.Inf(1)
	for c := 0.0; c <= 100; c += 0.5 {
		score := CalculateRiskScore(c, 4, 120, feats)
		assert.LessOrEqual(t, score, prev, "coverage %v", c)
		prev = score
	}
}

func TestCalculateRiskScoreMonotonicInFailures(t *testing.T) {
	prev := math.Inf(-1)
	for failed := 0; failed <= 200; failed++ {
		score := CalculateRiskScore(80, failed, 200, nil)
		assert.GreaterOrEqual(t, score, prev, "failed %d", failed)
		prev = score
	}
}

func TestCalculateRiskScoreBounds(t *testing.T) {
	for c := 0.0; c <= 100; c += 10 {
		for _, total := range []int{0, 1, 50} {
			for failed := 0; failed <= total; failed += 7 {
				score := CalculateRiskScore(c, failed, total, features(c, 100-c))
				assert.GreaterOrEqual(t, score, 0.0)
				assert.LessOrEqual(t, score, 100.0)
			}
		}
	}
}

func TestCalculateRiskLevel(t *testing.T) {
	tests := []struct {
		coverage float64
		want     valueobject.RiskLevel
	}{
		{0, valueobject.RiskCritical},
		{69.99, valueobject.RiskCritical},
		{70.0, valueobject.RiskHigh},
		{84.99, valueobject.RiskHigh},
		{85.0, valueobject.RiskMedium},
		{89.99, valueobject.RiskMedium},
		{90.0, valueobject.RiskLow},
		{100, valueobject.RiskLow},
	}

	for _, tt := range tests {
		got, err := CalculateRiskLevel(tt.coverage)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "coverage %v", tt.coverage)
	}
}

func TestCalculateRiskLevelRejectsOutOfRange(t *testing.T) {
	for _, coverage := range []float64{-0.01, 100.01, math.NaN()} {
		_, err := CalculateRiskLevel(coverage)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidInput))

		var vErr *ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "coverage", vErr.Field)
	}
}
