package entity

import (
	"testing"
	"time"

	"github.com/dreschagin/release-confidence/internal/domain/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvaluation() *ReleaseEvaluation {
	return &ReleaseEvaluation{
		Coverage:          87.5,
		TotalTests:        250,
		PassedTests:       242,
		FailedTests:       8,
		PassRate:          96.8,
		RiskScore:         15,
		RiskLevel:         valueobject.RiskMedium,
		Confidence:        90.04,
		TimeToShipMinutes: 105,
		TimeToShip:        "1h 45m",
		Features: []FeatureCoverage{
			{Name: "Authentication", Coverage: 91.5, Status: valueobject.StatusGood},
		},
	}
}

func TestNewRelease(t *testing.T) {
	rel, err := NewRelease("repo-1", ReleaseInfo{Number: "v1.2.0", CommitSHA: "abc123"}, sampleEvaluation())
	require.NoError(t, err)

	assert.NotEmpty(t, rel.ID())
	assert.Equal(t, "repo-1", rel.RepositoryID())
	assert.Equal(t, "v1.2.0", rel.Number())
	assert.Equal(t, 87.5, rel.CoveragePercent())
	assert.Equal(t, 250, rel.TotalTests())
	assert.Equal(t, valueobject.RiskMedium, rel.RiskLevel())
	assert.True(t, rel.IsBlocking())
	assert.Len(t, rel.Features(), 1)
}

func TestNewReleaseValidation(t *testing.T) {
	_, err := NewRelease("", ReleaseInfo{Number: "v1"}, sampleEvaluation())
	assert.Error(t, err)

	_, err = NewRelease("repo-1", ReleaseInfo{}, sampleEvaluation())
	assert.Error(t, err)

	_, err = NewRelease("repo-1", ReleaseInfo{Number: "v1"}, nil)
	assert.Error(t, err)

	bad := sampleEvaluation()
	bad.RiskLevel = "Unknown"
	_, err = NewRelease("repo-1", ReleaseInfo{Number: "v1"}, bad)
	assert.Error(t, err)
}

func TestReleaseFeaturesAreCopied(t *testing.T) {
	rel, err := NewRelease("repo-1", ReleaseInfo{Number: "v1"}, sampleEvaluation())
	require.NoError(t, err)

	features := rel.Features()
	features[0].Coverage = 0

	assert.Equal(t, 91.5, rel.Features()[0].Coverage)
}

func TestReconstructReleaseTotalTestsFallback(t *testing.T) {
	rel := ReconstructRelease(ReleaseSnapshot{ID: "r1", PassCount: 40, FailCount: 2, RiskLevel: valueobject.RiskLow})

	assert.Equal(t, 42, rel.TotalTests())
	assert.NotNil(t, rel.Features())
	assert.True(t, rel.IsBlocking())
}

func TestSnapshotRoundTrip(t *testing.T) {
	rel, err := NewRelease("repo-1", ReleaseInfo{Number: "v1"}, sampleEvaluation())
	require.NoError(t, err)
	rel.SetRawPayloadKey("payloads/acme/api/v1.json")

	restored := ReconstructRelease(rel.Snapshot())
	assert.Equal(t, rel.Snapshot(), restored.Snapshot())
}

func TestReleaseAgeAt(t *testing.T) {
	created := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	rel := ReconstructRelease(ReleaseSnapshot{ID: "rel-1", CreatedAt: created, UpdatedAt: created})

	assert.Equal(t, 90*time.Minute, rel.AgeAt(created.Add(90*time.Minute)))
	// часы отстают от времени записи
	assert.Zero(t, rel.AgeAt(created.Add(-time.Minute)))
}
