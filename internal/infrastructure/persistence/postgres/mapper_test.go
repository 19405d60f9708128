package postgres

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/dreschagin/release-confidence/internal/domain/entity"
	"github.com/dreschagin/release-confidence/internal/domain/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRow раскладывает значения по указателям как *sql.Row
type fakeRow []interface{}

func (r fakeRow) Scan(dest ...interface{}) error {
	if len(dest) != len(r) {
		return fmt.Errorf("expected %d destinations, got %d", len(r), len(dest))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = r[i].(string)
		case *int:
			*p = r[i].(int)
		case *int64:
			*p = r[i].(int64)
		case *float64:
			*p = r[i].(float64)
		case *bool:
			*p = r[i].(bool)
		case *time.Time:
			*p = r[i].(time.Time)
		case *sql.NullString:
			if r[i] == nil {
				*p = sql.NullString{}
			} else {
				*p = sql.NullString{String: r[i].(string), Valid: true}
			}
		default:
			return fmt.Errorf("unsupported destination %T", d)
		}
	}
	return nil
}

func TestToDBModelEncodesFeatures(t *testing.T) {
	release, err := entity.NewRelease("repo-1", entity.ReleaseInfo{Number: "v2.0.0", CommitSHA: "abc123"}, &entity.ReleaseEvaluation{
		Coverage:          87.5,
		PassedTests:       242,
		FailedTests:       8,
		TotalTests:        250,
		RiskScore:         5.96,
		RiskLevel:         valueobject.RiskMedium,
		Confidence:        90.04,
		TimeToShipMinutes: 90,
		Features: []entity.FeatureCoverage{
			{Name: "Auth", Coverage: 91.5, Status: valueobject.StatusExcellent},
		},
	})
	require.NoError(t, err)

	model, err := ToDBModel(release)
	require.NoError(t, err)

	assert.Equal(t, "Medium", model.RiskLevel)
	assert.Equal(t, "abc123", model.CommitSHA)
	assert.JSONEq(t, `[{"name":"Auth","coverage":91.5,"status":"excellent"}]`, string(model.Features))
}

func TestScanReleaseRowAttachesRepository(t *testing.T) {
	created := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	row := fakeRow{
		"rel-1", "repo-1", "v2.0.0", "abc123", "main", "77",
		82.0, 90, 10, 100,
		18.4, 71.2, "Medium", 150,
		`[{"name":"Payments","coverage":64,"status":"warning"}]`, "payloads/acme/api.json", created, created,
		"repo-1", int64(42), "api", "acme", "acme/api", "main", true, created, created,
	}

	release, err := ScanReleaseRow(row)
	require.NoError(t, err)

	assert.Equal(t, "rel-1", release.ID())
	assert.Equal(t, valueobject.RiskMedium, release.RiskLevel())
	assert.Equal(t, "payloads/acme/api.json", release.RawPayloadKey())
	require.Len(t, release.Features(), 1)
	assert.Equal(t, valueobject.StatusWarning, release.Features()[0].Status)
	require.NotNil(t, release.Repository())
	assert.Equal(t, int64(42), release.Repository().ExternalID)
	assert.Equal(t, "acme", release.Repository().Owner)
}

func TestScanReleaseRowRejectsUnknownRiskLevel(t *testing.T) {
	created := time.Now()
	row := fakeRow{
		"rel-1", "repo-1", "v1", "", "", "",
		50.0, 1, 1, 2,
		40.0, 30.0, "Severe", 300,
		nil, "", created, created,
		"repo-1", int64(1), "api", "acme", "acme/api", "main", true, created, created,
	}

	_, err := ScanReleaseRow(row)
	assert.Error(t, err)
}

func TestScanRiskRow(t *testing.T) {
	created := time.Now().UTC()
	row := fakeRow{"risk-1", "rel-1", "Failed Tests", "Medium", 6, "3 tests failing", "", "Fix failing tests", true, created}

	item, err := ScanRiskRow(row)
	require.NoError(t, err)
	assert.Equal(t, valueobject.ItemMedium, item.RiskLevel)
	assert.Equal(t, 6, item.Severity)
	assert.False(t, item.IsFeatureScoped())
}
