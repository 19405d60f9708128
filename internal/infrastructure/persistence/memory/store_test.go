package memory

import (
	"context"
	"testing"
	"time"

	"github.com/dreschagin/release-confidence/internal/domain/entity"
	"github.com/dreschagin/release-confidence/internal/domain/repository"
	"github.com/dreschagin/release-confidence/internal/domain/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saveRelease(t *testing.T, s *Store, repo *entity.Repository, number string, coverage float64, at time.Time) *entity.Release {
	t.Helper()
	rel := entity.ReconstructRelease(entity.ReleaseSnapshot{
		ID:              number + "-" + repo.Name,
		RepositoryID:    repo.ID,
		Info:            entity.ReleaseInfo{Number: number},
		CoveragePercent: coverage,
		RiskLevel:       valueobject.RiskLow,
		CreatedAt:       at,
		UpdatedAt:       at,
	})
	risks := []entity.RiskItem{
		{RiskName: "Low", Severity: 2},
		{RiskName: "High", Severity: 9},
	}
	require.NoError(t, s.Releases().Save(context.Background(), rel, risks))
	return rel
}

func TestStoreReleaseLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	repo, err := s.Repositories().Upsert(ctx, &entity.Repository{ExternalID: 1, Name: "api", Owner: "acme", FullName: "acme/api"})
	require.NoError(t, err)
	other, err := s.Repositories().Upsert(ctx, &entity.Repository{ExternalID: 2, Name: "web", Owner: "globex", FullName: "globex/web"})
	require.NoError(t, err)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	saveRelease(t, s, repo, "v1", 80, base)
	saveRelease(t, s, repo, "v2", 85, base.Add(time.Hour))
	latest := saveRelease(t, s, repo, "v3", 90, base.Add(2*time.Hour))
	saveRelease(t, s, other, "v9", 50, base.Add(3*time.Hour))

	got, err := s.Releases().FindLatestByOwner(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, latest.ID(), got.ID())
	require.NotNil(t, got.Repository())
	assert.Equal(t, "acme/api", got.Repository().FullName)

	page, err := s.Releases().ListByOwner(ctx, "acme", 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "v3", page[0].Number())
	assert.Equal(t, "v2", page[1].Number())

	count, err := s.Releases().CountByOwner(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	perRepo, err := s.Releases().FindLatestPerRepository(ctx)
	require.NoError(t, err)
	require.Len(t, perRepo, 2)
	assert.Equal(t, "v3", perRepo[0].Number())
	assert.Equal(t, "v9", perRepo[1].Number())

	risks, err := s.Risks().FindByRelease(ctx, latest.ID())
	require.NoError(t, err)
	require.Len(t, risks, 2)
	assert.Equal(t, "High", risks[0].RiskName)

	require.NoError(t, s.Releases().UpdateRawPayloadKey(ctx, latest.ID(), "payloads/key.json"))
	reloaded, err := s.Releases().FindByID(ctx, latest.ID())
	require.NoError(t, err)
	assert.Equal(t, "payloads/key.json", reloaded.RawPayloadKey())
}

func TestStoreNotFound(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_, err := s.Releases().FindLatestByOwner(ctx, "nobody")
	assert.ErrorIs(t, err, repository.ErrReleaseNotFound)

	_, err = s.Releases().FindByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrReleaseNotFound)

	_, err = s.Repositories().FindByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrRepositoryNotFound)

	rel := entity.ReconstructRelease(entity.ReleaseSnapshot{ID: "r1", RepositoryID: "missing"})
	assert.ErrorIs(t, s.Releases().Save(ctx, rel, nil), repository.ErrRepositoryNotFound)
}

func TestUpsertKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	first, err := s.Repositories().Upsert(ctx, &entity.Repository{ExternalID: 7, Name: "api", Owner: "acme", FullName: "acme/api"})
	require.NoError(t, err)
	second, err := s.Repositories().Upsert(ctx, &entity.Repository{ExternalID: 7, Name: "api-v2", Owner: "acme", FullName: "acme/api-v2"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "acme/api-v2", second.FullName)
}

func TestListByOwnerOutOfRangeOffset(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repo, err := s.Repositories().Upsert(ctx, &entity.Repository{ExternalID: 1, Name: "api", Owner: "acme", FullName: "acme/api"})
	require.NoError(t, err)
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	saveRelease(t, s, repo, "v1", 90, base)
	saveRelease(t, s, repo, "v2", 91, base.Add(time.Hour))

	page := valueobject.NewPagination(92233720368547760, 100)
	got, err := s.Releases().ListByOwner(ctx, "acme", page.Limit(), page.Offset())
	require.NoError(t, err)
	assert.Empty(t, got)

	// отрицательное смещение читается как первая страница
	got, err = s.Releases().ListByOwner(ctx, "acme", 1, -5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "v2", got[0].Number())
}
