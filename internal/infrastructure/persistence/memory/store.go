package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dreschagin/release-confidence/internal/domain/entity"
	"github.com/dreschagin/release-confidence/internal/domain/repository"
	"github.com/google/uuid"
)

// Store in-memory хранилище релизов для локального запуска (DB_DRIVER=memory) и тестов
type Store struct {
	mu           sync.RWMutex
	repositories map[string]entity.Repository
	releases     map[string]entity.ReleaseSnapshot
	risks        map[string][]entity.RiskItem
}

func NewStore() *Store {
	return &Store{
		repositories: make(map[string]entity.Repository),
		releases:     make(map[string]entity.ReleaseSnapshot),
		risks:        make(map[string][]entity.RiskItem),
	}
}

// Releases возвращает представление Store как repository.ReleaseRepository
func (s *Store) Releases() *ReleaseRepository { return &ReleaseRepository{s: s} }

// Repositories возвращает представление Store как repository.RepositoryRepository
func (s *Store) Repositories() *RepositoryRepository { return &RepositoryRepository{s: s} }

// Risks возвращает представление Store как repository.RiskRepository
func (s *Store) Risks() *RiskRepository { return &RiskRepository{s: s} }

type ReleaseRepository struct{ s *Store }

var _ repository.ReleaseRepository = (*ReleaseRepository)(nil)

func (r *ReleaseRepository) Save(_ context.Context, release *entity.Release, risks []entity.RiskItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.repositories[release.RepositoryID()]; !ok {
		return fmt.Errorf("%w: %s", repository.ErrRepositoryNotFound, release.RepositoryID())
	}

	r.s.releases[release.ID()] = release.Snapshot()
	stored := make([]entity.RiskItem, len(risks))
	copy(stored, risks)
	r.s.risks[release.ID()] = stored
	return nil
}

func (r *ReleaseRepository) UpdateRawPayloadKey(_ context.Context, releaseID, key string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	snap, ok := r.s.releases[releaseID]
	if !ok {
		return repository.ErrReleaseNotFound
	}
	snap.RawPayloadKey = key
	snap.UpdatedAt = time.Now().UTC()
	r.s.releases[releaseID] = snap
	return nil
}

func (r *ReleaseRepository) FindByID(_ context.Context, id string) (*entity.Release, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	snap, ok := r.s.releases[id]
	if !ok {
		return nil, repository.ErrReleaseNotFound
	}
	return r.s.restore(snap), nil
}

func (r *ReleaseRepository) FindLatestByOwner(ctx context.Context, owner string) (*entity.Release, error) {
	releases, err := r.ListByOwner(ctx, owner, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(releases) == 0 {
		return nil, repository.ErrReleaseNotFound
	}
	return releases[0], nil
}

func (r *ReleaseRepository) ListByOwner(_ context.Context, owner string, limit, offset int) ([]*entity.Release, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	owned := r.s.ownedSnapshots(owner)
	if offset < 0 {
		offset = 0
	}
	if offset >= len(owned) {
		return []*entity.Release{}, nil
	}
	end := len(owned)
	if limit > 0 && limit < end-offset {
		end = offset + limit
	}

	out := make([]*entity.Release, 0, end-offset)
	for _, snap := range owned[offset:end] {
		out = append(out, r.s.restore(snap))
	}
	return out, nil
}

func (r *ReleaseRepository) CountByOwner(_ context.Context, owner string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return int64(len(r.s.ownedSnapshots(owner))), nil
}

func (r *ReleaseRepository) FindLatestPerRepository(_ context.Context) ([]*entity.Release, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	latest := make(map[string]entity.ReleaseSnapshot)
	for _, snap := range r.s.releases {
		repo, ok := r.s.repositories[snap.RepositoryID]
		if !ok || !repo.IsActive {
			continue
		}
		if cur, ok := latest[snap.RepositoryID]; !ok || newer(snap, cur) {
			latest[snap.RepositoryID] = snap
		}
	}

	out := make([]*entity.Release, 0, len(latest))
	for _, snap := range latest {
		out = append(out, r.s.restore(snap))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Repository().FullName < out[j].Repository().FullName
	})
	return out, nil
}

type RepositoryRepository struct{ s *Store }

var _ repository.RepositoryRepository = (*RepositoryRepository)(nil)

func (r *RepositoryRepository) Upsert(_ context.Context, repo *entity.Repository) (*entity.Repository, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now().UTC()
	for id, existing := range r.s.repositories {
		if existing.ExternalID == repo.ExternalID {
			existing.Name = repo.Name
			existing.Owner = repo.Owner
			existing.FullName = repo.FullName
			if repo.DefaultBranch != "" {
				existing.DefaultBranch = repo.DefaultBranch
			}
			existing.IsActive = true
			existing.UpdatedAt = now
			r.s.repositories[id] = existing
			out := existing
			return &out, nil
		}
	}

	created := *repo
	created.ID = uuid.New().String()
	created.IsActive = true
	created.CreatedAt = now
	created.UpdatedAt = now
	r.s.repositories[created.ID] = created
	return &created, nil
}

func (r *RepositoryRepository) FindByID(_ context.Context, id string) (*entity.Repository, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	repo, ok := r.s.repositories[id]
	if !ok {
		return nil, repository.ErrRepositoryNotFound
	}
	return &repo, nil
}

type RiskRepository struct{ s *Store }

var _ repository.RiskRepository = (*RiskRepository)(nil)

func (r *RiskRepository) FindByRelease(_ context.Context, releaseID string) ([]entity.RiskItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stored := r.s.risks[releaseID]
	out := make([]entity.RiskItem, len(stored))
	copy(out, stored)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Severity > out[j].Severity
	})
	return out, nil
}

// ownedSnapshots возвращает релизы владельца, новые первыми. Вызывается под блокировкой.
func (s *Store) ownedSnapshots(owner string) []entity.ReleaseSnapshot {
	owned := make([]entity.ReleaseSnapshot, 0)
	for _, snap := range s.releases {
		repo, ok := s.repositories[snap.RepositoryID]
		if !ok || repo.Owner != owner {
			continue
		}
		owned = append(owned, snap)
	}
	sort.Slice(owned, func(i, j int) bool {
		return newer(owned[i], owned[j])
	})
	return owned
}

func (s *Store) restore(snap entity.ReleaseSnapshot) *entity.Release {
	release := entity.ReconstructRelease(snap)
	if repo, ok := s.repositories[snap.RepositoryID]; ok {
		r := repo
		release.AttachRepository(&r)
	}
	return release
}

func newer(a, b entity.ReleaseSnapshot) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID > b.ID
	}
	return a.CreatedAt.After(b.CreatedAt)
}
