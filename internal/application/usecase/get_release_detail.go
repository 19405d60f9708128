package usecase

import (
	"context"
	"fmt"

	"github.com/dreschagin/release-confidence/internal/application/dto"
	"github.com/dreschagin/release-confidence/internal/application/port"
	"github.com/dreschagin/release-confidence/internal/domain/repository"
	"github.com/dreschagin/release-confidence/pkg/logger"
)

// GetReleaseDetailUseCase возвращает релиз с рисками и репозиторием
type GetReleaseDetailUseCase struct {
	releases     repository.ReleaseRepository
	repositories repository.RepositoryRepository
	risks        repository.RiskRepository
	archive      port.PayloadArchive
	logger       *logger.Logger
}

func NewGetReleaseDetailUseCase(
	releases repository.ReleaseRepository,
	repositories repository.RepositoryRepository,
	risks repository.RiskRepository,
	archive port.PayloadArchive,
	logger *logger.Logger,
) *GetReleaseDetailUseCase {
	return &GetReleaseDetailUseCase{
		releases:     releases,
		repositories: repositories,
		risks:        risks,
		archive:      archive,
		logger:       logger,
	}
}

// Execute скрывает релизы чужих владельцев как отсутствующие
func (uc *GetReleaseDetailUseCase) Execute(ctx context.Context, owner, releaseID string) (*dto.ReleaseDetailResponse, error) {
	release, err := uc.releases.FindByID(ctx, releaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get release: %w", err)
	}

	repo := release.Repository()
	if repo == nil {
		repo, err = uc.repositories.FindByID(ctx, release.RepositoryID())
		if err != nil {
			return nil, fmt.Errorf("failed to get repository: %w", err)
		}
		release.AttachRepository(repo)
	}

	if owner != "" && repo.Owner != owner {
		return nil, fmt.Errorf("release %s: %w", releaseID, repository.ErrReleaseNotFound)
	}

	risks, err := uc.risks.FindByRelease(ctx, release.ID())
	if err != nil {
		uc.logger.Error("Failed to fetch release risks", err, "release_id", release.ID())
		return nil, fmt.Errorf("failed to get risks: %w", err)
	}

	return &dto.ReleaseDetailResponse{
		Release:       dto.FromRelease(release),
		Risks:         risks,
		Repository:    repo,
		Metrics:       dto.NewReleaseMetrics(release),
		RawPayloadURL: uc.rawPayloadURL(ctx, release.ID(), release.RawPayloadKey()),
	}, nil
}

// rawPayloadURL пустая строка, если архив выключен или ссылку выдать не удалось
func (uc *GetReleaseDetailUseCase) rawPayloadURL(ctx context.Context, releaseID, key string) string {
	if uc.archive == nil || key == "" {
		return ""
	}
	url, err := uc.archive.PresignGet(ctx, key)
	if err != nil {
		uc.logger.Warn("Failed to presign raw payload", "release_id", releaseID, "error", err.Error())
		return ""
	}
	return url
}
