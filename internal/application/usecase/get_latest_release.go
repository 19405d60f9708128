package usecase

import (
	"context"
	"fmt"

	"github.com/dreschagin/release-confidence/internal/application/dto"
	"github.com/dreschagin/release-confidence/internal/domain/repository"
	"github.com/dreschagin/release-confidence/pkg/logger"
)

// GetLatestReleaseUseCase возвращает последний релиз владельца с рисками и метриками
type GetLatestReleaseUseCase struct {
	releases repository.ReleaseRepository
	risks    repository.RiskRepository
	logger   *logger.Logger
}

// NewGetLatestReleaseUseCase создает новый use case
func NewGetLatestReleaseUseCase(
	releases repository.ReleaseRepository,
	risks repository.RiskRepository,
	logger *logger.Logger,
) *GetLatestReleaseUseCase {
	return &GetLatestReleaseUseCase{
		releases: releases,
		risks:    risks,
		logger:   logger,
	}
}

// Execute возвращает repository.ErrReleaseNotFound, если у владельца нет релизов
func (uc *GetLatestReleaseUseCase) Execute(ctx context.Context, owner string) (*dto.LatestReleaseResponse, error) {
	release, err := uc.releases.FindLatestByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest release: %w", err)
	}

	risks, err := uc.risks.FindByRelease(ctx, release.ID())
	if err != nil {
		uc.logger.Error("Failed to fetch release risks", err, "release_id", release.ID())
		return nil, fmt.Errorf("failed to get risks: %w", err)
	}

	uc.logger.Debug("Returning latest release", "owner", owner, "release", release.Number(), "risks", len(risks))

	return &dto.LatestReleaseResponse{
		Release: dto.FromRelease(release),
		Risks:   risks,
		Metrics: dto.NewReleaseMetrics(release),
	}, nil
}
