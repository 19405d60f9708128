package usecase

import (
	"context"
	"fmt"

	"github.com/dreschagin/release-confidence/internal/application/dto"
	"github.com/dreschagin/release-confidence/internal/application/port"
	"github.com/dreschagin/release-confidence/internal/domain/repository"
	"github.com/dreschagin/release-confidence/internal/domain/service"
	"github.com/dreschagin/release-confidence/internal/domain/valueobject"
	"github.com/dreschagin/release-confidence/pkg/logger"
)

// ListReleasesUseCase возвращает страницу релизов владельца и тренд покрытия
type ListReleasesUseCase struct {
	releases repository.ReleaseRepository
	cache    port.Cache
	logger   *logger.Logger
}

// NewListReleasesUseCase создает новый use case; cache может быть nil
func NewListReleasesUseCase(
	releases repository.ReleaseRepository,
	cache port.Cache,
	logger *logger.Logger,
) *ListReleasesUseCase {
	return &ListReleasesUseCase{
		releases: releases,
		cache:    cache,
		logger:   logger,
	}
}

func (uc *ListReleasesUseCase) Execute(ctx context.Context, owner string, page, limit int) (*dto.ReleasesListResponse, error) {
	pagination := valueobject.NewPagination(page, limit)
	cacheKey := port.ReleaseListCacheKey(owner, pagination.Page(), pagination.Limit())

	if uc.cache != nil {
		var cached dto.ReleasesListResponse
		if err := uc.cache.Get(ctx, cacheKey, &cached); err == nil {
			uc.logger.Debug("Cache hit for release list", "owner", owner, "page", pagination.Page())
			return &cached, nil
		}
	}

	releases, err := uc.releases.ListByOwner(ctx, owner, pagination.Limit(), pagination.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list releases: %w", err)
	}

	total, err := uc.releases.CountByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to count releases: %w", err)
	}

	trend := valueobject.StableTrend()
	if len(releases) >= 2 {
		trend = service.CalculateCoverageTrend(releases[0].CoveragePercent(), releases[1].CoveragePercent())
	}

	resp := &dto.ReleasesListResponse{
		Releases: dto.ToReleaseDTOs(releases),
		Pagination: dto.PaginationDTO{
			Total:   total,
			Page:    pagination.Page(),
			Limit:   pagination.Limit(),
			HasMore: pagination.HasMore(len(releases), total),
		},
		Trend: trend,
	}

	uc.logger.Debug("Listed releases", "owner", owner, "returned", len(releases), "total", total)

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, cacheKey, resp); err != nil {
			uc.logger.Warn("Failed to cache release list", "error", err.Error())
		}
	}

	return resp, nil
}
