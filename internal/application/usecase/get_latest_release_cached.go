package usecase

import (
	"context"

	"github.com/dreschagin/release-confidence/internal/application/dto"
	"github.com/dreschagin/release-confidence/internal/application/port"
	"github.com/dreschagin/release-confidence/pkg/logger"
)

// LatestReleaseGetter источник последнего релиза
type LatestReleaseGetter interface {
	Execute(ctx context.Context, owner string) (*dto.LatestReleaseResponse, error)
}

// GetLatestReleaseCachedUseCase возвращает последний релиз с кешированием
type GetLatestReleaseCachedUseCase struct {
	inner  LatestReleaseGetter
	cache  port.Cache
	logger *logger.Logger
}

// NewGetLatestReleaseCachedUseCase создает новый use case с кешированием
func NewGetLatestReleaseCachedUseCase(
	inner LatestReleaseGetter,
	cache port.Cache,
	logger *logger.Logger,
) *GetLatestReleaseCachedUseCase {
	return &GetLatestReleaseCachedUseCase{
		inner:  inner,
		cache:  cache,
		logger: logger,
	}
}

// Execute выполняет получение последнего релиза с кешированием
func (uc *GetLatestReleaseCachedUseCase) Execute(ctx context.Context, owner string) (*dto.LatestReleaseResponse, error) {
	// Если кеш не настроен, используем стандартный путь
	if uc.cache == nil {
		return uc.inner.Execute(ctx, owner)
	}

	cacheKey := port.LatestReleaseCacheKey(owner)

	var cached dto.LatestReleaseResponse
	if err := uc.cache.Get(ctx, cacheKey, &cached); err == nil {
		uc.logger.Debug("Cache hit for latest release", "owner", owner)
		return &cached, nil
	}

	uc.logger.Debug("Cache miss for latest release, fetching from DB", "owner", owner)

	resp, err := uc.inner.Execute(ctx, owner)
	if err != nil {
		return nil, err
	}

	// Сохраняем в кеш асинхронно, не блокируем ответ
	go func() {
		if err := uc.cache.Set(context.Background(), cacheKey, resp); err != nil {
			uc.logger.Warn("Failed to cache latest release", "error", err.Error())
		}
	}()

	return resp, nil
}
