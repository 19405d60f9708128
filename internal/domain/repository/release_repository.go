package repository

import (
	"context"
	"errors"

	"github.com/dreschagin/release-confidence/internal/domain/entity"
)

// ErrReleaseNotFound возвращается, когда релиз отсутствует в хранилище
var ErrReleaseNotFound = errors.New("release not found")

// ErrRepositoryNotFound возвращается, когда репозиторий отсутствует в хранилище
var ErrRepositoryNotFound = errors.New("repository not found")

// ReleaseRepository определяет интерфейс для работы с хранилищем релизов (Port)
// Реализация будет в Infrastructure слое
type ReleaseRepository interface {
	// Save сохраняет релиз и его риски одной транзакцией
	Save(ctx context.Context, release *entity.Release, risks []entity.RiskItem) error

	// UpdateRawPayloadKey запоминает ключ архива исходного payload
	UpdateRawPayloadKey(ctx context.Context, releaseID, key string) error

	// FindByID находит релиз по идентификатору вместе с репозиторием
	FindByID(ctx context.Context, id string) (*entity.Release, error)

	// FindLatestByOwner находит последний релиз среди репозиториев владельца
	FindLatestByOwner(ctx context.Context, owner string) (*entity.Release, error)

	// ListByOwner возвращает релизы владельца, новые первыми
	ListByOwner(ctx context.Context, owner string, limit, offset int) ([]*entity.Release, error)

	// CountByOwner возвращает общее число релизов владельца
	CountByOwner(ctx context.Context, owner string) (int64, error)

	// FindLatestPerRepository возвращает последний релиз каждого активного репозитория
	FindLatestPerRepository(ctx context.Context) ([]*entity.Release, error)
}

// RepositoryRepository хранилище отслеживаемых репозиториев
type RepositoryRepository interface {
	// Upsert создает или обновляет репозиторий по внешнему идентификатору
	Upsert(ctx context.Context, repo *entity.Repository) (*entity.Repository, error)

	FindByID(ctx context.Context, id string) (*entity.Repository, error)
}

// RiskRepository хранилище находок генератора рисков
type RiskRepository interface {
	// FindByRelease возвращает находки релиза, самые серьезные первыми
	FindByRelease(ctx context.Context, releaseID string) ([]entity.RiskItem, error)
}
