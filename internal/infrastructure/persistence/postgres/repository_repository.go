package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dreschagin/release-confidence/internal/domain/entity"
	"github.com/dreschagin/release-confidence/internal/domain/repository"
	"github.com/google/uuid"
)

const repositoryColumns = `id, repo_id, repo_name, owner, full_name, default_branch, is_active, created_at, updated_at`

// PostgresRepositoryRepository реализует repository.RepositoryRepository
type PostgresRepositoryRepository struct {
	db *sql.DB
}

var _ repository.RepositoryRepository = (*PostgresRepositoryRepository)(nil)

func NewPostgresRepositoryRepository(db *sql.DB) *PostgresRepositoryRepository {
	return &PostgresRepositoryRepository{db: db}
}

// Upsert создает репозиторий или обновляет его по внешнему id
func (r *PostgresRepositoryRepository) Upsert(ctx context.Context, repo *entity.Repository) (*entity.Repository, error) {
	branch := repo.DefaultBranch
	if branch == "" {
		branch = "main"
	}
	now := time.Now().UTC()

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO repositories (id, repo_id, repo_name, owner, full_name, default_branch, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7, $7)
		ON CONFLICT (repo_id) DO UPDATE SET
			repo_name = EXCLUDED.repo_name,
			owner = EXCLUDED.owner,
			full_name = EXCLUDED.full_name,
			is_active = TRUE,
			updated_at = EXCLUDED.updated_at
		RETURNING `+repositoryColumns,
		uuid.New().String(),
		repo.ExternalID,
		repo.Name,
		repo.Owner,
		repo.FullName,
		branch,
		now,
	)

	saved, err := ScanRepositoryRow(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert repository: %w", err)
	}

	return saved, nil
}

func (r *PostgresRepositoryRepository) FindByID(ctx context.Context, id string) (*entity.Repository, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+repositoryColumns+` FROM repositories WHERE id = $1`, id)

	repo, err := ScanRepositoryRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrRepositoryNotFound
		}
		return nil, fmt.Errorf("failed to scan repository: %w", err)
	}

	return repo, nil
}
