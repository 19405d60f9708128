package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dreschagin/release-confidence/internal/domain/entity"
	"github.com/dreschagin/release-confidence/internal/domain/repository"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// PostgresReleaseRepository реализует repository.ReleaseRepository для PostgreSQL
type PostgresReleaseRepository struct {
	db *sql.DB
}

var _ repository.ReleaseRepository = (*PostgresReleaseRepository)(nil)

// NewPostgresReleaseRepository создает новый PostgreSQL repository
func NewPostgresReleaseRepository(db *sql.DB) *PostgresReleaseRepository {
	return &PostgresReleaseRepository{db: db}
}

// Save сохраняет релиз и его риски одной транзакцией
func (r *PostgresReleaseRepository) Save(ctx context.Context, release *entity.Release, risks []entity.RiskItem) error {
	model, err := ToDBModel(release)
	if err != nil {
		return fmt.Errorf("failed to convert to DB model: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO releases (
			id, repo_id, release_number, commit_sha, branch, workflow_run_id,
			coverage_percent, pass_count, fail_count, total_tests,
			risk_score, release_confidence, risk_level, time_to_ship_minutes,
			features, raw_payload_key, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`,
		model.ID,
		model.RepositoryID,
		model.ReleaseNumber,
		model.CommitSHA,
		model.Branch,
		model.WorkflowRunID,
		model.CoveragePercent,
		model.PassCount,
		model.FailCount,
		model.TotalTests,
		model.RiskScore,
		model.ReleaseConfidence,
		model.RiskLevel,
		model.TimeToShipMinutes,
		string(model.Features),
		model.RawPayloadKey,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert release: %w", err)
	}

	if len(risks) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO risk_items (
				id, release_id, risk_name, risk_level, severity, description,
				affected_feature, recommendation, auto_generated, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, risk := range risks {
			id := risk.ID
			if id == "" {
				id = uuid.New().String()
			}
			createdAt := risk.CreatedAt
			if createdAt.IsZero() {
				createdAt = model.CreatedAt
			}

			_, err = stmt.ExecContext(ctx,
				id,
				model.ID,
				risk.RiskName,
				risk.RiskLevel.String(),
				risk.Severity,
				risk.Description,
				risk.AffectedFeature,
				risk.Recommendation,
				risk.AutoGenerated,
				createdAt,
			)
			if err != nil {
				return fmt.Errorf("failed to insert risk item: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// UpdateRawPayloadKey сохраняет ключ архива сырого payload
func (r *PostgresReleaseRepository) UpdateRawPayloadKey(ctx context.Context, releaseID, key string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE releases SET raw_payload_key = $2, updated_at = NOW() WHERE id = $1
	`, releaseID, key)
	if err != nil {
		return fmt.Errorf("failed to update raw payload key: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrReleaseNotFound
	}

	return nil
}

// FindByID находит релиз по идентификатору
func (r *PostgresReleaseRepository) FindByID(ctx context.Context, id string) (*entity.Release, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrReleaseNotFound
	}

	query := `SELECT ` + releaseColumns + `
		FROM releases r
		JOIN repositories p ON p.id = r.repo_id
		WHERE r.id = $1
	`

	release, err := ScanReleaseRow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrReleaseNotFound
		}
		return nil, fmt.Errorf("failed to scan release: %w", err)
	}

	return release, nil
}

// FindLatestByOwner находит последний релиз среди репозиториев владельца
func (r *PostgresReleaseRepository) FindLatestByOwner(ctx context.Context, owner string) (*entity.Release, error) {
	releases, err := r.ListByOwner(ctx, owner, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(releases) == 0 {
		return nil, repository.ErrReleaseNotFound
	}
	return releases[0], nil
}

// ListByOwner возвращает релизы владельца, новые первыми
func (r *PostgresReleaseRepository) ListByOwner(ctx context.Context, owner string, limit, offset int) ([]*entity.Release, error) {
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + releaseColumns + `
		FROM releases r
		JOIN repositories p ON p.id = r.repo_id
		WHERE p.owner = $1
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, owner, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query releases: %w", err)
	}
	defer rows.Close()

	return scanReleases(rows)
}

// CountByOwner возвращает количество релизов владельца
func (r *PostgresReleaseRepository) CountByOwner(ctx context.Context, owner string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM releases r
		JOIN repositories p ON p.id = r.repo_id
		WHERE p.owner = $1
	`, owner).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count releases: %w", err)
	}

	return count, nil
}

// FindLatestPerRepository находит последний релиз каждого активного репозитория
func (r *PostgresReleaseRepository) FindLatestPerRepository(ctx context.Context) ([]*entity.Release, error) {
	query := `SELECT ` + releaseColumns + `
		FROM (
			SELECT DISTINCT ON (repo_id) *
			FROM releases
			ORDER BY repo_id, created_at DESC, id DESC
		) r
		JOIN repositories p ON p.id = r.repo_id
		WHERE p.is_active
		ORDER BY p.full_name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest releases: %w", err)
	}
	defer rows.Close()

	return scanReleases(rows)
}

// scanReleases сканирует несколько строк в слайс релизов
func scanReleases(rows *sql.Rows) ([]*entity.Release, error) {
	releases := make([]*entity.Release, 0)

	for rows.Next() {
		release, err := ScanReleaseRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan release row: %w", err)
		}
		releases = append(releases, release)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return releases, nil
}
