package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dreschagin/release-confidence/internal/domain/entity"
	"github.com/dreschagin/release-confidence/internal/domain/repository"
)

// PostgresRiskRepository реализует repository.RiskRepository
type PostgresRiskRepository struct {
	db *sql.DB
}

var _ repository.RiskRepository = (*PostgresRiskRepository)(nil)

func NewPostgresRiskRepository(db *sql.DB) *PostgresRiskRepository {
	return &PostgresRiskRepository{db: db}
}

// FindByRelease возвращает риски релиза, самые серьезные первыми
func (r *PostgresRiskRepository) FindByRelease(ctx context.Context, releaseID string) ([]entity.RiskItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, release_id, risk_name, risk_level, severity, description,
			affected_feature, recommendation, auto_generated, created_at
		FROM risk_items
		WHERE release_id = $1
		ORDER BY severity DESC, created_at
	`, releaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query risk items: %w", err)
	}
	defer rows.Close()

	risks := make([]entity.RiskItem, 0)
	for rows.Next() {
		item, err := ScanRiskRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan risk row: %w", err)
		}
		risks = append(risks, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return risks, nil
}
