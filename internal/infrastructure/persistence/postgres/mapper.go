package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dreschagin/release-confidence/internal/domain/entity"
	"github.com/dreschagin/release-confidence/internal/domain/valueobject"
)

const releaseColumns = `
	r.id, r.repo_id, r.release_number, r.commit_sha, r.branch, r.workflow_run_id,
	r.coverage_percent, r.pass_count, r.fail_count, r.total_tests,
	r.risk_score, r.release_confidence, r.risk_level, r.time_to_ship_minutes,
	r.features, r.raw_payload_key, r.created_at, r.updated_at,
	p.id, p.repo_id, p.repo_name, p.owner, p.full_name, p.default_branch, p.is_active, p.created_at, p.updated_at`

// ReleaseDBModel представляет релиз в БД
type ReleaseDBModel struct {
	ID                string
	RepositoryID      string
	ReleaseNumber     string
	CommitSHA         string
	Branch            string
	WorkflowRunID     string
	CoveragePercent   float64
	PassCount         int
	FailCount         int
	TotalTests        int
	RiskScore         float64
	ReleaseConfidence float64
	RiskLevel         string
	TimeToShipMinutes int
	Features          []byte // JSON
	RawPayloadKey     string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ToDBModel конвертирует Domain Entity в DB Model
func ToDBModel(release *entity.Release) (*ReleaseDBModel, error) {
	features := release.Features()
	if features == nil {
		features = []entity.FeatureCoverage{}
	}
	featuresBytes, err := json.Marshal(features)
	if err != nil {
		return nil, fmt.Errorf("failed to encode features: %w", err)
	}

	info := release.Info()
	return &ReleaseDBModel{
		ID:                release.ID(),
		RepositoryID:      release.RepositoryID(),
		ReleaseNumber:     info.Number,
		CommitSHA:         info.CommitSHA,
		Branch:            info.Branch,
		WorkflowRunID:     info.WorkflowRunID,
		CoveragePercent:   release.CoveragePercent(),
		PassCount:         release.PassCount(),
		FailCount:         release.FailCount(),
		TotalTests:        release.TotalTests(),
		RiskScore:         release.RiskScore(),
		ReleaseConfidence: release.ReleaseConfidence(),
		RiskLevel:         release.RiskLevel().String(),
		TimeToShipMinutes: release.TimeToShipMinutes(),
		Features:          featuresBytes,
		RawPayloadKey:     release.RawPayloadKey(),
		CreatedAt:         release.CreatedAt(),
		UpdatedAt:         release.UpdatedAt(),
	}, nil
}

// ToEntity конвертирует DB Model в Domain Entity
func ToEntity(model *ReleaseDBModel) (*entity.Release, error) {
	var features []entity.FeatureCoverage
	if len(model.Features) > 0 {
		if err := json.Unmarshal(model.Features, &features); err != nil {
			return nil, fmt.Errorf("failed to decode features: %w", err)
		}
	}

	riskLevel := valueobject.RiskLevel(model.RiskLevel)
	if err := riskLevel.Validate(); err != nil {
		return nil, err
	}

	return entity.ReconstructRelease(entity.ReleaseSnapshot{
		ID:           model.ID,
		RepositoryID: model.RepositoryID,
		Info: entity.ReleaseInfo{
			Number:        model.ReleaseNumber,
			CommitSHA:     model.CommitSHA,
			Branch:        model.Branch,
			WorkflowRunID: model.WorkflowRunID,
		},
		CoveragePercent:   model.CoveragePercent,
		PassCount:         model.PassCount,
		FailCount:         model.FailCount,
		TotalTests:        model.TotalTests,
		RiskScore:         model.RiskScore,
		ReleaseConfidence: model.ReleaseConfidence,
		RiskLevel:         riskLevel,
		TimeToShipMinutes: model.TimeToShipMinutes,
		Features:          features,
		RawPayloadKey:     model.RawPayloadKey,
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
	}), nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// ScanReleaseRow сканирует строку releases JOIN repositories
func ScanReleaseRow(row scanner) (*entity.Release, error) {
	var model ReleaseDBModel
	var repo entity.Repository
	var features sql.NullString

	err := row.Scan(
		&model.ID,
		&model.RepositoryID,
		&model.ReleaseNumber,
		&model.CommitSHA,
		&model.Branch,
		&model.WorkflowRunID,
		&model.CoveragePercent,
		&model.PassCount,
		&model.FailCount,
		&model.TotalTests,
		&model.RiskScore,
		&model.ReleaseConfidence,
		&model.RiskLevel,
		&model.TimeToShipMinutes,
		&features,
		&model.RawPayloadKey,
		&model.CreatedAt,
		&model.UpdatedAt,
		&repo.ID,
		&repo.ExternalID,
		&repo.Name,
		&repo.Owner,
		&repo.FullName,
		&repo.DefaultBranch,
		&repo.IsActive,
		&repo.CreatedAt,
		&repo.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if features.Valid {
		model.Features = []byte(features.String)
	}

	release, err := ToEntity(&model)
	if err != nil {
		return nil, err
	}
	release.AttachRepository(&repo)

	return release, nil
}

// ScanRepositoryRow сканирует строку repositories
func ScanRepositoryRow(row scanner) (*entity.Repository, error) {
	var repo entity.Repository
	err := row.Scan(
		&repo.ID,
		&repo.ExternalID,
		&repo.Name,
		&repo.Owner,
		&repo.FullName,
		&repo.DefaultBranch,
		&repo.IsActive,
		&repo.CreatedAt,
		&repo.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &repo, nil
}

// ScanRiskRow сканирует строку risk_items
func ScanRiskRow(row scanner) (entity.RiskItem, error) {
	var item entity.RiskItem
	var level string

	err := row.Scan(
		&item.ID,
		&item.ReleaseID,
		&item.RiskName,
		&level,
		&item.Severity,
		&item.Description,
		&item.AffectedFeature,
		&item.Recommendation,
		&item.AutoGenerated,
		&item.CreatedAt,
	)
	if err != nil {
		return entity.RiskItem{}, err
	}

	item.RiskLevel = valueobject.RiskItemLevel(level)
	return item, nil
}
