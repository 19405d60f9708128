package dto

import (
	"time"

	"github.com/dreschagin/release-confidence/internal/domain/entity"
	"github.com/dreschagin/release-confidence/internal/domain/service"
	"github.com/dreschagin/release-confidence/internal/domain/valueobject"
)

// ReleaseDTO представляет релиз для передачи между слоями
type ReleaseDTO struct {
	ID                string                   `json:"id"`
	RepoID            string                   `json:"repo_id"`
	ReleaseNumber     string                   `json:"release_number"`
	CommitSHA         string                   `json:"commit_sha,omitempty"`
	Branch            string                   `json:"branch,omitempty"`
	WorkflowRunID     string                   `json:"workflow_run_id,omitempty"`
	CoveragePercent   float64                  `json:"coverage_percent"`
	PassCount         int                      `json:"pass_count"`
	FailCount         int                      `json:"fail_count"`
	TotalTests        int                      `json:"total_tests"`
	RiskScore         float64                  `json:"risk_score"`
	ReleaseConfidence float64                  `json:"release_confidence"`
	RiskLevel         valueobject.RiskLevel    `json:"risk_level"`
	TimeToShipMinutes int                      `json:"time_to_ship_minutes"`
	Features          []entity.FeatureCoverage `json:"features"`
	RawPayloadKey     string                   `json:"raw_payload_key,omitempty"`
	CreatedAt         time.Time                `json:"created_at"`
	UpdatedAt         time.Time                `json:"updated_at"`
	RepoName          string                   `json:"repo_name,omitempty"`
	Owner             string                   `json:"owner,omitempty"`
	FullName          string                   `json:"full_name,omitempty"`
}

// ReleaseMetricsDTO готовые к показу метрики релиза. Только форматирует
// сохраненные значения, скоринг заново не выполняется.
type ReleaseMetricsDTO struct {
	ReleaseConfidence float64               `json:"releaseConfidence"`
	TestCoverage      float64               `json:"testCoverage"`
	RiskLevel         valueobject.RiskLevel `json:"riskLevel"`
	TimeToShip        string                `json:"timeToShip"`
	PassRate          float64               `json:"passRate"`
	TotalTests        int                   `json:"totalTests"`
	FailedTests       int                   `json:"failedTests"`
}

// FromRelease конвертирует Domain Entity в DTO
func FromRelease(release *entity.Release) *ReleaseDTO {
	info := release.Info()
	d := &ReleaseDTO{
		ID:                release.ID(),
		RepoID:            release.RepositoryID(),
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
		RiskLevel:         release.RiskLevel(),
		TimeToShipMinutes: release.TimeToShipMinutes(),
		Features:          release.Features(),
		RawPayloadKey:     release.RawPayloadKey(),
		CreatedAt:         release.CreatedAt(),
		UpdatedAt:         release.UpdatedAt(),
	}

	if repo := release.Repository(); repo != nil {
		d.RepoName = repo.Name
		d.Owner = repo.Owner
		d.FullName = repo.FullName
	}

	return d
}

// ToReleaseDTOs конвертирует слайс Entity в слайс DTO
func ToReleaseDTOs(releases []*entity.Release) []*ReleaseDTO {
	dtos := make([]*ReleaseDTO, len(releases))
	for i, r := range releases {
		dtos[i] = FromRelease(r)
	}
	return dtos
}

// NewReleaseMetrics форматирует сохраненные метрики релиза
func NewReleaseMetrics(release *entity.Release) *ReleaseMetricsDTO {
	total := release.TotalTests()
	return &ReleaseMetricsDTO{
		ReleaseConfidence: release.ReleaseConfidence(),
		TestCoverage:      release.CoveragePercent(),
		RiskLevel:         release.RiskLevel(),
		TimeToShip:        service.FormatMinutesToTime(release.TimeToShipMinutes()),
		PassRate:          service.CalculatePassRate(release.PassCount(), total),
		TotalTests:        total,
		FailedTests:       release.FailCount(),
	}
}
