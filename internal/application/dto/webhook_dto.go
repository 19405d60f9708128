package dto

import (
	"encoding/json"

	"github.com/dreschagin/release-confidence/internal/domain/entity"
	"github.com/dreschagin/release-confidence/internal/domain/service"
)

// WebhookRepositoryDTO репозиторий-источник webhook
type WebhookRepositoryDTO struct {
	ID       int64  `json:"id" validate:"required,gt=0"`
	Name     string `json:"name" validate:"required,max=200"`
	Owner    string `json:"owner" validate:"required,max=200"`
	FullName string `json:"full_name" validate:"required,max=400"`
}

// WebhookReleaseDTO идентификаторы релиза из CI
type WebhookReleaseDTO struct {
	Number        string `json:"number" validate:"required,max=100"`
	CommitSHA     string `json:"commit_sha" validate:"omitempty,hexadecimal,max=64"`
	Branch        string `json:"branch" validate:"max=255"`
	WorkflowRunID string `json:"workflow_run_id" validate:"max=100"`
}

// CoverageWebhookPayload тело POST /api/v1/webhooks/coverage, которое шлет CI.
// Coverage хранится сырым и разбирается лениво: битые проценты не отклоняют запрос.
type CoverageWebhookPayload struct {
	Repository WebhookRepositoryDTO   `json:"repository"`
	Release    WebhookReleaseDTO      `json:"release"`
	Coverage   json.RawMessage        `json:"coverage"`
	Tests      service.TestResults    `json:"tests"`
	Features   []service.FeatureInput `json:"features,omitempty"`
	Timestamp  string                 `json:"timestamp"`
}

// IngestResultDTO ответ на успешную ингестию
type IngestResultDTO struct {
	ReleaseID string             `json:"release_id"`
	Metrics   *ReleaseMetricsDTO `json:"metrics"`
	RiskScore float64            `json:"risk_score"`
	Risks     []entity.RiskItem  `json:"risks"`
}
