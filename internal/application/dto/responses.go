package dto

import (
	"time"

	"github.com/dreschagin/release-confidence/internal/domain/entity"
	"github.com/dreschagin/release-confidence/internal/domain/valueobject"
)

// LatestReleaseResponse ответ GET /api/v1/releases/latest
type LatestReleaseResponse struct {
	Release *ReleaseDTO        `json:"release"`
	Risks   []entity.RiskItem  `json:"risks"`
	Metrics *ReleaseMetricsDTO `json:"metrics"`
}

// PaginationDTO сведения о странице
type PaginationDTO struct {
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	HasMore bool  `json:"hasMore"`
}

// ReleasesListResponse ответ GET /api/v1/releases
type ReleasesListResponse struct {
	Releases   []*ReleaseDTO     `json:"releases"`
	Pagination PaginationDTO     `json:"pagination"`
	Trend      valueobject.Trend `json:"trend"`
}

// ReleaseDetailResponse ответ GET /api/v1/releases/{id}
type ReleaseDetailResponse struct {
	Release       *ReleaseDTO        `json:"release"`
	Risks         []entity.RiskItem  `json:"risks"`
	Repository    *entity.Repository `json:"repository"`
	Metrics       *ReleaseMetricsDTO `json:"metrics"`
	RawPayloadURL string             `json:"raw_payload_url,omitempty"`
}

// ReleaseUpdateDTO сообщение для клиентов дашборда о новом релизе (WebSocket)
type ReleaseUpdateDTO struct {
	Timestamp  time.Time          `json:"timestamp"`
	Repository string             `json:"repository"`
	Release    *ReleaseDTO        `json:"release"`
	Metrics    *ReleaseMetricsDTO `json:"metrics"`
	RiskCount  int                `json:"risk_count"`
}

// NewReleaseUpdateDTO собирает сообщение из сохраненного релиза
func NewReleaseUpdateDTO(release *entity.Release, riskCount int) *ReleaseUpdateDTO {
	update := &ReleaseUpdateDTO{
		Timestamp: time.Now().UTC(),
		Release:   FromRelease(release),
		Metrics:   NewReleaseMetrics(release),
		RiskCount: riskCount,
	}
	if repo := release.Repository(); repo != nil {
		update.Repository = repo.FullName
	}
	return update
}

// ErrorResponse тело ответа с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}
