package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/dreschagin/release-confidence/internal/application/dto"
	"github.com/dreschagin/release-confidence/internal/application/usecase"
	"github.com/dreschagin/release-confidence/internal/domain/service"
	"github.com/dreschagin/release-confidence/internal/interfaces/http/middleware"
	"github.com/dreschagin/release-confidence/internal/metrics"
	"github.com/dreschagin/release-confidence/pkg/logger"
)

// CoverageIngester оценивает и сохраняет релиз из webhook
type CoverageIngester interface {
	Execute(ctx context.Context, cmd usecase.IngestCoverageCommand) (*dto.IngestResultDTO, error)
}

// WebhookHandler принимает отчеты о покрытии от CI
type WebhookHandler struct {
	ingest CoverageIngester
	logger *logger.Logger
}

func NewWebhookHandler(ingest CoverageIngester, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{ingest: ingest, logger: log}
}

// HandleCoverage POST /api/v1/webhooks/coverage
func (h *WebhookHandler) HandleCoverage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "payload exceeds the configured limit")
			return
		}
		writeError(w, http.StatusBadRequest, "unreadable_body", "failed to read request body")
		return
	}

	var payload dto.CoverageWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		metrics.ObserveIngestion(time.Since(start), metrics.OutcomeRejected)
		writeError(w, http.StatusBadRequest, "malformed_json", "request body is not valid JSON")
		return
	}

	if err := payload.Validate(); err != nil {
		metrics.ObserveIngestion(time.Since(start), metrics.OutcomeRejected)
		writeError(w, http.StatusBadRequest, "invalid_payload", err.Error())
		return
	}

	result, err := h.ingest.Execute(r.Context(), usecase.IngestCoverageCommand{
		Payload:    payload,
		RawBody:    body,
		DeliveryID: r.Header.Get("X-GitHub-Delivery"),
		EventType:  r.Header.Get("X-GitHub-Event"),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			metrics.ObserveIngestion(time.Since(start), metrics.OutcomeRejected)
			writeError(w, http.StatusUnprocessableEntity, "validation_failed", err.Error())
		case errors.Is(err, dto.ErrInvalidPayload):
			metrics.ObserveIngestion(time.Since(start), metrics.OutcomeRejected)
			writeError(w, http.StatusBadRequest, "invalid_payload", err.Error())
		default:
			metrics.ObserveIngestion(time.Since(start), metrics.OutcomeError)
			h.logger.Error("Failed to ingest coverage webhook", err, "repository", payload.Repository.FullName)
			writeError(w, http.StatusInternalServerError, "ingestion_failed", "failed to process webhook")
		}
		return
	}

	metrics.ObserveIngestion(time.Since(start), metrics.OutcomeSuccess)
	if result.Metrics != nil {
		metrics.ObserveRelease(result.Metrics.ReleaseConfidence, result.RiskScore, result.Metrics.RiskLevel.String())
	}

	middleware.WriteJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"result":  result,
	})
}
