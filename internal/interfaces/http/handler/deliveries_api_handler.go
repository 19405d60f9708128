package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dreschagin/release-confidence/internal/application/usecase"
	"github.com/dreschagin/release-confidence/internal/interfaces/http/middleware"
	"github.com/dreschagin/release-confidence/pkg/logger"
)

// DeliveriesAPIHandler отдает журнал доставок webhook
type DeliveriesAPIHandler struct {
	list   *usecase.ListWebhookDeliveriesUseCase
	logger *logger.Logger
}

func NewDeliveriesAPIHandler(list *usecase.ListWebhookDeliveriesUseCase, log *logger.Logger) *DeliveriesAPIHandler {
	return &DeliveriesAPIHandler{list: list, logger: log}
}

// List GET /api/v1/webhooks/deliveries?repository=&cursor=&limit=&from=&to=
func (h *DeliveriesAPIHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
		return
	}

	from, err := parseTimeParam(q.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_from", "from must be RFC3339")
		return
	}
	to, err := parseTimeParam(q.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_to", "to must be RFC3339")
		return
	}

	page, err := h.list.Execute(r.Context(), usecase.ListWebhookDeliveriesQuery{
		Repository: q.Get("repository"),
		Limit:      limit,
		Cursor:     q.Get("cursor"),
		From:       from,
		To:         to,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidDeliveryQuery):
			writeError(w, http.StatusBadRequest, "invalid_query", err.Error())
		case errors.Is(err, usecase.ErrDeliveryLogDisabled):
			writeError(w, http.StatusServiceUnavailable, "disabled", err.Error())
		default:
			h.logger.Error("Failed to list webhook deliveries", err)
			writeError(w, http.StatusInternalServerError, "internal", "failed to fetch deliveries")
		}
		return
	}

	middleware.WriteJSON(w, http.StatusOK, page)
}

func parseTimeParam(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, raw)
}
