package handler

import (
	"errors"
	"net/http"

	"github.com/dreschagin/release-confidence/internal/application/usecase"
	"github.com/dreschagin/release-confidence/internal/domain/repository"
	"github.com/dreschagin/release-confidence/internal/interfaces/view"
	"github.com/dreschagin/release-confidence/pkg/logger"
)

// DashboardHandler обрабатывает запросы к dashboard
type DashboardHandler struct {
	latest usecase.LatestReleaseGetter
	logger *logger.Logger
}

// NewDashboardHandler создает новый handler
func NewDashboardHandler(latest usecase.LatestReleaseGetter, logger *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		latest: latest,
		logger: logger,
	}
}

// ShowDashboard отображает последний релиз владельца
func (h *DashboardHandler) ShowDashboard(w http.ResponseWriter, r *http.Request) {
	data := view.DashboardData{Owner: ownerFromRequest(r)}
	if data.Owner != "" {
		latest, err := h.latest.Execute(r.Context(), data.Owner)
		switch {
		case err == nil:
			data.Latest = latest
		case errors.Is(err, repository.ErrReleaseNotFound):
		default:
			h.logger.Error("Failed to get latest release", err, "owner", data.Owner)
			http.Error(w, "Failed to load release", http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := view.Dashboard(data).Render(r.Context(), w); err != nil {
		h.logger.Error("Failed to render dashboard", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
}
