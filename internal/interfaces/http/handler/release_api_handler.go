package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dreschagin/release-confidence/internal/application/usecase"
	"github.com/dreschagin/release-confidence/internal/domain/repository"
	"github.com/dreschagin/release-confidence/internal/interfaces/http/middleware"
	"github.com/dreschagin/release-confidence/pkg/logger"
)

const latestCacheControl = "public, s-maxage=300, stale-while-revalidate"

// ReleaseAPIHandler обрабатывает API запросы для релизов
type ReleaseAPIHandler struct {
	latest usecase.LatestReleaseGetter
	list   *usecase.ListReleasesUseCase
	detail *usecase.GetReleaseDetailUseCase
	logger *logger.Logger
}

func NewReleaseAPIHandler(
	latest usecase.LatestReleaseGetter,
	list *usecase.ListReleasesUseCase,
	detail *usecase.GetReleaseDetailUseCase,
	logger *logger.Logger,
) *ReleaseAPIHandler {
	return &ReleaseAPIHandler{
		latest: latest,
		list:   list,
		detail: detail,
		logger: logger,
	}
}

// GetLatest GET /api/v1/releases/latest
func (h *ReleaseAPIHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromRequest(r)
	if owner == "" {
		writeError(w, http.StatusBadRequest, "owner_required", "owner is required")
		return
	}

	resp, err := h.latest.Execute(r.Context(), owner)
	if err != nil {
		if errors.Is(err, repository.ErrReleaseNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "no releases found")
			return
		}
		h.logger.Error("Failed to get latest release", err, "owner", owner)
		writeError(w, http.StatusInternalServerError, "internal", "failed to fetch release")
		return
	}

	w.Header().Set("Cache-Control", latestCacheControl)
	middleware.WriteJSON(w, http.StatusOK, resp)
}

// List GET /api/v1/releases?page=&limit=
func (h *ReleaseAPIHandler) List(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromRequest(r)
	if owner == "" {
		writeError(w, http.StatusBadRequest, "owner_required", "owner is required")
		return
	}

	page, err := queryInt(r, "page")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_page", "page must be an integer")
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
		return
	}

	resp, err := h.list.Execute(r.Context(), owner, page, limit)
	if err != nil {
		h.logger.Error("Failed to list releases", err, "owner", owner)
		writeError(w, http.StatusInternalServerError, "internal", "failed to fetch releases")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, resp)
}

// GetDetail GET /api/v1/releases/{id}
func (h *ReleaseAPIHandler) GetDetail(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "id_required", "release id is required")
		return
	}

	resp, err := h.detail.Execute(r.Context(), ownerFromRequest(r), id)
	if err != nil {
		if errors.Is(err, repository.ErrReleaseNotFound) || errors.Is(err, repository.ErrRepositoryNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "release not found")
			return
		}
		h.logger.Error("Failed to get release detail", err, "release_id", id)
		writeError(w, http.StatusInternalServerError, "internal", "failed to fetch release")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, resp)
}
