package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dreschagin/release-confidence/pkg/logger"
)

const (
	maxReleaseAnalyzerResponseBytes = 2 << 20

	releaseAnalyzerSummaryPath = "/api/v1/release-analyzer/summary"
	releaseAnalyzerRunPath     = "/api/v1/release-analyzer/run"
)

var errAnalyzerResponseTooLarge = fmt.Errorf("release analyzer response exceeds %d bytes", maxReleaseAnalyzerResponseBytes)

// ReleaseAnalyzerAPIHandler проксирует сводку анализатора релизов в API дашборда.
// Сводка ограничивается владельцем из запроса.
type ReleaseAnalyzerAPIHandler struct {
	baseURL string
	client  *http.Client
	logger  *logger.Logger
}

func NewReleaseAnalyzerAPIHandler(baseURL string, timeout time.Duration, log *logger.Logger) *ReleaseAnalyzerAPIHandler {
	if timeout <= 0 {
		timeout = 6 * time.Second
	}

	return &ReleaseAnalyzerAPIHandler{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  log,
	}
}

// GetSummary GET /api/v1/release-analyzer/summary; передает дальше severity и owner
func (h *ReleaseAnalyzerAPIHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	query := url.Values{}
	if severity := strings.TrimSpace(r.URL.Query().Get("severity")); severity != "" {
		query.Set("severity", severity)
	}
	if owner := ownerFromRequest(r); owner != "" {
		query.Set("owner", owner)
	}

	path := releaseAnalyzerSummaryPath
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	h.proxy(r.Context(), w, http.MethodGet, path)
}

// RunNow POST /api/v1/release-analyzer/run
func (h *ReleaseAnalyzerAPIHandler) RunNow(w http.ResponseWriter, r *http.Request) {
	h.proxy(r.Context(), w, http.MethodPost, releaseAnalyzerRunPath)
}

func (h *ReleaseAnalyzerAPIHandler) proxy(ctx context.Context, w http.ResponseWriter, method, path string) {
	if h.baseURL == "" {
		writeError(w, http.StatusServiceUnavailable, "analyzer_disabled", "release analyzer base URL is not configured")
		return
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, nil)
	if err != nil {
		h.logger.Error("Failed to build release analyzer request", err, "path", path)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to build release analyzer request")
		return
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		h.logger.Error("Release analyzer request failed", err, "path", path)
		writeError(w, http.StatusBadGateway, "analyzer_unavailable", "release analyzer is unavailable")
		return
	}
	defer resp.Body.Close()

	body, err := readLimited(resp.Body, maxReleaseAnalyzerResponseBytes)
	if err != nil {
		h.logger.Error("Failed to read release analyzer response", err, "path", path)
		writeError(w, http.StatusBadGateway, "analyzer_bad_response", "failed to read release analyzer response")
		return
	}

	contentType := strings.TrimSpace(resp.Header.Get("Content-Type"))
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(body); err != nil {
		h.logger.Error("Failed to write release analyzer response", err, "path", path)
	}
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, errAnalyzerResponseTooLarge
	}
	return data, nil
}
