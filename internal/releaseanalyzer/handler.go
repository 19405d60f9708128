package releaseanalyzer

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const runTimeout = 8 * time.Second

// Handler HTTP API анализатора: пробы, сводка последнего прогона, ручной запуск
type Handler struct {
	runner *Runner
}

func NewHandler(runner *Runner) *Handler {
	return &Handler{runner: runner}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.healthz)
	mux.HandleFunc("GET /readyz", h.readyz)
	mux.HandleFunc("GET /api/v1/release-analyzer/summary", h.summary)
	mux.HandleFunc("POST /api/v1/release-analyzer/run", h.runNow)
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	snapshot := h.runner.Snapshot()

	lastRun := ""
	if !snapshot.LastRunAt.IsZero() {
		lastRun = snapshot.LastRunAt.UTC().Format(time.RFC3339)
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":     "ok",
		"uptime":     time.Since(snapshot.StartedAt).Round(time.Second).String(),
		"last_run":   lastRun,
		"last_error": snapshot.LastError,
	})
}

// readyz: готов, если последний прогон успешен и не старше трех интервалов
func (h *Handler) readyz(w http.ResponseWriter, _ *http.Request) {
	snapshot := h.runner.Snapshot()

	reason := ""
	switch {
	case snapshot.LastRunAt.IsZero():
		reason = "no successful cycle yet"
	case time.Since(snapshot.LastRunAt) > snapshot.Interval*3:
		reason = "stale analyzer cycle"
	case snapshot.LastError != "":
		reason = "last cycle failed"
	}

	if reason != "" {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "reason": reason})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// summary: ?severity=ok|warning|critical и ?owner=<login>
func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	severity, ok := ParseSeverity(query.Get("severity"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "severity must be ok, warning or critical"})
		return
	}

	snapshot := h.runner.Snapshot()
	snapshot.LastSummary = FilterSummary(snapshot.LastSummary, query.Get("owner"), severity)

	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) runNow(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), runTimeout)
	defer cancel()

	summary, err := h.runner.RunOnce(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status": "error",
			"error":  err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(data)
}
