package http

import (
	"context"
	"io/fs"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dreschagin/release-confidence/internal/interfaces/http/handler"
	"github.com/dreschagin/release-confidence/internal/interfaces/http/middleware"
	"github.com/dreschagin/release-confidence/pkg/config"
	"github.com/dreschagin/release-confidence/pkg/logger"
)

// Handlers обработчики, которые подключает Router
type Handlers struct {
	Dashboard       *handler.DashboardHandler
	WebSocket       *handler.WebSocketHandler
	Webhook         *handler.WebhookHandler
	Releases        *handler.ReleaseAPIHandler
	Deliveries      *handler.DeliveriesAPIHandler
	Auth            *handler.AuthAPIHandler
	ReleaseAnalyzer *handler.ReleaseAnalyzerAPIHandler
}

// ReadinessCheck проверяет зависимости для /readyz (например, ping БД)
type ReadinessCheck func(ctx context.Context) error

// Router настраивает маршруты приложения
type Router struct {
	mux         *http.ServeMux
	handlers    Handlers
	security    config.SecurityConfig
	webhook     config.WebhookConfig
	ready       ReadinessCheck
	gatherer    prometheus.Gatherer
	rateLimiter *middleware.IPRateLimiter
	logger      *logger.Logger
}

// NewRouter создает новый router; ready и gatherer могут быть nil
func NewRouter(
	handlers Handlers,
	security config.SecurityConfig,
	webhook config.WebhookConfig,
	ready ReadinessCheck,
	gatherer prometheus.Gatherer,
	logger *logger.Logger,
) *Router {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Router{
		mux:         http.NewServeMux(),
		handlers:    handlers,
		security:    security,
		webhook:     webhook,
		ready:       ready,
		gatherer:    gatherer,
		rateLimiter: middleware.NewIPRateLimiter(webhook.RateLimitPerMinute, webhook.RateLimitPerMinute/4+1),
		logger:      logger,
	}
}

// Setup настраивает все маршруты
func (rt *Router) Setup() http.Handler {
	// Static assets are embedded into the binary.
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic("failed to initialize embedded static assets: " + err.Error())
	}
	rt.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	// Health endpoints are intentionally unauthenticated for probes.
	rt.mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	rt.mux.HandleFunc("/readyz", rt.readyz)
	rt.mux.Handle("/metrics", promhttp.HandlerFor(rt.gatherer, promhttp.HandlerOpts{}))

	authMiddleware := middleware.Auth(middleware.AuthConfig{
		Enabled:     rt.security.AuthEnabled,
		BearerToken: rt.security.AuthToken,
	}, rt.logger)
	api := func(h http.HandlerFunc) http.Handler {
		return authMiddleware(middleware.Compression(h))
	}

	// Dashboard. {$} не дает корню перехватывать API с чужим методом
	rt.mux.Handle("GET /{$}", authMiddleware(http.HandlerFunc(rt.handlers.Dashboard.ShowDashboard)))

	// WebSocket
	rt.mux.Handle("GET /ws", authMiddleware(http.HandlerFunc(rt.handlers.WebSocket.HandleConnection)))

	// Auth
	rt.mux.HandleFunc("POST /api/v1/auth/login", rt.handlers.Auth.Login)
	rt.mux.HandleFunc("POST /api/v1/auth/logout", rt.handlers.Auth.Logout)
	rt.mux.HandleFunc("GET /api/v1/auth/status", rt.handlers.Auth.Status)

	// CI webhook: подпись вместо bearer token
	var webhook http.Handler = http.HandlerFunc(rt.handlers.Webhook.HandleCoverage)
	webhook = middleware.WebhookSignature(rt.webhook.Secret, rt.logger)(webhook)
	webhook = middleware.BodyLimit(rt.webhook.MaxPayloadBytes)(webhook)
	webhook = middleware.RateLimit(rt.rateLimiter)(webhook)
	rt.mux.Handle("POST /api/v1/webhooks/coverage", webhook)

	// Releases
	rt.mux.Handle("GET /api/v1/releases/latest", api(rt.handlers.Releases.GetLatest))
	rt.mux.Handle("GET /api/v1/releases/{id}", api(rt.handlers.Releases.GetDetail))
	rt.mux.Handle("GET /api/v1/releases", api(rt.handlers.Releases.List))
	rt.mux.Handle("GET /api/v1/webhooks/deliveries", api(rt.handlers.Deliveries.List))

	// Release analyzer
	rt.mux.Handle("GET /api/v1/release-analyzer/summary", authMiddleware(http.HandlerFunc(rt.handlers.ReleaseAnalyzer.GetSummary)))
	rt.mux.Handle("POST /api/v1/release-analyzer/run", authMiddleware(http.HandlerFunc(rt.handlers.ReleaseAnalyzer.RunNow)))

	// Применяем middleware
	var handler http.Handler = rt.mux
	handler = middleware.Logger(rt.logger)(handler)
	handler = middleware.Recovery(rt.logger)(handler)

	return handler
}

// Close останавливает фоновые задачи router
func (rt *Router) Close() {
	rt.rateLimiter.Stop()
}

func (rt *Router) readyz(w http.ResponseWriter, r *http.Request) {
	if rt.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := rt.ready(ctx); err != nil {
			rt.logger.Warn("Readiness check failed", "error", err.Error())
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
