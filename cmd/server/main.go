package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	// Application
	"github.com/dreschagin/release-confidence/internal/application/port"
	"github.com/dreschagin/release-confidence/internal/application/usecase"

	// Domain
	"github.com/dreschagin/release-confidence/internal/domain/repository"
	"github.com/dreschagin/release-confidence/internal/domain/service"

	// Infrastructure
	redisCache "github.com/dreschagin/release-confidence/internal/infrastructure/cache/redis"
	natsInfra "github.com/dreschagin/release-confidence/internal/infrastructure/messaging/nats"
	wsInfra "github.com/dreschagin/release-confidence/internal/infrastructure/notification/websocket"
	"github.com/dreschagin/release-confidence/internal/infrastructure/observability/cloudwatch"
	dynamodbRepo "github.com/dreschagin/release-confidence/internal/infrastructure/persistence/dynamodb"
	"github.com/dreschagin/release-confidence/internal/infrastructure/persistence/memory"
	"github.com/dreschagin/release-confidence/internal/infrastructure/persistence/postgres"
	s3storage "github.com/dreschagin/release-confidence/internal/infrastructure/storage/s3"
	"github.com/dreschagin/release-confidence/internal/metrics"

	// Interfaces
	httpInterface "github.com/dreschagin/release-confidence/internal/interfaces/http"
	"github.com/dreschagin/release-confidence/internal/interfaces/http/handler"
	"github.com/dreschagin/release-confidence/internal/interfaces/http/middleware"

	// Shared
	"github.com/dreschagin/release-confidence/pkg/config"
	"github.com/dreschagin/release-confidence/pkg/logger"
)

type stores struct {
	releases     repository.ReleaseRepository
	repositories repository.RepositoryRepository
	risks        repository.RiskRepository
	ready        httpInterface.ReadinessCheck
	db           *sql.DB
}

func main() {
	// 1. Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Инициализируем logger
	log := logger.New(os.Getenv("LOG_LEVEL"))

	var logsPublisher *cloudwatch.LogsPublisher
	if cfg.CloudWatch.LogsEnabled {
		logsPublisher, err = cloudwatch.NewLogsPublisher(ctx, cloudwatch.LogsPublisherConfig{
			LogGroupName:  cfg.CloudWatch.LogGroup,
			LogStreamName: cfg.CloudWatch.LogStream,
			Region:        cfg.CloudWatch.Region,
			Endpoint:      cfg.CloudWatch.Endpoint,
			AutoCreate:    true,
		})
		if err != nil {
			log.Error("Failed to initialize CloudWatch logs publisher", err)
			os.Exit(1)
		}
		log = log.WithSink(logsPublisher)
	}

	log.Info("Starting Release Confidence API", "environment", cfg.CloudWatch.Environment)

	// 3. Хранилище релизов
	st, err := openStores(ctx, cfg.Database, log)
	if err != nil {
		log.Error("Failed to initialize storage", err)
		os.Exit(1)
	}
	if st.db != nil {
		defer st.db.Close()
	}

	// 4. Dependency Injection - Infrastructure Layer

	var cache port.Cache
	if cfg.Redis.Enabled {
		c, initErr := redisCache.NewRedisCache(ctx, cfg.Redis)
		if initErr != nil {
			log.Error("Failed to connect to Redis", initErr)
			os.Exit(1)
		}
		defer c.Close()
		cache = c
		log.Info("Redis cache enabled", "ttl", cfg.Redis.TTL.String())
	} else {
		log.Warn("Redis cache is disabled")
	}

	var events port.EventPublisher
	if cfg.NATS.Enabled {
		publisher, initErr := natsInfra.NewNATSPublisher(cfg.NATS.URL, log)
		if initErr != nil {
			log.Error("Failed to connect to NATS", initErr)
			os.Exit(1)
		}
		defer publisher.Close()
		events = publisher
	}

	var archive port.PayloadArchive
	if cfg.S3.Enabled {
		a, initErr := s3storage.NewPayloadArchive(ctx, cfg.S3)
		if initErr != nil {
			log.Error("Failed to initialize payload archive", initErr)
			os.Exit(1)
		}
		archive = a
		log.Info("Payload archive enabled", "bucket", cfg.S3.Bucket)
	} else {
		log.Warn("S3 archive is disabled, raw payloads will not be stored")
	}

	var deliveryLog port.WebhookLogRepository
	if cfg.DynamoDB.Enabled {
		repo, initErr := dynamodbRepo.NewWebhookLogRepository(ctx, cfg.DynamoDB)
		if initErr != nil {
			log.Error("Failed to initialize webhook delivery log", initErr)
			os.Exit(1)
		}
		deliveryLog = repo
	}

	var metricsPublisher *cloudwatch.MetricsPublisher
	if cfg.CloudWatch.MetricsEnabled {
		metricsPublisher, err = cloudwatch.NewMetricsPublisher(ctx, cloudwatch.MetricsPublisherConfig{
			Namespace:         cfg.CloudWatch.Namespace,
			Region:            cfg.CloudWatch.Region,
			Endpoint:          cfg.CloudWatch.Endpoint,
			DefaultDimensions: map[string]string{"Environment": cfg.CloudWatch.Environment},
		}, log)
		if err != nil {
			log.Error("Failed to initialize CloudWatch metrics publisher", err)
			os.Exit(1)
		}
	}

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		log.Error("Failed to register Prometheus collectors", err)
		os.Exit(1)
	}

	// WebSocket Hub
	hub := wsInfra.NewHub(log)

	// 5. Dependency Injection - Application Layer (Use Cases)

	deps := usecase.IngestCoverageDeps{
		Releases:     st.releases,
		Repositories: st.repositories,
		Archive:      archive,
		Events:       events,
		Notifier:     hub,
		Cache:        cache,
		WebhookLog:   deliveryLog,
	}
	// nil-указатель в интерфейсе не равен nil
	if metricsPublisher != nil {
		deps.Metrics = metricsPublisher
	}

	ingestUC := usecase.NewIngestCoverageUseCase(deps, service.NewReleaseEvaluator(), usecase.IngestCoverageConfig{
		ArchiveKeyPrefix: cfg.S3.KeyPrefix,
		EventSubject:     cfg.NATS.Subject,
	}, log)

	var latestUC usecase.LatestReleaseGetter = usecase.NewGetLatestReleaseUseCase(st.releases, st.risks, log)
	if cache != nil {
		latestUC = usecase.NewGetLatestReleaseCachedUseCase(latestUC, cache, log)
	}
	listUC := usecase.NewListReleasesUseCase(st.releases, cache, log)
	detailUC := usecase.NewGetReleaseDetailUseCase(st.releases, st.repositories, st.risks, archive, log)
	deliveriesUC := usecase.NewListWebhookDeliveriesUseCase(deliveryLog)

	// 6. Dependency Injection - Interfaces Layer (HTTP Handlers)

	authConfig := middleware.AuthConfig{
		Enabled:     cfg.Security.AuthEnabled,
		BearerToken: cfg.Security.AuthToken,
	}
	if cfg.Webhook.Secret == "" {
		log.Warn("WEBHOOK_SECRET is empty, webhook signatures are not verified")
	}

	router := httpInterface.NewRouter(
		httpInterface.Handlers{
			Dashboard:       handler.NewDashboardHandler(latestUC, log),
			WebSocket:       handler.NewWebSocketHandler(hub, cfg.Security.AllowedOrigins, log),
			Webhook:         handler.NewWebhookHandler(ingestUC, log),
			Releases:        handler.NewReleaseAPIHandler(latestUC, listUC, detailUC, log),
			Deliveries:      handler.NewDeliveriesAPIHandler(deliveriesUC, log),
			Auth:            handler.NewAuthAPIHandler(authConfig, log),
			ReleaseAnalyzer: handler.NewReleaseAnalyzerAPIHandler(cfg.Analyzer.BaseURL, cfg.Analyzer.Timeout, log),
		},
		cfg.Security,
		cfg.Webhook,
		st.ready,
		prometheus.DefaultGatherer,
		log,
	)
	defer router.Close()

	// 7. Запускаем фоновые процессы

	go hub.Run(ctx)
	log.Info("WebSocket hub started")

	// 8. Настраиваем HTTP сервер

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info("HTTP server starting", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", err)
			os.Exit(1)
		}
	}()

	// 9. Ожидаем сигнал для graceful shutdown

	<-sigChan
	log.Info("Shutdown signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", err)
	}

	cancel()

	if metricsPublisher != nil {
		if err := metricsPublisher.Close(shutdownCtx); err != nil {
			log.Error("Failed to flush CloudWatch metrics", err)
		}
	}

	log.Info("Server stopped gracefully")

	// логгер пишет в sink до последней строки
	if logsPublisher != nil {
		_ = logsPublisher.Close(shutdownCtx)
	}
}

func openStores(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*stores, error) {
	if cfg.Driver == "memory" {
		log.Warn("Using in-memory release storage, data is lost on restart")
		store := memory.NewStore()
		return &stores{
			releases:     store.Releases(),
			repositories: store.Repositories(),
			risks:        store.Risks(),
		}, nil
	}

	db, err := postgres.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.Info("Database connected successfully")

	if cfg.RunMigrations {
		if err := postgres.RunMigrations(db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("Database migrations applied")
	}

	return &stores{
		releases:     postgres.NewPostgresReleaseRepository(db),
		repositories: postgres.NewPostgresRepositoryRepository(db),
		risks:        postgres.NewPostgresRiskRepository(db),
		ready:        db.PingContext,
		db:           db,
	}, nil
}
