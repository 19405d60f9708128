package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dreschagin/release-confidence/internal/infrastructure/persistence/postgres"
	"github.com/dreschagin/release-confidence/internal/metrics"
	"github.com/dreschagin/release-confidence/internal/releaseanalyzer"
	"github.com/dreschagin/release-confidence/pkg/config"
	"github.com/dreschagin/release-confidence/pkg/logger"
)

func main() {
	baseCfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load base config: %v\n", err)
		os.Exit(1)
	}

	analyzerCfg, err := releaseanalyzer.LoadConfigFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load analyzer config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(os.Getenv("LOG_LEVEL"))
	log.Info(
		"Starting release analyzer",
		"interval", analyzerCfg.Interval.String(),
		"port", analyzerCfg.Port,
		"warning_confidence", analyzerCfg.Thresholds.WarningConfidence,
		"critical_confidence", analyzerCfg.Thresholds.CriticalConfidence,
	)

	// анализатору хватает небольшого пула
	dbCfg := baseCfg.Database
	dbCfg.MaxOpenConns = 5
	dbCfg.MaxIdleConns = 2

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Open(ctx, dbCfg)
	if err != nil {
		log.Error("Failed to connect to database", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		log.Error("Failed to register Prometheus collectors", err)
		os.Exit(1)
	}

	service := releaseanalyzer.NewService(postgres.NewPostgresReleaseRepository(db), analyzerCfg.Thresholds)
	runner := releaseanalyzer.NewRunner(service, log, analyzerCfg.Interval)
	handler := releaseanalyzer.NewHandler(runner)

	if _, err := runner.RunOnce(ctx); err != nil {
		log.Error("Initial analyzer cycle failed", err)
	}

	go runner.Start(ctx)

	server := &http.Server{
		Addr:         ":" + analyzerCfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		log.Info("Release analyzer HTTP server started", "port", analyzerCfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Release analyzer HTTP server failed", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutdown signal received")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Release analyzer HTTP server shutdown failed", err)
	}

	log.Info("Release analyzer stopped")
}
