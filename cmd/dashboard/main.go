// Package main provides the entry point for the CORD-19 explorer dashboard server.
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

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fredxotic/cord19-explorer/internal/catalog"
	"github.com/fredxotic/cord19-explorer/internal/config"
	"github.com/fredxotic/cord19-explorer/internal/explorer"
	"github.com/fredxotic/cord19-explorer/internal/observability"
	httpserver "github.com/fredxotic/cord19-explorer/internal/server/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "dashboard").Logger()
	logger.Info().Msg("cord19-explorer dashboard starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open the run catalog. The dashboard serves every view without one, so
	// catalog trouble only costs run history.
	var (
		store *catalog.Store
		runs  catalog.RunRepository
	)
	if cfg.Catalog.Path != "" {
		store, err = catalog.Open(cfg.Catalog.Path, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("run catalog unavailable, continuing without history")
			store = nil
		} else if cfg.Catalog.MigrationAutoRun {
			if err := store.Migrate(); err != nil {
				logger.Warn().Err(err).Msg("catalog migration failed, continuing without history")
				store.Close()
				store = nil
			}
		}
		if store != nil {
			defer store.Close()
			runs = catalog.NewSQLiteRunRepository(store.DB())
		}
	}

	// Create metrics if enabled.
	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics("cord19")
	}

	// Create the explorer service backing every dashboard view.
	service := explorer.NewService(explorer.Config{
		Dataset:  cfg.Dataset,
		Analysis: cfg.Analysis,
	}, runs, metrics, logger)

	httpCfg := httpserver.Config{
		Address:         cfg.Server.HTTPAddress(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     2 * time.Minute,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}
	srv := httpserver.NewServer(httpCfg, service, runs, store, metrics, logger)

	// Set up Prometheus metrics handler on a separate port if configured.
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Metrics.Path, promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress(),
			Handler:      metricsMux,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}
	}

	// Channel to collect server errors.
	errCh := make(chan error, 2)

	// Start dashboard server in background.
	go func() {
		logger.Info().
			Str("address", httpCfg.Address).
			Msg("dashboard server starting")
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("dashboard server error: %w", err)
		}
	}()

	// Start metrics server if configured.
	if metricsServer != nil {
		go func() {
			logger.Info().
				Str("address", metricsServer.Addr).
				Msg("metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	readyLog := logger.Info().
		Str("http_address", httpCfg.Address).
		Str("dataset_dir", cfg.Dataset.Dir).
		Str("dataset_mode", cfg.Dataset.Mode)
	if metricsServer != nil {
		readyLog = readyLog.Str("metrics_address", metricsServer.Addr)
	}
	readyLog.Msg("cord19-explorer dashboard is ready")

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	// Graceful shutdown.
	logger.Info().Msg("shutting down cord19-explorer dashboard")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("dashboard server shutdown error")
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown error")
		}
	}

	logger.Info().Msg("cord19-explorer dashboard shutdown complete")
	return nil
}
