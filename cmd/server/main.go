// Package main provides the entry point for the citation service HTTP server.
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

	"github.com/citehub/citation-service/internal/catalogs/crossref"
	"github.com/citehub/citation-service/internal/catalogs/googlebooks"
	"github.com/citehub/citation-service/internal/citation"
	"github.com/citehub/citation-service/internal/config"
	"github.com/citehub/citation-service/internal/database"
	"github.com/citehub/citation-service/internal/observability"
	"github.com/citehub/citation-service/internal/repository"
	httpserver "github.com/citehub/citation-service/internal/server/http"
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
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("citation-service server starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL.
	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	logger.Info().Msg("database connection established")

	// Run migrations if configured.
	if cfg.Database.MigrationAutoRun {
		migrator, err := database.NewMigrator(db, cfg.Database.MigrationPath, logger)
		if err != nil {
			return fmt.Errorf("create migrator: %w", err)
		}
		defer func() {
			if closeErr := migrator.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close migrator")
			}
		}()

		if err := migrator.Up(); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	// Create repositories.
	userRepo := repository.NewPgUserRepository(db)
	sourceRepo := repository.NewPgSourceRepository(db)
	submissionRepo := repository.NewPgSubmissionRepository(db)

	// Set up Prometheus metrics if configured.
	var metrics *observability.Metrics
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(cfg.Metrics.Namespace)
		metricsPath = cfg.Metrics.Path
	}

	// Create external catalog clients for bibliographic backfill.
	var books citation.BookLookup
	if cfg.Catalogs.GoogleBooks.Enabled {
		books = googlebooks.New(googlebooks.Config{
			BaseURL:   cfg.Catalogs.GoogleBooks.BaseURL,
			APIKey:    cfg.Catalogs.GoogleBooks.APIKey,
			Timeout:   cfg.Catalogs.GoogleBooks.Timeout,
			RateLimit: cfg.Catalogs.GoogleBooks.RateLimit,
			BurstSize: cfg.Catalogs.GoogleBooks.BurstSize,
			Enabled:   true,
		})
		logger.Info().Str("catalog", "google_books").Msg("catalog backfill enabled")
	}
	var articles citation.ArticleLookup
	if cfg.Catalogs.Crossref.Enabled {
		articles = crossref.New(crossref.Config{
			BaseURL:   cfg.Catalogs.Crossref.BaseURL,
			Email:     cfg.Catalogs.Crossref.Email,
			Timeout:   cfg.Catalogs.Crossref.Timeout,
			RateLimit: cfg.Catalogs.Crossref.RateLimit,
			BurstSize: cfg.Catalogs.Crossref.BurstSize,
			Enabled:   true,
		})
		logger.Info().Str("catalog", "crossref").Msg("catalog backfill enabled")
	}

	// Create the citation resolver.
	resolver := citation.NewResolver(
		sourceRepo,
		submissionRepo,
		books,
		articles,
		citation.ResolverConfig{
			LookupTimeout: cfg.Citation.LookupTimeout,
			MaxParallel:   cfg.Citation.MaxConcurrentLookups,
		},
		logger,
		metrics,
	)

	// Create the HTTP REST API server.
	httpCfg := httpserver.Config{
		Address:         cfg.Server.HTTPAddress(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     2 * time.Minute,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		MetricsPath:     metricsPath,
	}

	httpSrv := httpserver.NewServer(
		httpCfg,
		userRepo,
		sourceRepo,
		submissionRepo,
		resolver,
		db,
		metrics,
		logger,
	)

	// Channel to collect server errors.
	errCh := make(chan error, 1)

	// Start HTTP server in background.
	go func() {
		logger.Info().
			Str("address", httpCfg.Address).
			Msg("HTTP REST API server starting")
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	logger.Info().
		Str("http_address", httpCfg.Address).
		Msg("citation-service is ready")

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	// Graceful shutdown.
	logger.Info().Msg("shutting down citation-service")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	logger.Info().Msg("citation-service shutdown complete")
	return nil
}
