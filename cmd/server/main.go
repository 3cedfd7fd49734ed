package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ndewijer/accumulation-tracker-backend/internal/api"
	"github.com/ndewijer/accumulation-tracker-backend/internal/config"
	"github.com/ndewijer/accumulation-tracker-backend/internal/database"
	"github.com/ndewijer/accumulation-tracker-backend/internal/feed"
	"github.com/ndewijer/accumulation-tracker-backend/internal/logger"
	"github.com/ndewijer/accumulation-tracker-backend/internal/repository"
	"github.com/ndewijer/accumulation-tracker-backend/internal/scheduler"
	"github.com/ndewijer/accumulation-tracker-backend/internal/service"
	"github.com/ndewijer/accumulation-tracker-backend/internal/valuation"
	"github.com/ndewijer/accumulation-tracker-backend/internal/version"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	appLog := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	log.Logger = appLog
	zerolog.DefaultContextLogger = &appLog

	if err := cfg.Validate(); err != nil {
		appLog.Fatal().Err(err).Msg("Invalid configuration")
	}

	if err := run(cfg, appLog); err != nil {
		appLog.Fatal().Err(err).Msg("Server failed")
	}
}

func run(cfg *config.Config, appLog zerolog.Logger) error {
	ctx := context.Background()

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}
	appLog.Info().Str("path", cfg.Database.Path).Msg("Connected to database")

	source, err := feed.New(cfg.Feed)
	if err != nil {
		return err
	}

	mode, err := valuation.ParseMode(cfg.Valuation.Mode)
	if err != nil {
		return err
	}
	opts := valuation.DefaultOptions()
	opts.BaseCurrency = cfg.Valuation.BaseCurrency
	opts.Precision = cfg.Valuation.Precision
	opts.Mode = mode

	// Create services
	historyService := service.NewHistoryService(source, opts, appLog.With().Str("component", "history").Logger())
	materializedService := service.NewMaterializedService(
		repository.NewSnapshotRepository(db),
		historyService,
		appLog.With().Str("component", "materialized").Logger(),
	)
	services := api.Services{
		System:       service.NewSystemService(db, mode, cfg.Schedule.RefreshCron != ""),
		History:      historyService,
		Materialized: materializedService,
		Position:     service.NewPositionService(source),
		Transaction:  service.NewTransactionService(source),
	}

	// Scheduled refresh of the materialized history
	sched := scheduler.New(appLog)
	if cfg.Schedule.RefreshCron != "" {
		job := scheduler.NewRefreshJob(materializedService, 2*cfg.Feed.Timeout)
		if err := sched.AddJob(cfg.Schedule.RefreshCron, job); err != nil {
			return err
		}
		go func() {
			if err := sched.RunNow(job); err != nil {
				appLog.Warn().Err(err).Msg("Initial refresh failed")
			}
		}()
	}
	sched.Start()
	defer sched.Stop()

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewRouter(services, cfg, appLog),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		appLog.Info().
			Str("addr", cfg.Server.Addr).
			Str("version", version.Version).
			Str("mode", string(mode)).
			Str("feed", cfg.Feed.Source).
			Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return err
	case <-quit:
	}

	appLog.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	appLog.Info().Msg("Server exited")
	return nil
}
