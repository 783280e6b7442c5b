package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ledgerlift/ledgerlift/internal/domain/ingest/handler"
	"github.com/ledgerlift/ledgerlift/internal/domain/ingest/repository"
	"github.com/ledgerlift/ledgerlift/internal/domain/ingest/service"
	"github.com/ledgerlift/ledgerlift/pkg/config"
	"github.com/ledgerlift/ledgerlift/pkg/cron"
	"github.com/ledgerlift/ledgerlift/pkg/db"
	"github.com/ledgerlift/ledgerlift/pkg/metrics"
	"github.com/ledgerlift/ledgerlift/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger

	Registry *prometheus.Registry

	IngestRepo    repository.IngestRepository
	IngestService *service.IngestService
	IngestHandler *handler.IngestHandler
	FileStorage   storage.Storage

	Scheduler *cron.Scheduler
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
	}

	if err := deps.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	deps.IngestRepo = repository.NewPostgresIngestRepository(deps.DB.Pool)

	deps.IngestService = service.NewIngestService(deps.IngestRepo, logger)
	if cfg.Observability.MetricsEnabled {
		deps.IngestService.WithMetrics(metrics.NewIngestMetrics(deps.Registry))
	}

	fileStorage, err := storage.New(&storage.Config{LocalPath: "./uploads"})
	if err != nil {
		return nil, fmt.Errorf("failed to init file storage: %w", err)
	}
	deps.FileStorage = fileStorage

	deps.IngestHandler = handler.NewIngestHandler(deps.IngestService, deps.FileStorage, logger)

	deps.Scheduler = cron.NewScheduler(deps.IngestRepo, cfg.Jobs.StatsRefreshSpec, logger)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase() error {
	database, err := db.New(db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        int32(d.Config.Database.MaxConns),
		MinConns:        5,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database

	if err := d.DB.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
