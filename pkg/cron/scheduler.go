// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ledgerlift/ledgerlift/internal/domain/ingest/repository"
)

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron      *cron.Cron
	repo      repository.IngestRepository
	statsSpec string
	logger    *slog.Logger
}

// NewScheduler creates a new job scheduler. statsSpec is a standard 5-field
// cron expression for the import stats refresh.
func NewScheduler(repo repository.IngestRepository, statsSpec string, logger *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:      c,
		repo:      repo,
		statsSpec: statsSpec,
		logger:    logger,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.statsSpec, s.refreshImportStats)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow manually triggers the stats refresh (for testing/admin).
func (s *Scheduler) RunNow() {
	go s.refreshImportStats()
}

// refreshImportStats rebuilds the per-account import roll-up view.
func (s *Scheduler) refreshImportStats() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	started := time.Now()
	if err := s.repo.RefreshImportStats(ctx); err != nil {
		s.logger.Error("failed to refresh import stats", slog.Any("error", err))
		return
	}

	s.logger.Info("import stats refreshed",
		slog.Duration("took", time.Since(started)),
	)
}
