package cron

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerlift/ledgerlift/internal/domain/ingest/canonical"
	"github.com/ledgerlift/ledgerlift/internal/domain/ingest/repository"
)

// refreshSpy records RefreshImportStats calls.
type refreshSpy struct {
	refreshed chan struct{}
}

func newRefreshSpy() *refreshSpy {
	return &refreshSpy{refreshed: make(chan struct{}, 1)}
}

func (s *refreshSpy) ListDedupKeys(context.Context, string, string) ([]repository.DedupKey, error) {
	return nil, nil
}

func (s *refreshSpy) InsertTransactions(context.Context, string, string, []canonical.Transaction) (int, error) {
	return 0, nil
}

func (s *refreshSpy) CreateImportJob(context.Context, *repository.ImportJob) error { return nil }

func (s *refreshSpy) FinishImportJob(context.Context, uuid.UUID, string, int, int, int, *string) error {
	return nil
}

func (s *refreshSpy) RefreshImportStats(context.Context) error {
	s.refreshed <- struct{}{}
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunNow(t *testing.T) {
	spy := newRefreshSpy()
	s := NewScheduler(spy, "30 2 * * *", testLogger())

	s.RunNow()

	select {
	case <-spy.refreshed:
	case <-time.After(2 * time.Second):
		t.Fatal("stats refresh was not triggered")
	}
}

func TestStart(t *testing.T) {
	t.Run("registers the refresh job", func(t *testing.T) {
		spy := newRefreshSpy()
		s := NewScheduler(spy, "30 2 * * *", testLogger())

		require.NoError(t, s.Start())
		defer func() { <-s.Stop().Done() }()

		assert.Len(t, s.cron.Entries(), 1)
	})

	t.Run("rejects a malformed schedule", func(t *testing.T) {
		spy := newRefreshSpy()
		s := NewScheduler(spy, "not a schedule", testLogger())

		assert.Error(t, s.Start())
	})
}
