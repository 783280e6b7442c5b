// Package repository provides data access for ingested transactions and
// import jobs. The storage layer enforces both dedup tiers with unique
// indexes, as defense in depth against races the in-memory pass cannot see.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerlift/ledgerlift/internal/domain/ingest/canonical"
)

// Import job statuses.
const (
	JobRunning   = "running"
	JobSucceeded = "succeeded"
	JobFailed    = "failed"
)

// DedupKey is the (source_ref, fingerprint) pair of one persisted transaction,
// used to seed the dedup engine before a batch is evaluated.
type DedupKey struct {
	Institution canonical.Institution
	SourceRef   *string
	Fingerprint string
}

// ImportJob tracks one statement import attempt.
type ImportJob struct {
	ID             uuid.UUID
	UserID         string
	AccountID      string
	FileName       string
	Status         string
	RowsImported   int
	RowsDuplicates int
	RowsInvalid    int
	ErrorMessage   *string
	RequestedAt    time.Time
	FinishedAt     *time.Time
}

// IngestRepository defines data access operations for statement ingestion.
type IngestRepository interface {
	// ListDedupKeys returns a consistent snapshot of all persisted dedup keys
	// for the given user/account scope.
	ListDedupKeys(ctx context.Context, userID, accountID string) ([]DedupKey, error)

	// InsertTransactions stores a batch, relying on the unique constraints to
	// drop rows a concurrent import won the race for. Returns the number of
	// rows actually inserted. Imports for the same user/account are
	// serialized by a per-account lock.
	InsertTransactions(ctx context.Context, userID, accountID string, txns []canonical.Transaction) (int, error)

	// Import jobs
	CreateImportJob(ctx context.Context, job *ImportJob) error
	FinishImportJob(ctx context.Context, id uuid.UUID, status string, imported, duplicates, invalid int, errorMessage *string) error

	// RefreshImportStats rebuilds the per-account import stats view.
	RefreshImportStats(ctx context.Context) error
}
