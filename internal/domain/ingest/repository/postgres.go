package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ledgerlift/ledgerlift/internal/domain/ingest/canonical"
)

// DB is the subset of pgxpool.Pool the repository needs. Declared as an
// interface so tests can substitute a pgxmock pool.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresIngestRepository implements IngestRepository using PostgreSQL.
type PostgresIngestRepository struct {
	db DB
}

// NewPostgresIngestRepository creates a PostgreSQL-backed ingest repository.
func NewPostgresIngestRepository(db DB) *PostgresIngestRepository {
	return &PostgresIngestRepository{db: db}
}

// ListDedupKeys returns all persisted (source_ref, fingerprint) pairs for the
// user/account scope.
func (r *PostgresIngestRepository) ListDedupKeys(ctx context.Context, userID, accountID string) ([]DedupKey, error) {
	query := `
		SELECT institution, source_ref, fingerprint
		FROM transactions
		WHERE user_id = $1 AND account_id = $2
	`

	rows, err := r.db.Query(ctx, query, userID, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list dedup keys: %w", err)
	}
	defer rows.Close()

	var keys []DedupKey
	for rows.Next() {
		var key DedupKey
		if err := rows.Scan(&key.Institution, &key.SourceRef, &key.Fingerprint); err != nil {
			return nil, fmt.Errorf("failed to scan dedup key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// InsertTransactions stores the batch inside a single transaction guarded by a
// per-account advisory lock, so two concurrent imports for the same scope
// cannot both believe a record is new. ON CONFLICT DO NOTHING on the unique
// indexes makes each row insert idempotent; the whole batch commits or rolls
// back together, so partial application is never observable.
func (r *PostgresIngestRepository) InsertTransactions(ctx context.Context, userID, accountID string, txns []canonical.Transaction) (int, error) {
	if len(txns) == 0 {
		return 0, nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	lockKey := userID + "|" + accountID
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, lockKey); err != nil {
		return 0, fmt.Errorf("failed to acquire account lock: %w", err)
	}

	query := `
		INSERT INTO transactions (
			id, user_id, account_id, institution, source, account_type,
			posted_date, amount, description, bank_category, source_ref, fingerprint
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT DO NOTHING
	`

	inserted := 0
	for _, t := range txns {
		tag, err := tx.Exec(ctx, query,
			uuid.New(), t.UserID, t.AccountID, t.Institution, t.Source, t.AccountType,
			t.PostedDate, t.Amount.String(), t.Description, t.BankCategory, t.SourceRef, t.Fingerprint,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert transaction: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transactions: %w", err)
	}
	return inserted, nil
}

// CreateImportJob records a new running import job.
func (r *PostgresIngestRepository) CreateImportJob(ctx context.Context, job *ImportJob) error {
	query := `
		INSERT INTO import_jobs (id, user_id, account_id, file_name, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING requested_at
	`

	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Status == "" {
		job.Status = JobRunning
	}

	err := r.db.QueryRow(ctx, query, job.ID, job.UserID, job.AccountID, job.FileName, job.Status).
		Scan(&job.RequestedAt)
	if err != nil {
		return fmt.Errorf("failed to create import job: %w", err)
	}
	return nil
}

// FinishImportJob records the final status and counts of an import job.
func (r *PostgresIngestRepository) FinishImportJob(ctx context.Context, id uuid.UUID, status string, imported, duplicates, invalid int, errorMessage *string) error {
	query := `
		UPDATE import_jobs
		SET status = $2, rows_imported = $3, rows_duplicates = $4,
		    rows_invalid = $5, error_message = $6, finished_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.Exec(ctx, query, id, status, imported, duplicates, invalid, errorMessage)
	if err != nil {
		return fmt.Errorf("failed to finish import job: %w", err)
	}
	return nil
}

// RefreshImportStats rebuilds the account_import_stats materialized view.
func (r *PostgresIngestRepository) RefreshImportStats(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `REFRESH MATERIALIZED VIEW account_import_stats`)
	if err != nil {
		return fmt.Errorf("failed to refresh import stats: %w", err)
	}
	return nil
}
