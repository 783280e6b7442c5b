package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerlift/ledgerlift/internal/domain/ingest/canonical"
)

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *PostgresIngestRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewPostgresIngestRepository(mock)
}

func TestListDedupKeys(t *testing.T) {
	mock, repo := newMockRepo(t)

	ref := "REF-001"
	mock.ExpectQuery(`SELECT institution, source_ref, fingerprint`).
		WithArgs("u1", "boa-checking-6789").
		WillReturnRows(pgxmock.NewRows([]string{"institution", "source_ref", "fingerprint"}).
			AddRow(canonical.InstitutionBofA, &ref, "fp-1").
			AddRow(canonical.InstitutionBofA, (*string)(nil), "fp-2"))

	keys, err := repo.ListDedupKeys(context.Background(), "u1", "boa-checking-6789")

	require.NoError(t, err)
	require.Len(t, keys, 2)
	require.NotNil(t, keys[0].SourceRef)
	assert.Equal(t, "REF-001", *keys[0].SourceRef)
	assert.Nil(t, keys[1].SourceRef)
	assert.Equal(t, "fp-2", keys[1].Fingerprint)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertTransactions(t *testing.T) {
	t.Run("counts only rows that survived the unique constraints", func(t *testing.T) {
		mock, repo := newMockRepo(t)

		txns := []canonical.Transaction{
			{
				Institution: canonical.InstitutionBofA,
				Source:      canonical.SourceCSV,
				AccountType: canonical.AccountChecking,
				PostedDate:  "2026-01-02",
				Amount:      decimal.RequireFromString("-5.75"),
				Description: "COFFEE SHOP",
				Fingerprint: "fp-1",
				UserID:      "u1",
				AccountID:   "boa-checking-6789",
			},
			{
				Institution: canonical.InstitutionBofA,
				Source:      canonical.SourceCSV,
				AccountType: canonical.AccountChecking,
				PostedDate:  "2026-01-03",
				Amount:      decimal.RequireFromString("-12.00"),
				Description: "LUNCH",
				Fingerprint: "fp-2",
				UserID:      "u1",
				AccountID:   "boa-checking-6789",
			},
		}

		mock.ExpectBegin()
		mock.ExpectExec(`pg_advisory_xact_lock`).
			WithArgs("u1|boa-checking-6789").
			WillReturnResult(pgxmock.NewResult("SELECT", 1))
		mock.ExpectExec(`INSERT INTO transactions`).
			WithArgs(pgxmock.AnyArg(), "u1", "boa-checking-6789", canonical.InstitutionBofA,
				canonical.SourceCSV, canonical.AccountChecking, "2026-01-02", "-5.75",
				"COFFEE SHOP", (*string)(nil), (*string)(nil), "fp-1").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec(`INSERT INTO transactions`).
			WithArgs(pgxmock.AnyArg(), "u1", "boa-checking-6789", canonical.InstitutionBofA,
				canonical.SourceCSV, canonical.AccountChecking, "2026-01-03", "-12",
										"LUNCH", (*string)(nil), (*string)(nil), "fp-2").
			WillReturnResult(pgxmock.NewResult("INSERT", 0)) // lost the race, conflict
		mock.ExpectCommit()

		inserted, err := repo.InsertTransactions(context.Background(), "u1", "boa-checking-6789", txns)

		require.NoError(t, err)
		assert.Equal(t, 1, inserted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no-ops on an empty batch", func(t *testing.T) {
		mock, repo := newMockRepo(t)

		inserted, err := repo.InsertTransactions(context.Background(), "u1", "a", nil)

		require.NoError(t, err)
		assert.Zero(t, inserted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFinishImportJob(t *testing.T) {
	mock, repo := newMockRepo(t)
	id := uuid.New()

	mock.ExpectExec(`UPDATE import_jobs`).
		WithArgs(id, JobSucceeded, 3, 1, 2, (*string)(nil)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.FinishImportJob(context.Background(), id, JobSucceeded, 3, 1, 2, nil)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
