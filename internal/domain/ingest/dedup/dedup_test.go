package dedup

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerlift/ledgerlift/internal/domain/ingest/canonical"
)

func tx(userID, accountID, date, amount, desc string) canonical.Transaction {
	return canonical.Transaction{
		Institution: canonical.InstitutionBofA,
		Source:      canonical.SourceCSV,
		AccountType: canonical.AccountChecking,
		PostedDate:  date,
		Amount:      decimal.RequireFromString(amount),
		Description: desc,
		UserID:      userID,
		AccountID:   accountID,
		Fingerprint: Fingerprint(userID, accountID, date, amount, desc),
	}
}

func TestFingerprint(t *testing.T) {
	t.Run("is deterministic", func(t *testing.T) {
		a := Fingerprint("u1", "boa-checking", "2026-01-02", "-5.75", "coffee shop")
		b := Fingerprint("u1", "boa-checking", "2026-01-02", "-5.75", "coffee shop")

		assert.Equal(t, a, b)
		assert.Len(t, a, 64)
		assert.Regexp(t, "^[0-9a-f]{64}$", a)
	})

	t.Run("changes with any input field", func(t *testing.T) {
		base := Fingerprint("u1", "acct", "2026-01-02", "-5.75", "coffee")

		assert.NotEqual(t, base, Fingerprint("u2", "acct", "2026-01-02", "-5.75", "coffee"))
		assert.NotEqual(t, base, Fingerprint("u1", "other", "2026-01-02", "-5.75", "coffee"))
		assert.NotEqual(t, base, Fingerprint("u1", "acct", "2026-01-03", "-5.75", "coffee"))
		assert.NotEqual(t, base, Fingerprint("u1", "acct", "2026-01-02", "-5.76", "coffee"))
		assert.NotEqual(t, base, Fingerprint("u1", "acct", "2026-01-02", "-5.75", "tea"))
	})

	t.Run("keeps fields distinguishable across the join", func(t *testing.T) {
		// Shifting a character between adjacent fields must not collide.
		a := Fingerprint("u1", "ab", "c", "1", "x")
		b := Fingerprint("u1", "a", "bc", "1", "x")

		assert.NotEqual(t, a, b)
	})
}

func TestDedup(t *testing.T) {
	t.Run("is idempotent across repeated imports", func(t *testing.T) {
		batch := []canonical.Transaction{
			tx("u1", "boa-checking", "2026-01-02", "-5.75", "coffee"),
			tx("u1", "boa-checking", "2026-01-03", "-12.00", "lunch"),
			tx("u1", "boa-checking", "2026-01-04", "2500.00", "payroll"),
		}

		first := Dedup(batch, nil)
		assert.Equal(t, 3, first.ImportedCount)
		assert.Equal(t, 0, first.SkippedDuplicatesCount)

		second := Dedup(batch, first.Imported)
		assert.Equal(t, 0, second.ImportedCount)
		assert.Equal(t, 3, second.SkippedDuplicatesCount)
	})

	t.Run("catches within-batch duplicates, first occurrence wins", func(t *testing.T) {
		a := tx("u1", "boa-checking", "2026-01-02", "-5.75", "coffee")
		b := tx("u1", "boa-checking", "2026-01-02", "-5.75", "coffee")

		result := Dedup([]canonical.Transaction{a, b}, nil)

		require.Equal(t, 1, result.ImportedCount)
		require.Equal(t, 1, result.SkippedDuplicatesCount)
		assert.Equal(t, a, result.Imported[0])
	})

	t.Run("source ref match wins over differing fingerprints", func(t *testing.T) {
		ref := "REF-001"
		persisted := tx("u1", "boa-credit_card", "2026-01-02", "-5.75", "coffee")
		persisted.SourceRef = &ref

		// Same reference, corrected description, so a different fingerprint.
		incoming := tx("u1", "boa-credit_card", "2026-01-02", "-5.75", "coffee shop llc")
		incoming.SourceRef = &ref
		require.NotEqual(t, persisted.Fingerprint, incoming.Fingerprint)

		result := Dedup([]canonical.Transaction{incoming}, []canonical.Transaction{persisted})

		assert.Equal(t, 0, result.ImportedCount)
		assert.Equal(t, 1, result.SkippedDuplicatesCount)
	})

	t.Run("blank source ref falls back to fingerprint tier", func(t *testing.T) {
		blank := "   "
		a := tx("u1", "boa-checking", "2026-01-02", "-5.75", "coffee")
		a.SourceRef = &blank
		b := tx("u1", "boa-checking", "2026-01-03", "-9.00", "books")
		b.SourceRef = &blank

		result := Dedup([]canonical.Transaction{a, b}, nil)

		// Two distinct transactions: an empty ref must not collide them.
		assert.Equal(t, 2, result.ImportedCount)
	})

	t.Run("scopes keys by user and account", func(t *testing.T) {
		mine := tx("u1", "boa-checking", "2026-01-02", "-5.75", "coffee")
		theirs := tx("u2", "boa-checking", "2026-01-02", "-5.75", "coffee")

		result := Dedup([]canonical.Transaction{theirs}, []canonical.Transaction{mine})

		assert.Equal(t, 1, result.ImportedCount)
	})

	t.Run("batch order does not change fingerprints", func(t *testing.T) {
		a := tx("u1", "boa-checking", "2026-01-02", "-5.75", "coffee")
		b := tx("u1", "boa-checking", "2026-01-03", "-12.00", "lunch")

		forward := Dedup([]canonical.Transaction{a, b}, nil)
		reversed := Dedup([]canonical.Transaction{b, a}, nil)

		assert.Equal(t, a.Fingerprint, forward.Imported[0].Fingerprint)
		assert.Equal(t, a.Fingerprint, reversed.Imported[1].Fingerprint)
	})
}
