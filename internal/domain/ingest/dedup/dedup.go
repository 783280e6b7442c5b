// Package dedup decides which transactions in an import batch are new and
// which duplicate previously seen records. Two uniqueness tiers apply: an
// institution-provided source reference when present, and the content
// fingerprint otherwise. The scan is a single linear pass in batch order;
// the first occurrence of a duplicate pair wins.
package dedup

import (
	"strings"

	"github.com/ledgerlift/ledgerlift/internal/domain/ingest/canonical"
)

// SeenSet tracks the dedup keys of all transactions observed so far, both
// persisted and earlier in the current batch.
type SeenSet struct {
	sourceRefs   map[string]bool
	fingerprints map[string]bool
}

// NewSeenSet returns an empty seen-key set.
func NewSeenSet() *SeenSet {
	return &SeenSet{
		sourceRefs:   make(map[string]bool),
		fingerprints: make(map[string]bool),
	}
}

// SourceRefKey composes the tier-one uniqueness key. Only meaningful when the
// source reference is non-empty after trimming.
func SourceRefKey(userID, accountID string, institution canonical.Institution, source, sourceRef string) string {
	return strings.Join([]string{userID, accountID, string(institution), source, sourceRef}, "|")
}

// FingerprintKey composes the tier-two uniqueness key.
func FingerprintKey(userID, accountID, fingerprint string) string {
	return strings.Join([]string{userID, accountID, fingerprint}, "|")
}

// AddSourceRefKey records a composed source-ref key as seen.
func (s *SeenSet) AddSourceRefKey(key string) {
	s.sourceRefs[key] = true
}

// AddFingerprintKey records a composed fingerprint key as seen.
func (s *SeenSet) AddFingerprintKey(key string) {
	s.fingerprints[key] = true
}

// Add records both applicable keys of a transaction.
func (s *SeenSet) Add(tx canonical.Transaction) {
	if ref, ok := sourceRef(tx); ok {
		s.sourceRefs[SourceRefKey(tx.UserID, tx.AccountID, tx.Institution, tx.Source, ref)] = true
	}
	s.fingerprints[FingerprintKey(tx.UserID, tx.AccountID, tx.Fingerprint)] = true
}

// Seen reports whether the transaction duplicates any recorded key. The
// source-ref tier takes priority: a matching reference is a duplicate even
// when the fingerprint differs (e.g. a corrected description).
func (s *SeenSet) Seen(tx canonical.Transaction) bool {
	if ref, ok := sourceRef(tx); ok {
		if s.sourceRefs[SourceRefKey(tx.UserID, tx.AccountID, tx.Institution, tx.Source, ref)] {
			return true
		}
	}
	return s.fingerprints[FingerprintKey(tx.UserID, tx.AccountID, tx.Fingerprint)]
}

// Partition walks the batch in original order and splits it into imported and
// duplicate transactions against (and updating) the seen set. Keys of newly
// imported transactions become visible immediately, so within-batch duplicates
// are caught as well.
func Partition(incoming []canonical.Transaction, seen *SeenSet) canonical.DedupResult {
	result := canonical.DedupResult{
		Imported:          make([]canonical.Transaction, 0, len(incoming)),
		SkippedDuplicates: make([]canonical.Transaction, 0),
	}

	for _, tx := range incoming {
		if seen.Seen(tx) {
			result.SkippedDuplicates = append(result.SkippedDuplicates, tx)
			continue
		}
		seen.Add(tx)
		result.Imported = append(result.Imported, tx)
	}

	result.ImportedCount = len(result.Imported)
	result.SkippedDuplicatesCount = len(result.SkippedDuplicates)
	return result
}

// Dedup seeds the seen set from persisted transactions and partitions the
// incoming batch against it.
func Dedup(incoming, persisted []canonical.Transaction) canonical.DedupResult {
	seen := NewSeenSet()
	for _, tx := range persisted {
		seen.Add(tx)
	}
	return Partition(incoming, seen)
}

func sourceRef(tx canonical.Transaction) (string, bool) {
	if tx.SourceRef == nil {
		return "", false
	}
	ref := strings.TrimSpace(*tx.SourceRef)
	return ref, ref != ""
}
