// Package canonical defines the normalized transaction shape produced by the
// statement ingestion pipeline, along with the account context and metadata
// structures that travel with it. Values are created once by the canonicalizer
// and never mutated afterwards.
package canonical

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Institution identifies the issuing bank of a statement export.
type Institution string

const (
	InstitutionBofA  Institution = "boa"
	InstitutionChase Institution = "chase"
)

// AccountType classifies the account a statement belongs to.
type AccountType string

const (
	AccountChecking   AccountType = "checking"
	AccountSavings    AccountType = "savings"
	AccountCreditCard AccountType = "credit_card"
)

// SourceCSV marks transactions originating from a CSV statement import.
const SourceCSV = "csv"

// AccountContext describes the account a statement file was exported from.
// It is derived once per file and treated as immutable afterwards.
type AccountContext struct {
	Institution Institution `json:"institution"`
	AccountType AccountType `json:"account_type"`
	AccountID   string      `json:"account_id"`
	AccountName string      `json:"account_name"`
}

// Transaction is the canonical, institution-agnostic representation of one
// imported financial movement. Optional fields use pointers: nil means the
// source file carried no value for them.
type Transaction struct {
	Institution  Institution     `json:"institution"`
	Source       string          `json:"source"`
	AccountType  AccountType     `json:"account_type"`
	PostedDate   string          `json:"posted_date"` // ISO YYYY-MM-DD
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"` // raw, trimmed; kept for display
	BankCategory *string         `json:"bank_category,omitempty"`
	SourceRef    *string         `json:"source_ref,omitempty"`
	Fingerprint  string          `json:"fingerprint"`
	UserID       string          `json:"user_id"`
	AccountID    string          `json:"account_id"`
}

// DedupResult partitions an import batch into newly imported transactions and
// duplicates of already-seen records. Counts mirror the slice lengths.
type DedupResult struct {
	Imported               []Transaction `json:"imported"`
	SkippedDuplicates      []Transaction `json:"skipped_duplicates"`
	ImportedCount          int           `json:"imported_count"`
	SkippedDuplicatesCount int           `json:"skipped_duplicates_count"`
}

// Metadata is an ordered mapping of lowercase trimmed keys to trimmed values,
// built from the statement lines preceding the detected header row.
type Metadata struct {
	keys   []string
	values map[string]string
}

// NewMetadata returns an empty metadata block.
func NewMetadata() *Metadata {
	return &Metadata{values: make(map[string]string)}
}

// Set stores a key/value pair. Keys are lowercased and trimmed; a repeated key
// overwrites the previous value but keeps its original position.
func (m *Metadata) Set(key, value string) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = strings.TrimSpace(value)
}

// Get returns the value for key and whether it is present.
func (m *Metadata) Get(key string) (string, bool) {
	v, ok := m.values[strings.ToLower(strings.TrimSpace(key))]
	return v, ok
}

// First returns the value of the first present key from the given candidates.
func (m *Metadata) First(keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := m.Get(k); ok {
			return v, true
		}
	}
	return "", false
}

// Keys returns the keys in insertion order.
func (m *Metadata) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Values returns all values in insertion order.
func (m *Metadata) Values() []string {
	out := make([]string, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, m.values[k])
	}
	return out
}

// Len reports the number of stored keys.
func (m *Metadata) Len() int {
	return len(m.keys)
}
