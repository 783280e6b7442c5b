// Package mapper binds canonical transaction fields to statement columns.
// A mapping starts from a heuristic guess over the header names and is
// confirmed (or corrected) by the user before canonicalization runs.
package mapper

import (
	"errors"
	"fmt"
	"strings"
)

// Canonical field names.
const (
	FieldDate         = "date"
	FieldAmount       = "amount"
	FieldDescription  = "description"
	FieldBankCategory = "bankCategory" // optional
)

// RequiredFields must all be bound before canonicalization may run.
var RequiredFields = []string{FieldDate, FieldAmount, FieldDescription}

var (
	// ErrMissingField indicates a required field has no column bound.
	ErrMissingField = errors.New("required field not mapped")
	// ErrDuplicateColumn indicates two fields are bound to the same column.
	ErrDuplicateColumn = errors.New("column mapped to more than one field")
	// ErrUnknownColumn indicates a bound column is not present in the header.
	ErrUnknownColumn = errors.New("mapped column not present in header")
)

// candidates lists header substrings that suggest each canonical field.
// Matching is case-insensitive over space-stripped header text.
var candidates = map[string][]string{
	FieldDate:         {"date", "posted"},
	FieldAmount:       {"amount", "amt", "debit", "credit"},
	FieldDescription:  {"description", "payee", "memo", "merchant"},
	FieldBankCategory: {"category", "bankcategory", "type"},
}

// guessOrder fixes the order fields claim columns in, so that e.g. the date
// column is taken before the amount heuristics get a chance to grab it.
var guessOrder = []string{FieldDate, FieldAmount, FieldDescription, FieldBankCategory}

// Mapping binds canonical field names to source column names.
type Mapping map[string]string

// Guess proposes a mapping by picking, for each canonical field, the first
// header whose normalized text contains any of the field's candidate
// substrings. Columns already claimed by an earlier field are skipped.
func Guess(headers []string) Mapping {
	m := make(Mapping)
	used := make(map[string]bool)

	for _, field := range guessOrder {
		for _, header := range headers {
			if used[header] {
				continue
			}
			norm := normalizeHeader(header)
			for _, token := range candidates[field] {
				if strings.Contains(norm, token) {
					m[field] = header
					used[header] = true
					break
				}
			}
			if _, ok := m[field]; ok {
				break
			}
		}
	}
	return m
}

// Validate checks the mapping preconditions: every required field is bound to
// a known column and no column is bound twice. A failing mapping blocks
// canonicalization; the caller is expected to re-prompt rather than abort.
func (m Mapping) Validate(headers []string) error {
	known := make(map[string]bool, len(headers))
	for _, h := range headers {
		known[h] = true
	}

	for _, field := range RequiredFields {
		if m[field] == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, field)
		}
	}

	seen := make(map[string]string, len(m))
	for field, column := range m {
		if column == "" {
			continue
		}
		if !known[column] {
			return fmt.Errorf("%w: %q", ErrUnknownColumn, column)
		}
		if prev, ok := seen[column]; ok {
			return fmt.Errorf("%w: %q bound to both %s and %s", ErrDuplicateColumn, column, prev, field)
		}
		seen[column] = field
	}
	return nil
}

// Column returns the bound column name for a field, empty when unbound.
func (m Mapping) Column(field string) string {
	return m[field]
}

func normalizeHeader(h string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "")
}
