// Package sniffer locates the header row in a tokenized statement export,
// captures the metadata block preceding it, and classifies the issuing
// institution and account from whatever context the file provides.
package sniffer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ledgerlift/ledgerlift/internal/domain/ingest/canonical"
)

// PreviewRows is the number of data rows retained for preview rendering.
// Canonicalization always runs over the full row set.
const PreviewRows = 20

// ErrNoHeader is returned when no line matches an accepted header vocabulary.
var ErrNoHeader = errors.New(
	"no header row found: expected columns including (date, description, amount) or (posted date, payee, amount)")

// Header vocabularies accepted as statement headers. A line whose normalized
// field set is a superset of either vocabulary is the header; order and extra
// columns do not matter.
var headerVocabularies = [][]string{
	{"date", "description", "amount"},
	{"posted date", "payee", "amount"},
}

// Layout describes the detected structure of a statement file.
type Layout struct {
	HeaderIndex int                 // 0-based index of the header line
	Headers     []string            // column names, placeholders for blank cells
	Metadata    *canonical.Metadata // key/value lines preceding the header
	Rows        [][]string          // all data rows, padded to the header width
	Preview     [][]string          // first PreviewRows rows of Rows
}

// HasColumn reports whether the header set contains the given column name,
// compared case-insensitively after trimming.
func (l *Layout) HasColumn(name string) bool {
	return l.ColumnIndex(name) >= 0
}

// ColumnIndex returns the position of the named column, or -1.
func (l *Layout) ColumnIndex(name string) int {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, h := range l.Headers {
		if strings.ToLower(strings.TrimSpace(h)) == name {
			return i
		}
	}
	return -1
}

// DetectLayout scans tokenized lines for the first one matching an accepted
// header vocabulary. Lines before it become the metadata block; lines after it
// become data rows padded (or truncated) to the header's column count.
func DetectLayout(lines [][]string) (*Layout, error) {
	headerIdx := -1
	for i, fields := range lines {
		if matchesVocabulary(fields) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, ErrNoHeader
	}

	meta := canonical.NewMetadata()
	for _, fields := range lines[:headerIdx] {
		if len(fields) == 0 {
			continue
		}
		// Value cells are rejoined with commas so values containing commas
		// survive the field split.
		meta.Set(fields[0], strings.Join(fields[1:], ","))
	}

	headers := make([]string, len(lines[headerIdx]))
	for i, h := range lines[headerIdx] {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Column %d", i+1)
		}
		headers[i] = h
	}

	rows := make([][]string, 0, len(lines)-headerIdx-1)
	for _, fields := range lines[headerIdx+1:] {
		rows = append(rows, padRow(fields, len(headers)))
	}

	preview := rows
	if len(preview) > PreviewRows {
		preview = preview[:PreviewRows]
	}

	return &Layout{
		HeaderIndex: headerIdx,
		Headers:     headers,
		Metadata:    meta,
		Rows:        rows,
		Preview:     preview,
	}, nil
}

// matchesVocabulary reports whether the normalized field set is a superset of
// any accepted header vocabulary.
func matchesVocabulary(fields []string) bool {
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[strings.ToLower(strings.TrimSpace(f))] = true
	}
	for _, vocab := range headerVocabularies {
		all := true
		for _, want := range vocab {
			if !set[want] {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

func padRow(fields []string, width int) []string {
	row := make([]string, width)
	for i := 0; i < width; i++ {
		if i < len(fields) {
			row[i] = fields[i]
		}
	}
	return row
}
