// Package tokenizer splits raw statement text into logical lines and parses
// each line into fields with strict quoted-field handling. Bank exports are
// messy enough (stray blank lines, CRLF endings, quoted commas) that the rules
// here are deliberately explicit rather than delegated to encoding/csv.
package tokenizer

import (
	"errors"
	"strings"
)

var (
	// ErrEmptyFile is returned when the input contains no non-empty lines.
	ErrEmptyFile = errors.New("file is empty")
	// ErrUnterminatedQuote is returned when a line ends inside a quoted field.
	ErrUnterminatedQuote = errors.New("unterminated quoted field")
)

// Tokenize splits raw file text into trimmed, non-empty logical lines and
// parses each into fields. Carriage returns are stripped, blank lines dropped.
func Tokenize(raw string) ([][]string, error) {
	raw = strings.ReplaceAll(raw, "\r", "")

	var lines [][]string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields, err := splitFields(line)
		if err != nil {
			return nil, err
		}
		lines = append(lines, fields)
	}

	if len(lines) == 0 {
		return nil, ErrEmptyFile
	}
	return lines, nil
}

// splitFields parses one line into comma-separated fields. A double quote
// toggles quoted mode; two consecutive quotes inside quoted mode emit one
// literal quote; a comma outside quoted mode ends the field.
func splitFields(line string) ([]string, error) {
	var (
		fields   []string
		field    strings.Builder
		inQuotes bool
	)

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				field.WriteRune('"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			fields = append(fields, field.String())
			field.Reset()
		default:
			field.WriteRune(c)
		}
	}

	if inQuotes {
		return nil, ErrUnterminatedQuote
	}

	fields = append(fields, field.String())
	return fields, nil
}
