package service

import (
	"fmt"
	"io"

	"github.com/ledgerlift/ledgerlift/internal/domain/ingest/parser"
)

// ReadStatement reads an uploaded statement into the raw text the pipeline
// consumes. CSV uploads pass through untouched; workbook uploads are
// flattened to equivalent CSV-shaped text first.
func ReadStatement(r io.Reader, filename string) (string, error) {
	if parser.IsWorkbook(filename) {
		return parser.ReadWorkbook(r)
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read %q: %w", filename, err)
	}
	return string(raw), nil
}
