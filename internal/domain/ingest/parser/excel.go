// Package parser adapts workbook uploads to the logical-line text the CSV
// pipeline consumes. Exported statements arrive as either .csv or .xlsx; the
// tokenizer only understands the former, so workbooks are flattened here.
package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrNoSheet is returned when a workbook has no usable worksheet.
var ErrNoSheet = fmt.Errorf("workbook has no usable sheet")

// WorkbookExtensions lists the upload extensions routed through ReadWorkbook.
var WorkbookExtensions = []string{".xlsx", ".xlsm"}

// IsWorkbook reports whether the filename looks like a spreadsheet upload.
func IsWorkbook(filename string) bool {
	lower := strings.ToLower(filename)
	for _, ext := range WorkbookExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// ReadWorkbook flattens the transaction sheet of a workbook into CSV-shaped
// text. Cells containing commas, quotes, or newlines are quoted the same way
// bank CSV exports quote them, so the downstream tokenizer sees no difference
// between an uploaded .csv and an uploaded .xlsx.
func ReadWorkbook(r io.Reader) (string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := transactionSheet(f)
	if sheet == "" {
		return "", ErrNoSheet
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return "", fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	var b strings.Builder
	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(quoteCell(cell))
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// transactionSheet prefers a sheet named "Transactions", falling back to the
// first sheet in the workbook.
func transactionSheet(f *excelize.File) string {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ""
	}
	for _, name := range sheets {
		if strings.EqualFold(name, "Transactions") {
			return name
		}
	}
	return sheets[0]
}

func quoteCell(cell string) string {
	if !strings.ContainsAny(cell, ",\"\n") {
		return cell
	}
	return `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
}
