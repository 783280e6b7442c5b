// Package normalizer converts statement data rows into canonical
// transactions. Date and amount parsing is strict and locale-aware: statement
// exports use M/D/YYYY dates, optional parenthesis-negative amounts, and US
// thousands separators. Rows that are not transactions (balance markers,
// unparseable cells) are skipped and counted, never partially emitted.
package normalizer

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerlift/ledgerlift/internal/domain/ingest/canonical"
	"github.com/ledgerlift/ledgerlift/internal/domain/ingest/dedup"
	"github.com/ledgerlift/ledgerlift/internal/domain/ingest/mapper"
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidAmount = errors.New("invalid amount")
)

// ReferenceNumberColumn names the statement column that carries an
// institution-provided stable transaction id on credit card exports.
const ReferenceNumberColumn = "reference number"

var (
	statementDateRe    = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	beginningBalanceRe = regexp.MustCompile(`(?i)^beginning\s+balance$`)
	whitespaceRe       = regexp.MustCompile(`\s+`)
)

// ParseStatementDate parses a strict M/D/YYYY date (month/day 1-2 digits,
// year exactly 4) and returns it as ISO YYYY-MM-DD. The reconstructed calendar
// date must round-trip exactly, which rejects overflows like 02/30/2026.
func ParseStatementDate(raw string) (string, error) {
	m := statementDateRe.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}

	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}

	return t.Format("2006-01-02"), nil
}

// ParseAmount parses a statement amount cell into a signed decimal.
// Parenthesis notation means negative; currency symbols and thousands
// separators are stripped. An empty cell is invalid.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}

	if negative {
		d = d.Neg()
	}
	return d, nil
}

// NormalizeDescription produces the fingerprint form of a description:
// trimmed, lowercased, internal whitespace runs collapsed to one space.
// It is never stored as the display description.
func NormalizeDescription(raw string) string {
	return whitespaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(raw)), " ")
}

// IsBalanceMarker reports whether a description identifies a non-transaction
// row such as "Beginning Balance", in any case or spacing.
func IsBalanceMarker(description string) bool {
	return beginningBalanceRe.MatchString(strings.TrimSpace(description))
}

// Canonicalize converts data rows into canonical transactions using the
// resolved column mapping and account context. Rows that fail strict parsing
// or are balance markers are skipped; the second return value counts them.
// No per-row skip reason is distinguished.
func Canonicalize(
	rows [][]string,
	headers []string,
	mapping mapper.Mapping,
	acct canonical.AccountContext,
	userID string,
) ([]canonical.Transaction, int) {
	dateIdx := columnIndex(headers, mapping.Column(mapper.FieldDate))
	amountIdx := columnIndex(headers, mapping.Column(mapper.FieldAmount))
	descIdx := columnIndex(headers, mapping.Column(mapper.FieldDescription))
	categoryIdx := columnIndex(headers, mapping.Column(mapper.FieldBankCategory))

	refIdx := -1
	if acct.AccountType == canonical.AccountCreditCard {
		refIdx = caseInsensitiveIndex(headers, ReferenceNumberColumn)
	}

	txns := make([]canonical.Transaction, 0, len(rows))
	skipped := 0

	for _, row := range rows {
		rawAmount := cell(row, amountIdx)
		description := strings.TrimSpace(cell(row, descIdx))

		if strings.TrimSpace(rawAmount) == "" || IsBalanceMarker(description) {
			skipped++
			continue
		}

		postedDate, err := ParseStatementDate(cell(row, dateIdx))
		if err != nil {
			skipped++
			continue
		}

		amount, err := ParseAmount(rawAmount)
		if err != nil {
			skipped++
			continue
		}

		if description == "" {
			skipped++
			continue
		}

		tx := canonical.Transaction{
			Institution: acct.Institution,
			Source:      canonical.SourceCSV,
			AccountType: acct.AccountType,
			PostedDate:  postedDate,
			Amount:      amount,
			Description: description,
			UserID:      userID,
			AccountID:   acct.AccountID,
		}

		if categoryIdx >= 0 {
			if v := strings.TrimSpace(cell(row, categoryIdx)); v != "" {
				tx.BankCategory = &v
			}
		}
		if refIdx >= 0 {
			if v := strings.TrimSpace(cell(row, refIdx)); v != "" {
				tx.SourceRef = &v
			}
		}

		tx.Fingerprint = dedup.Fingerprint(
			userID, acct.AccountID, postedDate, amount.String(), NormalizeDescription(description))

		txns = append(txns, tx)
	}

	return txns, skipped
}

func columnIndex(headers []string, name string) int {
	if name == "" {
		return -1
	}
	for i, h := range headers {
		if h == name {
			return i
		}
	}
	return -1
}

func caseInsensitiveIndex(headers []string, name string) int {
	for i, h := range headers {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
