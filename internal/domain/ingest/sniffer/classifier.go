package sniffer

import (
	"strings"

	"github.com/ledgerlift/ledgerlift/internal/domain/ingest/canonical"
)

// institutionRules is an ordered first-match-wins rule list. Substring
// detection over raw text, filename, and metadata is a known approximation:
// when markers for several institutions co-occur, the first rule wins.
var institutionRules = []struct {
	token       string
	institution canonical.Institution
}{
	{"chase", canonical.InstitutionChase},
}

// defaultInstitution is assumed when no rule matches.
const defaultInstitution = canonical.InstitutionBofA

// Metadata keys consulted for the account number, in priority order.
var accountNumberKeys = []string{"account number", "account #", "card number", "account"}

// Classify derives the account context for a statement file from its raw
// content, filename, detected headers, and metadata block.
func Classify(rawText, filename string, layout *Layout) canonical.AccountContext {
	institution := classifyInstitution(rawText, filename, layout.Metadata)
	accountType := classifyAccountType(layout)

	ctx := canonical.AccountContext{
		Institution: institution,
		AccountType: accountType,
		AccountID:   string(institution) + "-" + string(accountType),
		AccountName: accountName(layout.Metadata, accountType),
	}

	if number, ok := layout.Metadata.First(accountNumberKeys...); ok {
		if suffix := lastDigits(number, 4); suffix != "" {
			ctx.AccountID += "-" + suffix
		}
	}
	return ctx
}

func classifyInstitution(rawText, filename string, meta *canonical.Metadata) canonical.Institution {
	haystack := strings.ToLower(rawText) + "\n" + strings.ToLower(filename)
	for _, v := range meta.Values() {
		haystack += "\n" + strings.ToLower(v)
	}
	for _, rule := range institutionRules {
		if strings.Contains(haystack, rule.token) {
			return rule.institution
		}
	}
	return defaultInstitution
}

func classifyAccountType(layout *Layout) canonical.AccountType {
	if layout.HasColumn("reference number") {
		return canonical.AccountCreditCard
	}
	if _, ok := layout.Metadata.Get("card number"); ok {
		return canonical.AccountCreditCard
	}
	if v, ok := layout.Metadata.First("account type", "account"); ok {
		if strings.Contains(strings.ToLower(v), "saving") {
			return canonical.AccountSavings
		}
	}
	return canonical.AccountChecking
}

func accountName(meta *canonical.Metadata, accountType canonical.AccountType) string {
	if name, ok := meta.First("account name", "account"); ok && name != "" {
		return name
	}
	switch accountType {
	case canonical.AccountSavings:
		return "Savings"
	case canonical.AccountCreditCard:
		return "Credit card"
	default:
		return "Checking"
	}
}

// lastDigits extracts the digits from s and returns up to the final n of them.
// Empty when s carries no digits at all.
func lastDigits(s string, n int) string {
	var digits []rune
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) == 0 {
		return ""
	}
	if len(digits) > n {
		digits = digits[len(digits)-n:]
	}
	return string(digits)
}
