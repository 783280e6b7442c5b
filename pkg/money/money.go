// Package money provides display formatting and cent conversion for canonical
// transaction amounts. Amounts flow through the pipeline as decimals; this
// package is the boundary where they become currency-aware values.
package money

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// USD is the only currency statement exports currently carry.
const USD = "USD"

// ToCents converts a decimal amount to minor units for the given currency.
func ToCents(amount decimal.Decimal, currencyCode string) int64 {
	currency := money.GetCurrency(currencyCode)
	if currency == nil {
		currency = money.GetCurrency(USD)
	}
	multiplier := decimal.New(1, int32(currency.Fraction))
	return amount.Mul(multiplier).Round(0).IntPart()
}

// Format renders a decimal amount as a display string, e.g. "-$5.75".
func Format(amount decimal.Decimal, currencyCode string) string {
	return money.New(ToCents(amount, currencyCode), currencyCode).Display()
}

// Sum totals a list of decimal amounts.
func Sum(amounts []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
