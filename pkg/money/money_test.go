package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestToCents(t *testing.T) {
	assert.Equal(t, int64(-575), ToCents(decimal.RequireFromString("-5.75"), USD))
	assert.Equal(t, int64(120000), ToCents(decimal.RequireFromString("1200.00"), USD))
	// Unknown currencies fall back to USD's two fraction digits.
	assert.Equal(t, int64(100), ToCents(decimal.RequireFromString("1.00"), "XXX"))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "-$5.75", Format(decimal.RequireFromString("-5.75"), USD))
	assert.Equal(t, "$1,200.00", Format(decimal.RequireFromString("1200"), USD))
}

func TestSum(t *testing.T) {
	total := Sum([]decimal.Decimal{
		decimal.RequireFromString("-5.75"),
		decimal.RequireFromString("10.00"),
	})
	assert.True(t, total.Equal(decimal.RequireFromString("4.25")))
}
