package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuess(t *testing.T) {
	t.Run("maps bank statement headers", func(t *testing.T) {
		m := Guess([]string{"Date", "Description", "Amount", "Running Bal."})

		assert.Equal(t, "Date", m.Column(FieldDate))
		assert.Equal(t, "Description", m.Column(FieldDescription))
		assert.Equal(t, "Amount", m.Column(FieldAmount))
		assert.Empty(t, m.Column(FieldBankCategory))
	})

	t.Run("maps card statement headers", func(t *testing.T) {
		m := Guess([]string{"Posted Date", "Payee", "Amount", "Category"})

		assert.Equal(t, "Posted Date", m.Column(FieldDate))
		assert.Equal(t, "Payee", m.Column(FieldDescription))
		assert.Equal(t, "Amount", m.Column(FieldAmount))
		assert.Equal(t, "Category", m.Column(FieldBankCategory))
	})

	t.Run("never binds the same column twice", func(t *testing.T) {
		// "Posted Date" would match both date and nothing else; "Type" must
		// not be stolen by amount since "Amount" claims it first.
		m := Guess([]string{"Posted Date", "Amount", "Payee", "Type"})

		require.NoError(t, m.Validate([]string{"Posted Date", "Amount", "Payee", "Type"}))
		assert.Equal(t, "Type", m.Column(FieldBankCategory))
	})
}

func TestMappingValidate(t *testing.T) {
	headers := []string{"Date", "Description", "Amount"}

	t.Run("accepts a complete mapping", func(t *testing.T) {
		m := Mapping{FieldDate: "Date", FieldDescription: "Description", FieldAmount: "Amount"}

		assert.NoError(t, m.Validate(headers))
	})

	t.Run("rejects missing required field", func(t *testing.T) {
		m := Mapping{FieldDate: "Date", FieldDescription: "Description"}

		assert.ErrorIs(t, m.Validate(headers), ErrMissingField)
	})

	t.Run("rejects duplicate column binding", func(t *testing.T) {
		m := Mapping{FieldDate: "Date", FieldDescription: "Date", FieldAmount: "Amount"}

		assert.ErrorIs(t, m.Validate(headers), ErrDuplicateColumn)
	})

	t.Run("rejects unknown column", func(t *testing.T) {
		m := Mapping{FieldDate: "Date", FieldDescription: "Description", FieldAmount: "Total"}

		assert.ErrorIs(t, m.Validate(headers), ErrUnknownColumn)
	})
}
