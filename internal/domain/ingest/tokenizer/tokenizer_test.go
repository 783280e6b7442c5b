package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	t.Run("splits lines and fields", func(t *testing.T) {
		lines, err := Tokenize("a,b,c\n1,2,3")

		require.NoError(t, err)
		require.Len(t, lines, 2)
		assert.Equal(t, []string{"a", "b", "c"}, lines[0])
		assert.Equal(t, []string{"1", "2", "3"}, lines[1])
	})

	t.Run("strips carriage returns and drops blank lines", func(t *testing.T) {
		lines, err := Tokenize("a,b\r\n\r\n  \r\nc,d\r\n")

		require.NoError(t, err)
		require.Len(t, lines, 2)
		assert.Equal(t, []string{"c", "d"}, lines[1])
	})

	t.Run("handles quoted fields with commas", func(t *testing.T) {
		lines, err := Tokenize(`01/02/2026,"COFFEE, SHOP",-5.75`)

		require.NoError(t, err)
		assert.Equal(t, []string{"01/02/2026", "COFFEE, SHOP", "-5.75"}, lines[0])
	})

	t.Run("unescapes doubled quotes inside quoted fields", func(t *testing.T) {
		lines, err := Tokenize(`"say ""hi""",x`)

		require.NoError(t, err)
		assert.Equal(t, []string{`say "hi"`, "x"}, lines[0])
	})

	t.Run("rejects unterminated quoted field", func(t *testing.T) {
		_, err := Tokenize(`a,"unterminated`)

		assert.ErrorIs(t, err, ErrUnterminatedQuote)
	})

	t.Run("rejects empty input", func(t *testing.T) {
		for _, raw := range []string{"", "\n\n", "  \r\n  "} {
			_, err := Tokenize(raw)
			assert.ErrorIs(t, err, ErrEmptyFile)
		}
	})

	t.Run("keeps empty trailing field", func(t *testing.T) {
		lines, err := Tokenize("a,b,")

		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", ""}, lines[0])
	})
}
