package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("round-trips an archived statement", func(t *testing.T) {
		info, err := store.Upload(ctx, "user-1", "stmt.csv", "text/csv", strings.NewReader("Date,Amount\n"))
		require.NoError(t, err)
		assert.Equal(t, "stmt.csv", info.Name)
		assert.Equal(t, int64(12), info.Size)

		r, err := store.GetReader(ctx, "user-1", info.ID)
		require.NoError(t, err)
		defer r.Close()
		data, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, "Date,Amount\n", string(data))
	})

	t.Run("lists per user", func(t *testing.T) {
		_, err := store.Upload(ctx, "user-2", "a.csv", "text/csv", strings.NewReader("a"))
		require.NoError(t, err)

		files, err := store.List(ctx, "user-2")
		require.NoError(t, err)
		assert.Len(t, files, 1)

		files, err = store.List(ctx, "user-3")
		require.NoError(t, err)
		assert.Empty(t, files)
	})

	t.Run("deletes file and metadata", func(t *testing.T) {
		info, err := store.Upload(ctx, "user-4", "b.csv", "text/csv", strings.NewReader("b"))
		require.NoError(t, err)

		require.NoError(t, store.Delete(ctx, "user-4", info.ID))
		_, err = store.GetInfo(ctx, "user-4", info.ID)
		assert.Error(t, err)
	})

	t.Run("sanitizes hostile filenames", func(t *testing.T) {
		info, err := store.Upload(ctx, "user-5", "../../etc/passwd", "text/csv", strings.NewReader("x"))
		require.NoError(t, err)
		assert.NotContains(t, info.Path, "..")
		assert.NotContains(t, info.Path, "/")
	})
}
