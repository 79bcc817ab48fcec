package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStorageLifecycle(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.EnsureDir(ctx, "certificates"))
	name, err := store.Save(ctx, "certificates/alice_12345.png", []byte("png-bytes"))
	require.NoError(t, err)
	require.Equal(t, "certificates/alice_12345.png", name)

	ok, err := store.Exists(ctx, name)
	require.NoError(t, err)
	require.True(t, ok)

	rc, err := store.Open(ctx, name)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	require.Equal(t, "png-bytes", string(data))

	require.NoError(t, store.Delete(ctx, name))
	ok, err = store.Exists(ctx, name)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = store.Open(ctx, name)
	require.ErrorIs(t, err, ErrObjectNotFound)

	// deleting twice is harmless
	require.NoError(t, store.Delete(ctx, name))
}

func TestLocalStorageConfinesPaths(t *testing.T) {
	base := t.TempDir()
	store, err := NewLocalStorage(base)
	require.NoError(t, err)

	_, err = store.Save(context.Background(), "../../escape.png", []byte("x"))
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(base, "escape.png"))
	require.NoError(t, statErr)
	require.Equal(t, filepath.Join(base, "escape.png"), store.Path("../../escape.png"))
}
