package qr

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	root := t.TempDir()
	store, err := NewFileStore(root)
	require.NoError(t, err)
	ctx := context.Background()

	code := "6f1d3c2a-8b7e-4c55-9a0e-2b1f4d3e5a6b"
	path, err := store.Path(code)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "qr-codes", code+".png"), path)

	ok, err := store.Exists(ctx, code)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, code, []byte("png-bytes")))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)

	// overwrite replaces the whole file
	require.NoError(t, store.Put(ctx, code, []byte("v2")))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), data)

	entries, err := os.ReadDir(filepath.Join(root, "qr-codes"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")

	require.NoError(t, store.Remove(ctx, code))
	ok, err = store.Exists(ctx, code)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, store.Remove(ctx, code), "removing a missing image is not an error")
}

func TestFileStoreRejectsBadKeys(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../escape", "a/b", "with space"} {
		err := store.Put(context.Background(), key, []byte("x"))
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestFileStoreCancelledContext(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, store.Put(ctx, "abc", []byte("x")), context.Canceled)
}
