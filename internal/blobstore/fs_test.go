package blobstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStoreRoundTrip(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Get(ctx, "clients.json")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(ctx, "clients.json", []byte(`[{"id":"1"}]`)))

	data, err := store.Get(ctx, "clients.json")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"1"}]`, string(data))

	existed, err := store.Delete(ctx, "clients.json")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = store.Delete(ctx, "clients.json")
	require.NoError(t, err)
	assert.False(t, existed)

	_, err = store.Get(ctx, "clients.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFSStorePutReplaces(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "doc.json", []byte(`{"v":1}`)))
	require.NoError(t, store.Put(ctx, "doc.json", []byte(`{"v":2}`)))

	data, err := store.Get(ctx, "doc.json")
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, string(data))
}

func TestFSStoreStripsPathComponents(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFSStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "../escape.json", []byte(`{}`)))

	_, statErr := os.Stat(filepath.Join(dir, "escape.json"))
	assert.NoError(t, statErr)
	_, statErr = os.Stat(filepath.Join(filepath.Dir(dir), "escape.json"))
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestFSStoreCancelledContext(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.Get(ctx, "doc.json")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Error(t, store.Put(ctx, "doc.json", []byte(`{}`)))
}
