package tokenstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Get(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "T1"))
	token, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "T1", token)

	require.NoError(t, store.Clear(ctx))
	_, err = store.Get(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	// Clearing an empty slot is not an error
	assert.NoError(t, store.Clear(ctx))
}

func TestMemoryStore_Concurrent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Set(ctx, "token")
		}()
		go func() {
			defer wg.Done()
			_, _ = store.Get(ctx)
		}()
	}
	wg.Wait()

	token, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "token", token)
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "auth.json")
	store := NewFileStore(path)
	ctx := context.Background()

	_, err := store.Get(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "T1"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	dirInfo, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), dirInfo.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Equal(t, "T1", rec["token"])

	// A second store on the same path sees the persisted token
	token, err := NewFileStore(path).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "T1", token)

	require.NoError(t, store.Set(ctx, "T2"))
	token, err = store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "T2", token)

	require.NoError(t, store.Clear(ctx))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, store.Clear(ctx))
}

func TestFileStore_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "auth.json"))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "T1"))
	require.NoError(t, store.Set(ctx, "T2"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "auth.json", entries[0].Name())
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path).Get(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestFileStore_EmptyToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"token":""}`), 0o600))

	_, err := NewFileStore(path).Get(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClearIfMatches(t *testing.T) {
	ctx := context.Background()

	t.Run("matching token is cleared", func(t *testing.T) {
		store := NewMemoryStore()
		require.NoError(t, store.Set(ctx, "T1"))

		require.NoError(t, ClearIfMatches(ctx, store, "T1"))
		_, err := store.Get(ctx)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("newer token is kept", func(t *testing.T) {
		store := NewMemoryStore()
		require.NoError(t, store.Set(ctx, "T2"))

		require.NoError(t, ClearIfMatches(ctx, store, "T1"))
		token, err := store.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, "T2", token)
	})

	t.Run("empty slot", func(t *testing.T) {
		assert.NoError(t, ClearIfMatches(ctx, NewMemoryStore(), "T1"))
	})
}

func TestFingerprint(t *testing.T) {
	assert.Empty(t, Fingerprint(""))

	fp := Fingerprint("secret-token")
	assert.Len(t, fp, 16)
	assert.Equal(t, fp, Fingerprint("secret-token"))
	assert.NotEqual(t, fp, Fingerprint("other-token"))
	assert.NotContains(t, fp, "secret")
}
