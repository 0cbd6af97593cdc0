// Package tokenstore persists the single session token that survives
// restarts.
//
// The store is one key-value slot. It is written after a successful login,
// read when the application starts, and cleared on logout, on any 401 from
// the identity service, and when revalidation fails. Both the HTTP client
// and the auth operations receive the same Store so tests can substitute
// MemoryStore.
package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/zeebo/blake3"
)

// ErrNotFound is returned by Get when no token is stored.
var ErrNotFound = errors.New("no token stored")

// Store is the persisted token slot.
//
// Implementations must be safe for concurrent use. Clear on an empty slot
// returns nil.
type Store interface {
	// Get returns the stored token or ErrNotFound.
	Get(ctx context.Context) (string, error)

	// Set replaces the stored token.
	Set(ctx context.Context, token string) error

	// Clear removes the stored token.
	Clear(ctx context.Context) error
}

// ClearIfMatches clears the slot only while it still holds token. It is used
// to roll back a token this process wrote without deleting a newer one.
func ClearIfMatches(ctx context.Context, s Store, token string) error {
	current, err := s.Get(ctx)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if current != token {
		return nil
	}
	return s.Clear(ctx)
}

// Fingerprint returns a short blake3 digest of token that is safe to log.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	sum := blake3.Sum256([]byte(token))
	return fmt.Sprintf("%x", sum[:8])
}

// MemoryStore keeps the token in process memory.
//
// Used by tests and by the memory backend, where nothing survives a restart.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get returns the stored token.
func (m *MemoryStore) Get(ctx context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token == "" {
		return "", ErrNotFound
	}
	return m.token, nil
}

// Set stores token. An empty token clears the slot.
func (m *MemoryStore) Set(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

// Clear removes the token.
func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

// fileRecord is the on-disk layout of FileStore.
type fileRecord struct {
	Token   string    `json:"token"`
	SavedAt time.Time `json:"saved_at"`
}

// FileStore keeps the token in a JSON file readable only by the owner.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store backed by path. The file and its directory
// are created on first Set.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

// Get reads the token from disk.
func (f *FileStore) Get(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("read token file: %w", err)
	}

	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return "", fmt.Errorf("decode token file %s: %w", f.path, err)
	}
	if rec.Token == "" {
		return "", ErrNotFound
	}
	return rec.Token, nil
}

// Set writes the token atomically with mode 0600.
func (f *FileStore) Set(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}

	data, err := json.MarshalIndent(fileRecord{Token: token, SavedAt: time.Now().UTC()}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode token file: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".auth-*.json")
	if err != nil {
		return fmt.Errorf("create temp token file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod token file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close token file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replace token file: %w", err)
	}
	return nil
}

// Clear deletes the token file.
func (f *FileStore) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

// Compile-time verification that stores implement Store
var _ Store = (*MemoryStore)(nil)
var _ Store = (*FileStore)(nil)
var _ Store = (*RedisStore)(nil)
