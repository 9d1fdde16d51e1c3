package session

import (
	"os"
	"path/filepath"
	"sync"
)

// Store is one credential storage tier: a flat string key/value space.
// Two implementations exist — FileStore (durable across restarts) and
// MemStore (gone when the process exits). The manager picks the tier at
// write time and resolves it at read time from the remember-me flag, so
// tier selection never leaks into call sites.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

// FileStore persists one file per key under a directory, following the
// token-file convention of CLI clients (~/.fleetdeck/<key>, mode 0600).
type FileStore struct {
	dir string
}

// NewFileStore creates a durable store rooted at dir. The directory is
// created lazily on first write.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// DefaultFileStore places the store under the user's config directory.
func DefaultFileStore() (*FileStore, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	return NewFileStore(filepath.Join(base, "fleetdeck")), nil
}

// Get reads a key. A missing or unreadable file is an absent key.
func (s *FileStore) Get(key string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(s.dir, key))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Set writes a key with owner-only permissions.
func (s *FileStore) Set(key, value string) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, key), []byte(value), 0600)
}

// Delete removes a key. Removing an absent key is not an error.
func (s *FileStore) Delete(key string) error {
	err := os.Remove(filepath.Join(s.dir, key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// MemStore is the ephemeral tier: values live only for the current process,
// the CLI analog of tab-scoped browser storage.
type MemStore struct {
	mu   sync.Mutex
	vals map[string]string
}

// NewMemStore creates an empty ephemeral store.
func NewMemStore() *MemStore {
	return &MemStore{vals: make(map[string]string)}
}

// Get reads a key.
func (s *MemStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vals[key]
	return v, ok
}

// Set writes a key.
func (s *MemStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vals[key] = value
	return nil
}

// Delete removes a key.
func (s *MemStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.vals, key)
	return nil
}
