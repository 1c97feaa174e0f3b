// Package identity resolves and persists the opaque value that keys a
// learner's quiz sessions. The value is a device fingerprint when one
// can be derived, otherwise a random UUID; either way it is persisted
// locally and reused until cleared.
package identity

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/denisbrodbeck/machineid"
	"github.com/google/uuid"
)

// appID salts the machine fingerprint so the value is not portable
// across applications.
const appID = "kartusoal"

// Store persists one identity value across runs.
type Store interface {
	// Get returns the stored identity, if any.
	Get() (string, bool)
	// GetOrCreate returns the stored identity, deriving and persisting
	// a new one if none exists.
	GetOrCreate() (string, error)
	// Clear forgets the stored identity.
	Clear() error
}

// FileStore keeps the identity in a single file under the user's
// config directory.
type FileStore struct {
	path string

	// fingerprint derives a device-bound identity. Replaceable in tests.
	fingerprint func() (string, error)
}

// NewFileStore returns a FileStore rooted at the user config dir.
func NewFileStore() (*FileStore, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}
	return NewFileStoreAt(filepath.Join(base, appID)), nil
}

// NewFileStoreAt returns a FileStore rooted at an explicit directory.
func NewFileStoreAt(dir string) *FileStore {
	return &FileStore{
		path: filepath.Join(dir, "identity"),
		fingerprint: func() (string, error) {
			return machineid.ProtectedID(appID)
		},
	}
}

func (f *FileStore) Get() (string, bool) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return "", false
	}
	id := strings.TrimSpace(string(data))
	if id == "" {
		return "", false
	}
	return id, true
}

// GetOrCreate returns the persisted identity, deriving one first if
// needed. A fingerprint failure falls back to a random UUID and is
// never surfaced: the identity only has to be stable, not meaningful.
func (f *FileStore) GetOrCreate() (string, error) {
	if id, ok := f.Get(); ok {
		return id, nil
	}

	id, err := f.fingerprint()
	if err != nil || id == "" {
		id = uuid.NewString()
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return "", fmt.Errorf("create identity dir: %w", err)
	}
	if err := os.WriteFile(f.path, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("write identity: %w", err)
	}
	return id, nil
}

// Clear removes the stored identity. Clearing an absent identity is
// not an error.
func (f *FileStore) Clear() error {
	err := os.Remove(f.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear identity: %w", err)
	}
	return nil
}
