package identity

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mcdev12/quizbattle/go/internal/game"
)

// ErrNotFound is returned when the store holds no identity record
var ErrNotFound = errors.New("identity not found")

// Store is the read side of the local identity store
type Store interface {
	Load() (game.Identity, error)
}

// Forgetter is implemented by stores that can drop an invalid record
type Forgetter interface {
	Forget() error
}

// FileStore keeps the identity record in a YAML file
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed store at path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the identity record
func (s *FileStore) Load() (game.Identity, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return game.Identity{}, ErrNotFound
		}
		return game.Identity{}, fmt.Errorf("failed to read identity file: %w", err)
	}

	var id game.Identity
	if err := yaml.Unmarshal(data, &id); err != nil {
		return game.Identity{}, fmt.Errorf("failed to parse identity file: %w", err)
	}
	return id, nil
}

// Save writes the identity record, creating parent directories
func (s *FileStore) Save(id game.Identity) error {
	data, err := yaml.Marshal(id)
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create identity dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write identity file: %w", err)
	}
	return nil
}

// Forget removes the identity record. A missing file is not an error.
func (s *FileStore) Forget() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove identity file: %w", err)
	}
	return nil
}
