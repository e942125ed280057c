package imagestore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"pdvbalcao/backend/internal/xid"
)

var ErrNotFound = errors.New("image not found")

// Store keeps product images as flat files under a single directory. It is a
// collaborator of the catalog service: the database only holds the stored
// filename, and releasing the file after a product delete is the caller's
// responsibility.
type Store struct {
	dir string
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save writes the raw bytes under a generated stable name, keeping only the
// extension from the suggested name, and returns the stored filename.
func (s *Store) Save(data []byte, suggestedName string) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty image data")
	}

	ext := strings.ToLower(filepath.Ext(suggestedName))
	name := xid.New("img") + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return name, nil
}

// Resolve maps a stored filename back to a path on disk.
func (s *Store) Resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", ErrNotFound
	}
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	return path, nil
}

// Delete removes a stored image. A missing file is not an error: the goal is
// that the file is gone.
func (s *Store) Delete(name string) error {
	if name == "" || name != filepath.Base(name) {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
