// Package storage keeps dish image files on the local filesystem.  The
// database stores paths relative to the configured directory; this
// package owns translation and removal semantics.
package storage

import (
	"io"
	"os"
	"path/filepath"
)

// ImageStore reads and writes image files under a single base directory.
type ImageStore struct {
	Dir string
}

// NewImageStore ensures the base directory exists and returns a store.
func NewImageStore(dir string) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &ImageStore{Dir: dir}, nil
}

// Save writes src to name inside the base directory and returns the
// relative path to persist in the database.
func (s *ImageStore) Save(name string, src io.Reader) (string, error) {
	dst, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return name, nil
}

// Remove deletes a previously saved image.  A file that is already gone
// counts as success; any other failure is reported so callers can decide
// whether it blocks their operation.
func (s *ImageStore) Remove(path string) error {
	if path == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.Dir, path))
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}
