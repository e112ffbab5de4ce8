package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultDir is where FileSystemBackend keeps entries unless told otherwise.
const DefaultDir = ".geoai_cache"

// FileSystemBackend keeps one file per key under Dir. The directory is
// created on the first Set.
type FileSystemBackend struct {
	Dir string
}

// NewFileSystemBackend returns a backend rooted at dir, or DefaultDir if empty.
func NewFileSystemBackend(dir string) *FileSystemBackend {
	if dir == "" {
		dir = DefaultDir
	}
	return &FileSystemBackend{Dir: dir}
}

func (b *FileSystemBackend) path(key string) (string, error) {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return "", fmt.Errorf("invalid cache key %q", key)
	}
	return filepath.Join(b.Dir, key), nil
}

// Get implements Backend.
func (b *FileSystemBackend) Get(key string) ([]byte, bool, error) {
	p, err := b.path(key)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set implements Backend. The value is written to a temporary file and
// renamed into place, so readers never observe a partial entry.
func (b *FileSystemBackend) Set(key string, value []byte) error {
	p, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(b.Dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(b.Dir, "."+key+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), p)
}

// Clear implements Backend.
func (b *FileSystemBackend) Clear(key string) error {
	p, err := b.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
