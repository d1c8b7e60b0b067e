package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// FileBackend stores each artifact as {key}.msgpack in a flat directory.
type FileBackend struct {
	dir string
}

// NewFileBackend creates the cache directory if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

// Dir returns the cache directory.
func (b *FileBackend) Dir() string {
	return b.dir
}

func (b *FileBackend) path(key Key) (string, error) {
	if !key.Valid() {
		return "", fmt.Errorf("invalid cache key %q", key)
	}
	return filepath.Join(b.dir, string(key)+Extension), nil
}

func (b *FileBackend) Get(ctx context.Context, key Key) ([]byte, bool, error) {
	path, err := b.path(key)
	if err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read artifact: %w", err)
	}
	return data, true, nil
}

// Put writes to a temporary file first so readers never see a partial artifact.
func (b *FileBackend) Put(ctx context.Context, key Key, data []byte) error {
	path, err := b.path(key)
	if err != nil {
		return err
	}

	tmp := filepath.Join(b.dir, ".tmp-"+uuid.NewString())
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to move artifact into place: %w", err)
	}
	return nil
}

func (b *FileBackend) Clear(ctx context.Context) (int, error) {
	matches, err := filepath.Glob(filepath.Join(b.dir, "*"+Extension))
	if err != nil {
		return 0, fmt.Errorf("failed to list artifacts: %w", err)
	}

	removed := 0
	var errs []error
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
