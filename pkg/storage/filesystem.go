package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrObjectNotFound is returned when a stored object does not exist.
var ErrObjectNotFound = errors.New("storage: object not found")

// LocalStorage persists files on disk under a base directory.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./storage"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

// Save writes data to the relative path under the base dir and returns the path.
func (s *LocalStorage) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := s.resolve(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare storage directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("commit file: %w", err)
	}
	return name, nil
}

// Open returns a read handle for the stored file.
func (s *LocalStorage) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := s.resolve(name)
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("open file: %w", err)
	}
	return file, nil
}

// Delete removes a stored file if present.
func (s *LocalStorage) Delete(ctx context.Context, name string) error {
	path := s.resolve(name)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// Exists reports whether the named file is present.
func (s *LocalStorage) Exists(ctx context.Context, name string) (bool, error) {
	path := s.resolve(name)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat file: %w", err)
	}
	return !info.IsDir(), nil
}

// EnsureDir creates the relative directory when missing.
func (s *LocalStorage) EnsureDir(ctx context.Context, dir string) error {
	if err := os.MkdirAll(s.resolve(dir), 0o755); err != nil {
		return fmt.Errorf("ensure directory %s: %w", dir, err)
	}
	return nil
}

// Path exposes the underlying absolute path (useful for debugging).
func (s *LocalStorage) Path(name string) string {
	return s.resolve(name)
}

// resolve keeps every stored name inside the base directory.
func (s *LocalStorage) resolve(name string) string {
	clean := filepath.Clean("/" + filepath.ToSlash(name))
	rel := strings.TrimPrefix(clean, "/")
	if rel == "" || rel == "." {
		return s.baseDir
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(rel))
}
