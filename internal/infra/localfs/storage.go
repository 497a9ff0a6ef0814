package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sidhardha7/content-sensitivity-backend/internal/domain/port"
)

// Storage keeps uploaded objects on the local filesystem under a base
// directory, one file per storage key. Resolve is a no-op path lookup,
// which makes this the default driver for single-node deployments.
type Storage struct {
	base string
}

func NewStorage(basePath string) (*Storage, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve base path: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create base path: %w", err)
	}
	return &Storage{base: abs}, nil
}

func (s *Storage) Save(_ context.Context, key string, reader io.Reader, _ int64, _ string) error {
	path, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}

	tmp := path + ".partial"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create object file: %w", err)
	}
	if _, err := io.Copy(f, reader); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write object file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close object file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("commit object file: %w", err)
	}
	return nil
}

func (s *Storage) Resolve(_ context.Context, key string) (string, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", port.ErrNotFound
		}
		return "", fmt.Errorf("stat object: %w", err)
	}
	return path, nil
}

func (s *Storage) Stat(_ context.Context, key string) (port.ObjectInfo, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return port.ObjectInfo{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return port.ObjectInfo{}, port.ErrNotFound
		}
		return port.ObjectInfo{}, fmt.Errorf("stat object: %w", err)
	}
	return port.ObjectInfo{Size: info.Size(), ModifiedAt: info.ModTime()}, nil
}

func (s *Storage) Remove(_ context.Context, key string) error {
	path, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

// pathFor maps a storage key to a path under base. Keys are generated by
// the upload handler, but traversal outside base is still rejected.
func (s *Storage) pathFor(key string) (string, error) {
	if key == "" || strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.base, filepath.FromSlash(key)), nil
}
