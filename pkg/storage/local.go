package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage implements Storage for a directory on the local filesystem.
type LocalStorage struct {
	basePath string
}

// LocalConfig holds configuration for local storage.
type LocalConfig struct {
	BasePath string `mapstructure:"base_path"`
}

// NewLocalStorage creates a new LocalStorage instance.
func NewLocalStorage(cfg LocalConfig) (*LocalStorage, error) {
	if cfg.BasePath == "" {
		cfg.BasePath = "."
	}

	absPath, err := filepath.Abs(cfg.BasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	return &LocalStorage{
		basePath: absPath,
	}, nil
}

// fullPath returns the filesystem path for key, or "" when key escapes basePath.
func (s *LocalStorage) fullPath(key string) string {
	cleanKey := filepath.Clean("/" + strings.TrimPrefix(filepath.ToSlash(key), "/"))
	path := filepath.Join(s.basePath, cleanKey)
	if path != s.basePath && !strings.HasPrefix(path, s.basePath+string(os.PathSeparator)) {
		return ""
	}
	return path
}

// Open retrieves content for the given key.
func (s *LocalStorage) Open(ctx context.Context, key string) (*Object, error) {
	path := s.fullPath(key)
	if path == "" {
		return nil, ErrNotFound
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, ErrNotFound
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return &Object{
		Key:          key,
		Body:         file,
		Size:         info.Size(),
		LastModified: info.ModTime(),
		ContentType:  mime.TypeByExtension(filepath.Ext(path)),
	}, nil
}

// Exists checks if a regular file with the given key exists.
func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	path := s.fullPath(key)
	if path == "" {
		return false, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat file: %w", err)
	}

	return !info.IsDir(), nil
}

// GetBasePath returns the base path for the storage.
func (s *LocalStorage) GetBasePath() string {
	return s.basePath
}
