package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when no object exists under a key.
var ErrNotFound = errors.New("object not found")

// Object is an opened stored file. The caller must close Body.
type Object struct {
	Key          string
	Body         io.ReadCloser
	Size         int64
	LastModified time.Time
	ContentType  string
}

// Storage defines the read side of a static asset store.
type Storage interface {
	// Open retrieves content and metadata for the given key.
	Open(ctx context.Context, key string) (*Object, error)

	// Exists checks if content with the given key exists.
	Exists(ctx context.Context, key string) (bool, error)
}

// Config selects and configures a storage backend.
type Config struct {
	Driver string      `mapstructure:"driver"` // local, s3
	Local  LocalConfig `mapstructure:"local"`
	S3     S3Config    `mapstructure:"s3"`
}

// New builds the configured backend.
func New(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalStorage(cfg.Local)
	case "s3":
		return NewS3Storage(ctx, cfg.S3)
	default:
		return nil, errors.New("unsupported storage driver: " + cfg.Driver)
	}
}
