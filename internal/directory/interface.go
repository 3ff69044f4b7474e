package directory

import (
	"context"
	"errors"
)

var (
	ErrNotFound  = errors.New("identity mapping not found")
	ErrCacheMiss = errors.New("cache miss")
)

// Directory stores the permanent identifier to room key mapping.
type Directory interface {
	// RecordIfAbsent inserts the mapping unless the identifier or the room key
	// is already taken. inserted is false when nothing was written.
	RecordIfAbsent(ctx context.Context, identifier, roomKey string) (inserted bool, err error)

	// Lookup returns the room key recorded for identifier.
	Lookup(ctx context.Context, identifier string) (string, error)
}

// Cache is a key/value store for directory lookups.
type Cache interface {
	Get(ctx context.Context, identifier string) (string, error)
	Set(ctx context.Context, identifier, roomKey string) error
}
