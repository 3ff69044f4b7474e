package directory

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/weiawesome/wes-chat-room/pkg/log"
)

// CachedDirectory is a read-through cache in front of a Directory. Mappings
// never change once written, so a cached entry is never invalidated.
type CachedDirectory struct {
	next  Directory
	cache Cache
	sf    singleflight.Group
}

// NewCachedDirectory wraps next with cache.
func NewCachedDirectory(next Directory, cache Cache) *CachedDirectory {
	return &CachedDirectory{next: next, cache: cache}
}

// RecordIfAbsent skips the store when the mapping is already cached. A
// mapping that already existed in the store is read back so the cache
// warms either way.
func (d *CachedDirectory) RecordIfAbsent(ctx context.Context, identifier, roomKey string) (bool, error) {
	if cached, err := d.cache.Get(ctx, identifier); err == nil && cached == roomKey {
		return false, nil
	}

	inserted, err := d.next.RecordIfAbsent(ctx, identifier, roomKey)
	if err != nil {
		return false, err
	}
	if inserted {
		d.store(ctx, identifier, roomKey)
		return true, nil
	}

	if _, err := d.Lookup(ctx, identifier); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("existing directory mapping not cached")
	}
	return false, nil
}

// Lookup reads through the cache, collapsing concurrent misses.
func (d *CachedDirectory) Lookup(ctx context.Context, identifier string) (string, error) {
	l := log.Ctx(ctx)

	roomKey, err := d.cache.Get(ctx, identifier)
	if err == nil {
		return roomKey, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		l.Warn().Err(err).Msg("directory cache get error")
	}

	result, err, _ := d.sf.Do(identifier, func() (interface{}, error) {
		return d.next.Lookup(ctx, identifier)
	})
	if err != nil {
		return "", err
	}

	roomKey = result.(string)
	d.store(ctx, identifier, roomKey)
	return roomKey, nil
}

func (d *CachedDirectory) store(ctx context.Context, identifier, roomKey string) {
	cacheCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	if err := d.cache.Set(cacheCtx, identifier, roomKey); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("directory cache set error")
	}
}
