package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache caches directory lookups in Redis.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache wraps a client shared with the rest of the process.
func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *RedisCache) buildKey(identifier string) string {
	return fmt.Sprintf("%s:identity:%s", c.prefix, identifier)
}

func (c *RedisCache) Get(ctx context.Context, identifier string) (string, error) {
	roomKey, err := c.client.Get(ctx, c.buildKey(identifier)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		return "", fmt.Errorf("failed to get from redis: %w", err)
	}
	return roomKey, nil
}

func (c *RedisCache) Set(ctx context.Context, identifier, roomKey string) error {
	if err := c.client.Set(ctx, c.buildKey(identifier), roomKey, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}
	return nil
}
