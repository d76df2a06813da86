package cacher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// redisCacher is the Redis-backed Cacher. Values are stored as JSON so
// multiple client processes can share one cache. Miss collapsing is local to
// the process via singleflight; two separate processes missing the same key
// may both fetch, which is acceptable for hostname lookups.
type redisCacher[T any] struct {
	client *redis.Client
	prefix string
	group  singleflight.Group
}

// NewRedisCacher creates a Cacher on top of an existing Redis client. Every
// key is namespaced with the given prefix so unrelated users of the same
// Redis instance cannot collide.
//
// Parameters:
//   - client: The Redis client to use
//   - prefix: Key namespace, e.g. "netproto:resolve"
//
// Returns:
//   - A Cacher backed by Redis
func NewRedisCacher[T any](client *redis.Client, prefix string) Cacher[T] {
	return &redisCacher[T]{
		client: client,
		prefix: prefix,
	}
}

func (c *redisCacher[T]) namespaced(key string) string {
	return fmt.Sprintf("%s:%s", c.prefix, key)
}

// GetOrFetch implements Cacher.
func (c *redisCacher[T]) GetOrFetch(
	ctx context.Context,
	key string,
	ttl time.Duration,
	fetchFn FetchFunc[T],
) (T, error) {
	var zero T
	nsKey := c.namespaced(key)

	val, err, _ := c.group.Do(nsKey, func() (interface{}, error) {
		raw, err := c.client.Get(ctx, nsKey).Result()
		if err == nil {
			var cached T
			if err := json.Unmarshal([]byte(raw), &cached); err != nil {
				return zero, fmt.Errorf("cacher: unmarshal cached value: %w", err)
			}
			return cached, nil
		}
		if !errors.Is(err, redis.Nil) {
			return zero, fmt.Errorf("cacher: redis get: %w", err)
		}

		fetched, err := fetchFn(ctx)
		if err != nil {
			return zero, err
		}

		data, err := json.Marshal(fetched)
		if err != nil {
			return zero, fmt.Errorf("cacher: marshal value: %w", err)
		}
		if err := c.client.Set(ctx, nsKey, data, ttl).Err(); err != nil {
			return zero, fmt.Errorf("cacher: redis set: %w", err)
		}

		return fetched, nil
	})
	if err != nil {
		return zero, err
	}

	typed, ok := val.(T)
	if !ok {
		return zero, fmt.Errorf("cacher: unexpected type cached under %q", key)
	}

	return typed, nil
}

// Delete implements Cacher.
func (c *redisCacher[T]) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.namespaced(key)).Err(); err != nil {
		return fmt.Errorf("cacher: redis del: %w", err)
	}

	return nil
}
