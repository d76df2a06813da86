// Package cacher provides a small read-through cache used by the resolver to
// avoid re-resolving hostnames on every connection attempt. Two backends are
// available: an in-process one for the demo binaries and a Redis one for
// sharing lookups across client processes.
package cacher

import (
	"context"
	"time"
)

// FetchFunc produces a value on a cache miss.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Cacher is a read-through cache. Implementations must be safe for
// concurrent use and must collapse concurrent misses on the same key into a
// single fetch where the backend allows it.
type Cacher[T any] interface {
	// GetOrFetch returns the cached value for key, or runs fetchFn and caches
	// its result with the given TTL on a miss.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - key: The cache key
	//   - ttl: How long a fetched value stays cached
	//   - fetchFn: Producer invoked on a miss
	//
	// Returns:
	//   - The cached or freshly fetched value
	//   - An error if the fetch or the backend failed
	GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetchFn FetchFunc[T]) (T, error)

	// Delete removes key from the cache; a no-op if absent.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - key: The cache key to remove
	//
	// Returns:
	//   - An error if the backend failed
	Delete(ctx context.Context, key string) error
}
