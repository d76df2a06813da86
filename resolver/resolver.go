// Package resolver turns hostnames into IP addresses for the client
// connectors, caching successful lookups so repeated connection attempts do
// not hit DNS every time. Lookup failures are reported as a distinct
// ResolutionError so callers can tell "no such host" apart from transport
// failures.
package resolver

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/cyberinferno/netproto/cacher"
)

// DefaultTTL is how long a successful lookup stays cached.
const DefaultTTL = 5 * time.Minute

// ResolutionError reports a failed hostname lookup.
type ResolutionError struct {
	Host string
	Err  error
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolver: lookup %s: %v", e.Host, e.Err)
}

// Unwrap exposes the underlying lookup error.
func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// lookupFunc matches net.Resolver.LookupHost; swapped out in tests.
type lookupFunc func(ctx context.Context, host string) ([]string, error)

// Resolver resolves hostnames with a read-through cache in front of the
// system resolver. Safe for concurrent use.
type Resolver struct {
	cache  cacher.Cacher[string]
	ttl    time.Duration
	lookup lookupFunc
}

// New creates a Resolver caching lookups in the given cache for ttl.
//
// Parameters:
//   - cache: Where successful lookups are cached (e.g. a MemoryCacher)
//   - ttl: Cache lifetime for each lookup; DefaultTTL when zero
//
// Returns:
//   - A new Resolver
func New(cache cacher.Cacher[string], ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Resolver{
		cache:  cache,
		ttl:    ttl,
		lookup: net.DefaultResolver.LookupHost,
	}
}

// Resolve returns an IP address for host. Literal IP addresses pass through
// untouched; names go through the cache and then the system resolver. Only
// failures of the lookup itself produce a ResolutionError.
//
// Parameters:
//   - ctx: Context for cancellation and timeout control
//   - host: A hostname or literal IP address
//
// Returns:
//   - An IP address as a string
//   - A *ResolutionError if the lookup failed
func (r *Resolver) Resolve(ctx context.Context, host string) (string, error) {
	if ip := net.ParseIP(host); ip != nil {
		return host, nil
	}

	addr, err := r.cache.GetOrFetch(ctx, "resolve:"+host, r.ttl, func(ctx context.Context) (string, error) {
		addrs, err := r.lookup(ctx, host)
		if err != nil {
			return "", err
		}
		if len(addrs) == 0 {
			return "", fmt.Errorf("no addresses returned")
		}

		return addrs[0], nil
	})
	if err != nil {
		return "", &ResolutionError{Host: host, Err: err}
	}

	return addr, nil
}
