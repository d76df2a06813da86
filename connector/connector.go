// Package connector establishes client connections: resolve the hostname,
// then dial TCP with a timeout. Failures come back as typed errors instead
// of terminating the process, so callers pick the policy; the demo binaries
// keep the traditional fail-fast default.
package connector

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/cyberinferno/netproto/logger"
	"github.com/cyberinferno/netproto/resolver"
)

// DefaultDialTimeout bounds a single connection attempt.
const DefaultDialTimeout = 10 * time.Second

// Connector dials servers by hostname and port. Safe for concurrent use.
type Connector struct {
	resolver    *resolver.Resolver
	dialTimeout time.Duration
	log         logger.Logger
}

// New creates a Connector.
//
// Parameters:
//   - res: The resolver used for hostname lookups
//   - dialTimeout: Per-attempt connect timeout; DefaultDialTimeout when zero
//   - log: Destination for connection logging; silent when nil
//
// Returns:
//   - A new Connector
func New(res *resolver.Resolver, dialTimeout time.Duration, log logger.Logger) *Connector {
	if dialTimeout <= 0 {
		dialTimeout = DefaultDialTimeout
	}
	if log == nil {
		log = logger.NewSilentLogger()
	}

	return &Connector{
		resolver:    res,
		dialTimeout: dialTimeout,
		log:         log,
	}
}

// Connect resolves host and dials its port. The two failure modes stay
// distinguishable: resolution problems surface as *resolver.ResolutionError,
// dial problems as a wrapped net error.
//
// Parameters:
//   - ctx: Context for cancellation; the dial also honors the timeout
//   - host: Hostname or literal IP of the server
//   - port: TCP port of the server
//
// Returns:
//   - The established connection, owned by the caller
//   - An error as described above
func (c *Connector) Connect(ctx context.Context, host string, port int) (net.Conn, error) {
	addr, err := c.resolver.Resolve(ctx, host)
	if err != nil {
		return nil, err
	}

	target := net.JoinHostPort(addr, strconv.Itoa(port))
	dialer := net.Dialer{Timeout: c.dialTimeout}

	conn, err := dialer.DialContext(ctx, "tcp", target)
	if err != nil {
		return nil, fmt.Errorf("connector: dial %s: %w", target, err)
	}

	c.log.Info("connected",
		logger.Field{Key: "remote", Value: conn.RemoteAddr().String()})

	return conn, nil
}
