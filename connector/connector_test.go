package connector

import (
	"context"
	"errors"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberinferno/netproto/cacher"
	"github.com/cyberinferno/netproto/resolver"
)

func newTestConnector() *Connector {
	res := resolver.New(cacher.NewMemoryCacher[string](cache.NoExpiration, time.Minute), time.Minute)
	return New(res, time.Second, nil)
}

func TestConnector_Connect(t *testing.T) {
	ctx := context.Background()

	t.Run("connects to a live listener", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		defer ln.Close()

		_, portStr, err := net.SplitHostPort(ln.Addr().String())
		require.NoError(t, err)
		port, err := strconv.Atoi(portStr)
		require.NoError(t, err)

		conn, err := newTestConnector().Connect(ctx, "127.0.0.1", port)
		require.NoError(t, err)
		defer conn.Close()

		accepted, err := ln.Accept()
		require.NoError(t, err)
		defer accepted.Close()

		assert.Equal(t, accepted.LocalAddr().String(), conn.RemoteAddr().String())
	})

	t.Run("resolution failure is a ResolutionError", func(t *testing.T) {
		_, err := newTestConnector().Connect(ctx, "definitely-not-a-real-host.invalid", 1234)
		require.Error(t, err)

		var resErr *resolver.ResolutionError
		assert.ErrorAs(t, err, &resErr)
	})

	t.Run("refused connection is not a ResolutionError", func(t *testing.T) {
		// Grab a free port and release it so nothing is listening there.
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		_, portStr, err := net.SplitHostPort(ln.Addr().String())
		require.NoError(t, err)
		require.NoError(t, ln.Close())
		port, err := strconv.Atoi(portStr)
		require.NoError(t, err)

		_, err = newTestConnector().Connect(ctx, "127.0.0.1", port)
		require.Error(t, err)

		var resErr *resolver.ResolutionError
		assert.False(t, errors.As(err, &resErr))
	})
}
