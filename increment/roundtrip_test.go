package increment

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/cyberinferno/netproto/logger"
	"github.com/cyberinferno/netproto/muxserver"
)

func startIncrementServer(t *testing.T) (*muxserver.Server, *ServerHandler) {
	t.Helper()
	h := NewServerHandler(logger.NewSilentLogger())
	srv := muxserver.New(muxserver.Config{Addr: "127.0.0.1:0", ChunkSize: 16}, h)
	require.NoError(t, srv.Start())
	return srv, h
}

func TestRoundTrip(t *testing.T) {
	t.Run("target 3 against a real server", func(t *testing.T) {
		srv, _ := startIncrementServer(t)
		defer srv.Stop()

		conn, err := net.Dial("tcp", srv.Addr())
		require.NoError(t, err)
		defer conn.Close()

		res, err := NewClient(ClientConfig{Target: 3}).Run(conn)
		require.NoError(t, err)
		assert.Equal(t, 2, res.RoundTrips)
		assert.GreaterOrEqual(t, res.ElapsedMs, 0.0)
	})

	t.Run("larger target counts all the way up", func(t *testing.T) {
		srv, _ := startIncrementServer(t)
		defer srv.Stop()

		conn, err := net.Dial("tcp", srv.Addr())
		require.NoError(t, err)
		defer conn.Close()

		res, err := NewClient(ClientConfig{Target: 50}).Run(conn)
		require.NoError(t, err)
		assert.Equal(t, 49, res.RoundTrips)
	})

	t.Run("concurrent clients each get their own count", func(t *testing.T) {
		srv, _ := startIncrementServer(t)
		defer srv.Stop()

		var g errgroup.Group
		for _, target := range []int32{2, 5, 9, 17} {
			target := target
			g.Go(func() error {
				conn, err := net.Dial("tcp", srv.Addr())
				if err != nil {
					return err
				}
				defer conn.Close()

				res, err := NewClient(ClientConfig{Target: target}).Run(conn)
				if err != nil {
					return err
				}

				assert.Equal(t, int(target)-1, res.RoundTrips)
				return nil
			})
		}

		require.NoError(t, g.Wait())
	})

	t.Run("shutdown sentinel terminates the server", func(t *testing.T) {
		srv, _ := startIncrementServer(t)

		conn, err := net.Dial("tcp", srv.Addr())
		require.NoError(t, err)
		defer conn.Close()

		res, err := NewClient(ClientConfig{RequestShutdown: true}).Run(conn)
		require.NoError(t, err)
		assert.Equal(t, 0, res.RoundTrips)

		waitDone := make(chan struct{})
		go func() {
			srv.Wait()
			close(waitDone)
		}()
		select {
		case <-waitDone:
		case <-time.After(2 * time.Second):
			t.Fatal("server did not shut down on the sentinel")
		}

		// The sentinel is never answered.
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
		buf := make([]byte, 1)
		_, err = conn.Read(buf)
		assert.Error(t, err)

		_, err = net.Dial("tcp", srv.Addr())
		assert.Error(t, err, "listener must be down after shutdown")
	})

	t.Run("server survives one misbehaving client", func(t *testing.T) {
		srv, _ := startIncrementServer(t)
		defer srv.Stop()

		bad, err := net.Dial("tcp", srv.Addr())
		require.NoError(t, err)
		defer bad.Close()
		// Mismatched halves: the server drops this connection only.
		_, err = bad.Write([]byte{1, 0, 0, 0, 2, 0, 0, 0})
		require.NoError(t, err)

		good, err := net.Dial("tcp", srv.Addr())
		require.NoError(t, err)
		defer good.Close()

		res, err := NewClient(ClientConfig{Target: 4}).Run(good)
		require.NoError(t, err)
		assert.Equal(t, 3, res.RoundTrips)
	})
}
