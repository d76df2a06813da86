// Package muxserver implements a TCP server that services an arbitrary
// number of concurrent client connections from a single processing
// goroutine, the way a select()-based server services them from a single
// thread.
//
// Per-connection reader goroutines do nothing but issue one bounded read at
// a time and hand the resulting chunk to the processing loop over a shared
// event channel. The loop alone owns the session table (the readiness set)
// and all protocol state, so no locking is needed around either, and chunks
// from unrelated connections interleave exactly as their bytes arrive. A
// chunk is deliberately not a message: the read buffer is small by default,
// so a long logical message spans several read events and the Handler must
// cope with that.
package muxserver

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/cyberinferno/netproto/logger"
	"github.com/cyberinferno/netproto/netio"
	"github.com/cyberinferno/netproto/safeset"
)

// DefaultChunkSize is the bounded read size. It is intentionally tiny so
// that multi-read messages and cross-connection interleaving actually occur
// in the demos.
const DefaultChunkSize = 16

// Action tells the server what to do after a Handler has processed a chunk.
// The zero value means "keep the connection open, send nothing".
type Action struct {
	// Response holds bytes to write back to the connection, if any. They are
	// written with the partial-write-safe primitive before CloseConn or
	// Shutdown take effect.
	Response []byte

	// CloseConn closes this connection after any response has been written.
	CloseConn bool

	// Shutdown stops the whole server: the listener closes, every connection
	// is torn down, and Wait returns. No response is written.
	Shutdown bool
}

// Handler supplies the protocol logic that runs inside the processing loop.
// All three methods are invoked from that single goroutine, so a Handler may
// keep per-connection state in plain maps keyed by connection ID.
type Handler interface {
	// OnConnect is called once when a connection has been accepted and added
	// to the readiness set.
	//
	// Parameters:
	//   - id: The server-assigned connection ID
	//   - remoteAddr: The peer's address, for logging
	OnConnect(id uint32, remoteAddr string)

	// OnData is called with each chunk read from a ready connection. A chunk
	// is whatever one bounded read returned; it carries no message framing.
	//
	// Parameters:
	//   - id: The connection the chunk arrived on
	//   - chunk: The received bytes; valid only for the duration of the call
	//
	// Returns:
	//   - The Action the server should take for this connection
	OnData(id uint32, chunk []byte) Action

	// OnClose is called once when a connection leaves the readiness set,
	// whether the peer closed it, the handler asked for it, or the server is
	// shutting down.
	//
	// Parameters:
	//   - id: The connection that was removed
	OnClose(id uint32)
}

// Config holds the settings for a Server.
type Config struct {
	// Addr is the listen address, e.g. ":9090".
	Addr string
	// ChunkSize bounds each read; DefaultChunkSize when zero.
	ChunkSize int
	// Logger receives the server's structured log output.
	Logger logger.Logger
}

// DefaultConfig returns a Config for the given listen address with the
// default chunk size and a console logger.
//
// Parameters:
//   - addr: The listen address
//
// Returns:
//   - A Config ready to pass to New
func DefaultConfig(addr string) Config {
	return Config{
		Addr:      addr,
		ChunkSize: DefaultChunkSize,
	}
}

// Server is the multiplexed TCP server. Create one with New, call Start to
// begin accepting, and Wait to block until the server has shut down, either
// via Stop or via a Handler-requested shutdown.
type Server struct {
	cfg     Config
	log     logger.Logger
	handler Handler

	listener net.Listener
	running  atomic.Bool
	nextID   atomic.Uint32

	events chan event
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once

	// active mirrors the IDs in the loop-owned session table so that other
	// goroutines can observe the readiness set without touching loop state.
	active *safeset.SafeSet[uint32]
}

type eventKind int

const (
	eventConn eventKind = iota
	eventData
	eventClose
)

// event is what reader goroutines and the accept loop hand to the
// processing loop. Exactly one of conn/chunk/err is meaningful per kind.
type event struct {
	kind  eventKind
	id    uint32
	conn  net.Conn
	chunk []byte
	err   error
}

// New creates a Server with the given configuration and handler. The server
// does not listen until Start is called.
//
// Parameters:
//   - cfg: Listen address, chunk size, and logger
//   - handler: The protocol logic to run in the processing loop
//
// Returns:
//   - A new Server
func New(cfg Config, handler Handler) *Server {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewSilentLogger()
	}

	return &Server{
		cfg:     cfg,
		log:     cfg.Logger,
		handler: handler,
		events:  make(chan event, 64),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		active:  safeset.NewSafeSet[uint32](),
	}
}

// Start binds the listener and launches the accept loop and the processing
// loop. It returns immediately; use Wait to block until shutdown.
//
// Returns:
//   - An error if the server is already running or listening fails
func (s *Server) Start() error {
	if s.running.Load() {
		return fmt.Errorf("muxserver: server on %s already running", s.cfg.Addr)
	}

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("muxserver: listen on %s: %w", s.cfg.Addr, err)
	}

	s.listener = ln
	s.running.Store(true)
	s.log.Info("server started", logger.Field{Key: "addr", Value: ln.Addr().String()})

	go s.acceptLoop()
	go s.processLoop()

	return nil
}

// Addr returns the listener's address, useful when listening on port 0.
//
// Returns:
//   - The bound address, or an empty string before Start
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}

	return s.listener.Addr().String()
}

// Stop initiates shutdown from outside the processing loop and blocks until
// every connection has been torn down. Safe to call more than once.
func (s *Server) Stop() {
	s.once.Do(func() { close(s.stop) })
	<-s.done
}

// Wait blocks until the server has fully shut down, whether via Stop or a
// Handler-requested shutdown.
func (s *Server) Wait() {
	<-s.done
}

// ActiveConnections returns the number of connections currently in the
// readiness set. Safe to call from any goroutine.
func (s *Server) ActiveConnections() int {
	return s.active.Size()
}

// acceptLoop accepts connections and registers each one with the processing
// loop before a reader for it starts, so the loop always sees the connect
// event first.
func (s *Server) acceptLoop() {
	for s.running.Load() {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.running.Load() {
				return
			}

			s.log.Error("accept failed", logger.Field{Key: "error", Value: err})
			continue
		}

		id := s.nextID.Add(1)
		s.events <- event{kind: eventConn, id: id, conn: conn}
		go s.readLoop(id, conn)
	}
}

// readLoop performs bounded reads on one connection and forwards each chunk
// to the processing loop. It always ends by delivering exactly one close
// event, which is how the connection leaves the readiness set.
func (s *Server) readLoop(id uint32, conn net.Conn) {
	buf := make([]byte, s.cfg.ChunkSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			s.events <- event{kind: eventData, id: id, chunk: chunk}
		}

		if err != nil {
			if errors.Is(err, syscall.EINTR) {
				continue
			}
			if errors.Is(err, io.EOF) {
				// Zero-byte read: the peer closed, which is clean termination.
				s.events <- event{kind: eventClose, id: id}
			} else {
				s.events <- event{kind: eventClose, id: id, err: err}
			}

			return
		}
	}
}

// processLoop is the single owner of the session table. It blocks on the
// event channel (the readiness wait), dispatches chunks to the handler,
// writes responses, and tears sessions down. After shutdown begins it keeps
// draining until every reader has delivered its close event, so no reader
// can block on a full channel.
func (s *Server) processLoop() {
	defer close(s.done)

	sessions := make(map[uint32]net.Conn)
	stop := s.stop
	shuttingDown := false

	shutdown := func() {
		if shuttingDown {
			return
		}

		shuttingDown = true
		s.running.Store(false)
		_ = s.listener.Close()
		for _, conn := range sessions {
			_ = conn.Close()
		}

		s.log.Info("server shutting down",
			logger.Field{Key: "open_connections", Value: len(sessions)})
	}

	for {
		if shuttingDown && len(sessions) == 0 {
			return
		}

		select {
		case <-stop:
			stop = nil
			shutdown()

		case ev := <-s.events:
			switch ev.kind {
			case eventConn:
				if shuttingDown {
					_ = ev.conn.Close()
					continue
				}

				sessions[ev.id] = ev.conn
				s.active.Add(ev.id)
				s.handler.OnConnect(ev.id, ev.conn.RemoteAddr().String())

			case eventData:
				conn, ok := sessions[ev.id]
				if !ok || shuttingDown {
					// Late chunk from a connection already torn down, or one
					// that is about to be.
					continue
				}

				act := s.handler.OnData(ev.id, ev.chunk)
				if act.Shutdown {
					shutdown()
					continue
				}
				if len(act.Response) > 0 {
					if err := netio.WriteFull(conn, act.Response); err != nil {
						s.log.Error("write failed, dropping connection",
							logger.Field{Key: "conn_id", Value: ev.id},
							logger.Field{Key: "error", Value: err})
						s.teardown(sessions, ev.id)
						continue
					}
				}
				if act.CloseConn {
					s.teardown(sessions, ev.id)
				}

			case eventClose:
				if _, ok := sessions[ev.id]; !ok {
					continue
				}
				if ev.err != nil {
					s.log.Error("connection error",
						logger.Field{Key: "conn_id", Value: ev.id},
						logger.Field{Key: "error", Value: ev.err})
				}

				s.teardown(sessions, ev.id)
			}
		}
	}
}

// teardown removes one connection from the readiness set and closes it. The
// handler is told exactly once.
func (s *Server) teardown(sessions map[uint32]net.Conn, id uint32) {
	conn, ok := sessions[id]
	if !ok {
		return
	}

	_ = conn.Close()
	delete(sessions, id)
	s.active.Remove(id)
	s.handler.OnClose(id)
	s.log.Debug("connection closed", logger.Field{Key: "conn_id", Value: id})
}
