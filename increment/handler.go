// Package increment implements both halves of the binary increment
// protocol: the server-side handler that answers each frame with its
// incremented echo, and the client-side driver that runs the exchange to a
// target value.
package increment

import (
	"github.com/cyberinferno/netproto/logger"
	"github.com/cyberinferno/netproto/muxserver"
	"github.com/cyberinferno/netproto/protocol"
	"github.com/cyberinferno/netproto/safemap"
)

// ServerHandler applies the increment protocol to whatever chunks the
// multiplexed server delivers. Chunks carry no framing, so bytes are
// buffered per connection until a whole frame is available; one chunk may
// complete several frames or none.
//
// All methods run on the server's processing goroutine, so the pending
// buffers are plain maps. LastValues is a SafeMap because tests and
// diagnostics read it from other goroutines.
type ServerHandler struct {
	log     logger.Logger
	pending map[uint32][]byte

	// LastValues records, per connection, the most recent value echoed back.
	LastValues *safemap.SafeMap[uint32, int32]
}

// NewServerHandler creates a handler ready to be passed to muxserver.New.
//
// Parameters:
//   - log: Destination for per-connection protocol logging
//
// Returns:
//   - A new ServerHandler
func NewServerHandler(log logger.Logger) *ServerHandler {
	return &ServerHandler{
		log:        log,
		pending:    make(map[uint32][]byte),
		LastValues: safemap.NewSafeMap[uint32, int32](),
	}
}

// OnConnect implements muxserver.Handler.
func (h *ServerHandler) OnConnect(id uint32, remoteAddr string) {
	h.pending[id] = nil
	h.log.Info("client connected",
		logger.Field{Key: "conn_id", Value: id},
		logger.Field{Key: "remote", Value: remoteAddr})
}

// OnData implements muxserver.Handler. It appends the chunk to the
// connection's pending bytes and consumes as many whole frames as are now
// available. Sentinels win immediately: a shutdown frame stops the whole
// server and a close frame ends the session, in both cases without a reply
// and discarding any trailing bytes.
func (h *ServerHandler) OnData(id uint32, chunk []byte) muxserver.Action {
	buf := append(h.pending[id], chunk...)

	var response []byte
	for len(buf) >= protocol.FrameSize {
		frame, err := protocol.Unmarshal(buf[:protocol.FrameSize])
		if err != nil {
			// Unreachable with a full frame's worth of bytes, but a handler
			// never panics on remote input.
			h.pending[id] = nil
			return muxserver.Action{CloseConn: true}
		}
		buf = buf[protocol.FrameSize:]

		if frame.IsShutdown() {
			h.log.Info("shutdown frame received", logger.Field{Key: "conn_id", Value: id})
			return muxserver.Action{Shutdown: true}
		}
		if frame.IsClose() {
			h.log.Info("close frame received", logger.Field{Key: "conn_id", Value: id})
			h.pending[id] = nil
			return muxserver.Action{CloseConn: true}
		}
		if err := frame.Validate(); err != nil {
			h.log.Warn("protocol violation, dropping connection",
				logger.Field{Key: "conn_id", Value: id},
				logger.Field{Key: "error", Value: err})
			h.pending[id] = nil
			return muxserver.Action{CloseConn: true}
		}

		echo := frame.Incremented()
		h.LastValues.Store(id, echo.First)
		h.log.Debug("frame echoed",
			logger.Field{Key: "conn_id", Value: id},
			logger.Field{Key: "recv", Value: frame.String()},
			logger.Field{Key: "send", Value: echo.String()})
		response = append(response, echo.Marshal()...)
	}

	h.pending[id] = buf
	return muxserver.Action{Response: response}
}

// OnClose implements muxserver.Handler.
func (h *ServerHandler) OnClose(id uint32) {
	delete(h.pending, id)
	h.LastValues.Delete(id)
	h.log.Info("client disconnected", logger.Field{Key: "conn_id", Value: id})
}
