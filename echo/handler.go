// Package echo is the text-protocol handler for the multiplexed server.
// There is no framing: whatever bounded chunk arrives is logged (and
// optionally echoed back) immediately. With the default 16-byte chunk a long
// message shows up as several log lines, and chunks from different clients
// interleave whenever one client pauses between sends, which is the whole
// point of the demo.
package echo

import (
	"github.com/cyberinferno/netproto/logger"
	"github.com/cyberinferno/netproto/muxserver"
	"github.com/cyberinferno/netproto/safemap"
)

// Handler logs each received chunk as it arrives. All methods run on the
// server's processing goroutine.
type Handler struct {
	log logger.Logger

	// EchoBack, when set, answers every chunk with the same bytes.
	EchoBack bool

	// BytesReceived tracks the total byte count per connection; readable
	// from other goroutines for tests and diagnostics.
	BytesReceived *safemap.SafeMap[uint32, int]
}

// NewHandler creates a Handler ready to be passed to muxserver.New.
//
// Parameters:
//   - log: Destination for the chunk log
//   - echoBack: Whether to answer each chunk with the same bytes
//
// Returns:
//   - A new Handler
func NewHandler(log logger.Logger, echoBack bool) *Handler {
	return &Handler{
		log:           log,
		EchoBack:      echoBack,
		BytesReceived: safemap.NewSafeMap[uint32, int](),
	}
}

// OnConnect implements muxserver.Handler.
func (h *Handler) OnConnect(id uint32, remoteAddr string) {
	h.BytesReceived.Store(id, 0)
	h.log.Info("client connected",
		logger.Field{Key: "conn_id", Value: id},
		logger.Field{Key: "remote", Value: remoteAddr})
}

// OnData implements muxserver.Handler. One call is one read event, not one
// message.
func (h *Handler) OnData(id uint32, chunk []byte) muxserver.Action {
	total, _ := h.BytesReceived.Load(id)
	h.BytesReceived.Store(id, total+len(chunk))

	h.log.Info("chunk",
		logger.Field{Key: "conn_id", Value: id},
		logger.Field{Key: "bytes", Value: len(chunk)},
		logger.Field{Key: "text", Value: string(chunk)})

	if h.EchoBack {
		resp := make([]byte, len(chunk))
		copy(resp, chunk)
		return muxserver.Action{Response: resp}
	}

	return muxserver.Action{}
}

// OnClose implements muxserver.Handler. The per-connection counter survives
// the close so a test can still read the total afterwards.
func (h *Handler) OnClose(id uint32) {
	total, _ := h.BytesReceived.Load(id)
	h.log.Info("client disconnected",
		logger.Field{Key: "conn_id", Value: id},
		logger.Field{Key: "total_bytes", Value: total})
}
