// Package protocol defines the wire format of the binary increment protocol.
//
// A frame is exactly two signed 32-bit integers carrying the same value,
// encoded little-endian with no header, for a fixed size of 8 bytes. Two
// values are reserved as sentinels: (0,0) closes the session politely and
// (-1,-1) tells the server to shut down entirely; neither is answered. Any
// other frame is an increment request that the server answers by echoing the
// frame with both halves incremented.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/cyberinferno/netproto/netio"
)

// FrameSize is the fixed on-wire size of a frame in bytes.
const FrameSize = 8

// Sentinel values recognized by both peers.
const (
	// CloseValue in both halves closes the session without a reply.
	CloseValue int32 = 0
	// ShutdownValue in both halves shuts the whole server down without a reply.
	ShutdownValue int32 = -1
)

// ErrValueMismatch is returned when the two halves of a frame carry
// different values, which no conformant peer ever produces.
var ErrValueMismatch = errors.New("protocol: frame halves differ")

// ErrShortFrame is returned when a buffer holds fewer than FrameSize bytes.
var ErrShortFrame = errors.New("protocol: buffer shorter than one frame")

// Frame is one unit of the binary protocol: the same value stored twice.
// The duplication is part of the wire format and lets either peer detect
// corruption or a non-conformant sender via Validate.
type Frame struct {
	First  int32
	Second int32
}

// NewFrame builds a frame carrying value in both halves.
//
// Parameters:
//   - value: The value to store in both halves of the frame
//
// Returns:
//   - A Frame with First and Second set to value
func NewFrame(value int32) Frame {
	return Frame{First: value, Second: value}
}

// Marshal encodes the frame into its fixed 8-byte little-endian wire form.
//
// Returns:
//   - A new byte slice of FrameSize bytes
func (f Frame) Marshal() []byte {
	buf := make([]byte, FrameSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(f.First))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(f.Second))
	return buf
}

// Unmarshal decodes a frame from the first FrameSize bytes of buf.
//
// Parameters:
//   - buf: The bytes to decode; extra bytes beyond FrameSize are ignored
//
// Returns:
//   - The decoded Frame, or ErrShortFrame if buf is too short
func Unmarshal(buf []byte) (Frame, error) {
	if len(buf) < FrameSize {
		return Frame{}, fmt.Errorf("%w: got %d bytes", ErrShortFrame, len(buf))
	}

	return Frame{
		First:  int32(binary.LittleEndian.Uint32(buf[0:4])),
		Second: int32(binary.LittleEndian.Uint32(buf[4:8])),
	}, nil
}

// Validate checks the invariant that both halves carry the same value.
//
// Returns:
//   - nil if the halves match, ErrValueMismatch (wrapped with both values)
//     otherwise
func (f Frame) Validate() error {
	if f.First != f.Second {
		return fmt.Errorf("%w: %d != %d", ErrValueMismatch, f.First, f.Second)
	}

	return nil
}

// IsClose reports whether the frame is the polite session-close sentinel.
func (f Frame) IsClose() bool {
	return f.First == CloseValue && f.Second == CloseValue
}

// IsShutdown reports whether the frame is the server-shutdown sentinel.
func (f Frame) IsShutdown() bool {
	return f.First == ShutdownValue && f.Second == ShutdownValue
}

// Incremented returns a copy of the frame with both halves incremented,
// which is the server's answer to an increment request.
func (f Frame) Incremented() Frame {
	return Frame{First: f.First + 1, Second: f.Second + 1}
}

// String renders the frame the way the demo binaries log it.
func (f Frame) String() string {
	return fmt.Sprintf("(%d,%d)", f.First, f.Second)
}

// WriteFrame sends one whole frame over w using the partial-write-safe
// primitive; the frame either arrives completely or the error tells why not.
//
// Parameters:
//   - w: The destination writer (typically a net.Conn)
//   - f: The frame to send
//
// Returns:
//   - nil on success, netio.ErrPeerClosed if the peer closed the connection,
//     or the underlying write error
func WriteFrame(w io.Writer, f Frame) error {
	return netio.WriteFull(w, f.Marshal())
}

// ReadFrame blocks until one whole frame has been received from r, looping
// over short reads via the partial-read-safe primitive.
//
// Parameters:
//   - r: The source reader (typically a net.Conn)
//
// Returns:
//   - The received frame; netio.ErrPeerClosed if the peer closed the
//     connection before or during the frame; or the underlying read error
func ReadFrame(r io.Reader) (Frame, error) {
	buf := make([]byte, FrameSize)
	if err := netio.ReadFull(r, buf); err != nil {
		return Frame{}, err
	}

	return Unmarshal(buf)
}
