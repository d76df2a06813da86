// Package netio provides the partial I/O primitives that the rest of the
// repository is built on. A single read or write on a stream socket may
// transfer fewer bytes than requested, so both WriteFull and ReadFull loop
// until the whole buffer has been transferred, retrying when the call was
// interrupted by a signal and distinguishing a peer-initiated close from a
// genuine I/O error.
package netio

import (
	"errors"
	"fmt"
	"io"
	"syscall"
)

// ErrPeerClosed is reported when the remote end of a connection has been
// closed. Callers should treat it as a clean termination signal, not as an
// error condition; use errors.Is to detect it through wrapped errors.
var ErrPeerClosed = errors.New("netio: peer closed connection")

// WriteFull writes every byte of buf to w, looping over short writes until
// the whole buffer has been sent. Writes interrupted by a signal are retried;
// any other write error aborts the operation.
//
// Parameters:
//   - w: The destination writer (typically a net.Conn)
//   - buf: The bytes to send in full
//
// Returns:
//   - nil once all of buf has been written, ErrPeerClosed (possibly wrapped)
//     if the peer closed the connection mid-write, or the underlying write
//     error otherwise
func WriteFull(w io.Writer, buf []byte) error {
	sent := 0
	for sent < len(buf) {
		n, err := w.Write(buf[sent:])
		sent += n
		if err != nil {
			if retryable(err) {
				continue
			}
			if closedByPeer(err) {
				return fmt.Errorf("netio: short write of %d/%d bytes: %w", sent, len(buf), ErrPeerClosed)
			}
			return fmt.Errorf("netio: write failed after %d/%d bytes: %w", sent, len(buf), err)
		}
	}

	return nil
}

// ReadFull reads from r until buf is completely filled, looping over short
// reads. Reads interrupted by a signal are retried. A zero-byte read with EOF
// before any data arrived is reported as ErrPeerClosed; an EOF after a
// partial fill is also reported as ErrPeerClosed (wrapped with the byte
// count), since in both cases the remote end went away. Any other read error
// aborts the operation.
//
// Parameters:
//   - r: The source reader (typically a net.Conn)
//   - buf: The buffer to fill completely
//
// Returns:
//   - nil once buf is full, ErrPeerClosed (possibly wrapped) if the peer
//     closed the connection, or the underlying read error otherwise
func ReadFull(r io.Reader, buf []byte) error {
	recd := 0
	for recd < len(buf) {
		n, err := r.Read(buf[recd:])
		recd += n
		if err != nil {
			if retryable(err) {
				continue
			}
			if closedByPeer(err) {
				if recd == 0 {
					return ErrPeerClosed
				}
				return fmt.Errorf("netio: short read of %d/%d bytes: %w", recd, len(buf), ErrPeerClosed)
			}
			return fmt.Errorf("netio: read failed after %d/%d bytes: %w", recd, len(buf), err)
		}
	}

	return nil
}

// retryable reports whether an I/O error is a transient signal interruption
// that should be retried rather than surfaced.
func retryable(err error) bool {
	return errors.Is(err, syscall.EINTR)
}

// closedByPeer reports whether an I/O error means the remote end closed the
// connection. EPIPE and ECONNRESET show up on writes to a closed TCP peer,
// EOF on reads from one, and ErrClosedPipe on synchronous in-memory pipes.
func closedByPeer(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ECONNRESET)
}
