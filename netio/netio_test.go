package netio

import (
	"bytes"
	"io"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkWriter transfers at most max bytes per Write call, forcing callers to
// loop over short writes.
type chunkWriter struct {
	buf *bytes.Buffer
	max int
}

func (w *chunkWriter) Write(p []byte) (int, error) {
	if len(p) > w.max {
		p = p[:w.max]
	}
	return w.buf.Write(p)
}

// chunkReader transfers at most max bytes per Read call.
type chunkReader struct {
	buf *bytes.Buffer
	max int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(p) > r.max {
		p = p[:r.max]
	}
	return r.buf.Read(p)
}

// interruptedReader fails with EINTR a fixed number of times before
// delegating to the underlying reader.
type interruptedReader struct {
	r         io.Reader
	remaining int
}

func (r *interruptedReader) Read(p []byte) (int, error) {
	if r.remaining > 0 {
		r.remaining--
		return 0, syscall.EINTR
	}
	return r.r.Read(p)
}

// interruptedWriter fails with EINTR a fixed number of times before
// delegating to the underlying writer.
type interruptedWriter struct {
	w         io.Writer
	remaining int
}

func (w *interruptedWriter) Write(p []byte) (int, error) {
	if w.remaining > 0 {
		w.remaining--
		return 0, syscall.EINTR
	}
	return w.w.Write(p)
}

func TestWriteFull(t *testing.T) {
	t.Run("writes whole buffer across short writes", func(t *testing.T) {
		payload := []byte("a somewhat longer payload that will not fit in one write")
		for _, chunk := range []int{1, 2, 3, 7, 16, 1024} {
			out := &chunkWriter{buf: &bytes.Buffer{}, max: chunk}
			err := WriteFull(out, payload)
			require.NoError(t, err)
			assert.Equal(t, payload, out.buf.Bytes())
		}
	})

	t.Run("retries on signal interruption", func(t *testing.T) {
		var buf bytes.Buffer
		out := &interruptedWriter{w: &buf, remaining: 3}
		err := WriteFull(out, []byte("hello"))
		require.NoError(t, err)
		assert.Equal(t, "hello", buf.String())
	})

	t.Run("reports peer close on broken pipe", func(t *testing.T) {
		out := writerFunc(func(p []byte) (int, error) {
			return 0, syscall.EPIPE
		})
		err := WriteFull(out, []byte("hello"))
		assert.ErrorIs(t, err, ErrPeerClosed)
	})

	t.Run("surfaces other write errors", func(t *testing.T) {
		out := writerFunc(func(p []byte) (int, error) {
			return 0, syscall.EBADF
		})
		err := WriteFull(out, []byte("hello"))
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrPeerClosed)
		assert.ErrorIs(t, err, syscall.EBADF)
	})

	t.Run("empty buffer is a no-op", func(t *testing.T) {
		var buf bytes.Buffer
		assert.NoError(t, WriteFull(&buf, nil))
		assert.Zero(t, buf.Len())
	})
}

func TestReadFull(t *testing.T) {
	t.Run("fills buffer across short reads", func(t *testing.T) {
		payload := []byte("the quick brown fox jumps over the lazy dog")
		for _, chunk := range []int{1, 2, 5, 16, 1024} {
			src := &chunkReader{buf: bytes.NewBuffer(payload), max: chunk}
			got := make([]byte, len(payload))
			err := ReadFull(src, got)
			require.NoError(t, err)
			assert.Equal(t, payload, got)
		}
	})

	t.Run("retries on signal interruption", func(t *testing.T) {
		src := &interruptedReader{r: bytes.NewBufferString("hello"), remaining: 2}
		got := make([]byte, 5)
		err := ReadFull(src, got)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(got))
	})

	t.Run("immediate EOF reports peer closed", func(t *testing.T) {
		got := make([]byte, 8)
		err := ReadFull(bytes.NewBuffer(nil), got)
		assert.ErrorIs(t, err, ErrPeerClosed)
	})

	t.Run("EOF mid-buffer reports peer closed with short read", func(t *testing.T) {
		got := make([]byte, 8)
		err := ReadFull(bytes.NewBufferString("abc"), got)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrPeerClosed)
		assert.Contains(t, err.Error(), "3/8")
	})

	t.Run("surfaces other read errors", func(t *testing.T) {
		src := readerFunc(func(p []byte) (int, error) {
			return 0, syscall.EBADF
		})
		err := ReadFull(src, make([]byte, 4))
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrPeerClosed)
	})
}

// RoundTripChunked is the framing property: whatever chunk sizes the
// transport imposes on either side, ReadFull reconstructs exactly the bytes
// handed to WriteFull.
func TestRoundTripChunked(t *testing.T) {
	payload := make([]byte, 257)
	for i := range payload {
		payload[i] = byte(i % 251)
	}

	for _, wchunk := range []int{1, 3, 16, 64} {
		for _, rchunk := range []int{1, 5, 16, 300} {
			var wire bytes.Buffer
			require.NoError(t, WriteFull(&chunkWriter{buf: &wire, max: wchunk}, payload))

			got := make([]byte, len(payload))
			require.NoError(t, ReadFull(&chunkReader{buf: &wire, max: rchunk}, got))
			assert.Equal(t, payload, got)
		}
	}
}

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }

type readerFunc func(p []byte) (int, error)

func (f readerFunc) Read(p []byte) (int, error) { return f(p) }
