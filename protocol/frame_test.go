package protocol

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberinferno/netproto/netio"
)

func TestFrameWireFormat(t *testing.T) {
	t.Run("encodes little-endian", func(t *testing.T) {
		got := NewFrame(1).Marshal()
		assert.Equal(t, []byte{1, 0, 0, 0, 1, 0, 0, 0}, got)
	})

	t.Run("negative values use two's complement", func(t *testing.T) {
		got := NewFrame(-1).Marshal()
		assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, got)
	})

	t.Run("unmarshal inverts marshal", func(t *testing.T) {
		for _, v := range []int32{-1, 0, 1, 42, 1 << 30} {
			f, err := Unmarshal(NewFrame(v).Marshal())
			require.NoError(t, err)
			assert.Equal(t, NewFrame(v), f)
		}
	})

	t.Run("short buffer is rejected", func(t *testing.T) {
		_, err := Unmarshal([]byte{1, 2, 3})
		assert.ErrorIs(t, err, ErrShortFrame)
	})

	t.Run("extra bytes beyond one frame are ignored", func(t *testing.T) {
		buf := append(NewFrame(7).Marshal(), 0xde, 0xad)
		f, err := Unmarshal(buf)
		require.NoError(t, err)
		assert.Equal(t, NewFrame(7), f)
	})
}

func TestFrameSentinels(t *testing.T) {
	assert.True(t, NewFrame(CloseValue).IsClose())
	assert.True(t, NewFrame(ShutdownValue).IsShutdown())
	assert.False(t, NewFrame(1).IsClose())
	assert.False(t, NewFrame(1).IsShutdown())

	// A frame with only one half matching a sentinel is not that sentinel.
	assert.False(t, Frame{First: 0, Second: 5}.IsClose())
	assert.False(t, Frame{First: -1, Second: 5}.IsShutdown())
}

func TestFrameValidate(t *testing.T) {
	assert.NoError(t, NewFrame(3).Validate())

	err := Frame{First: 3, Second: 4}.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValueMismatch)
}

func TestFrameIncremented(t *testing.T) {
	assert.Equal(t, NewFrame(2), NewFrame(1).Incremented())
	assert.Equal(t, NewFrame(0), NewFrame(-1).Incremented())
}

func TestReadWriteFrame(t *testing.T) {
	t.Run("round trip over a buffer", func(t *testing.T) {
		var wire bytes.Buffer
		require.NoError(t, WriteFrame(&wire, NewFrame(9)))

		got, err := ReadFrame(&wire)
		require.NoError(t, err)
		assert.Equal(t, NewFrame(9), got)
	})

	t.Run("read from a closed peer reports peer closed", func(t *testing.T) {
		_, err := ReadFrame(bytes.NewBuffer(nil))
		assert.ErrorIs(t, err, netio.ErrPeerClosed)
	})

	t.Run("read of a truncated frame reports peer closed", func(t *testing.T) {
		wire := bytes.NewBuffer(NewFrame(9).Marshal()[:5])
		_, err := ReadFrame(wire)
		assert.ErrorIs(t, err, netio.ErrPeerClosed)
	})
}
