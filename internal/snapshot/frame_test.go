package snapshot

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundtrip(t *testing.T) {
	state := []byte(`{"id":"d1","name":"sketch","shapes":{},"zOrder":[]}`)
	for _, compress := range []bool{false, true} {
		frame, err := EncodeFrame(state, compress)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(frame), HeaderSize)
		assert.Equal(t, Magic, string(frame[0:4]))

		got, err := DecodeFrame(frame)
		require.NoError(t, err)
		assert.Equal(t, state, got)
	}
}

func TestFrameBitFlipDetected(t *testing.T) {
	state := []byte(`{"id":"d1","shapes":{"a":{"kind":"path"}}}`)
	frame, err := EncodeFrame(state, false)
	require.NoError(t, err)

	// Flip a payload bit: checksum must catch it.
	frame[HeaderSize+4] ^= 0x01
	_, err = DecodeFrame(frame)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestFrameBadMagic(t *testing.T) {
	frame, err := EncodeFrame([]byte("{}"), false)
	require.NoError(t, err)
	copy(frame[0:4], "NOPE")
	_, err = DecodeFrame(frame)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestFrameUnsupportedVersion(t *testing.T) {
	frame, err := EncodeFrame([]byte("{}"), false)
	require.NoError(t, err)
	frame[4] = 99
	_, err = DecodeFrame(frame)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestFrameUnknownCompressionKind(t *testing.T) {
	frame, err := EncodeFrame([]byte("{}"), false)
	require.NoError(t, err)
	frame[5] = 7
	_, err = DecodeFrame(frame)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestFrameGzipGarbage(t *testing.T) {
	frame, err := EncodeFrame([]byte(`{"id":"d1"}`), true)
	require.NoError(t, err)
	// Stomp the gzip stream; decompression failure is the same corrupt kind.
	for i := HeaderSize; i < len(frame); i++ {
		frame[i] = 0xAA
	}
	_, err = DecodeFrame(frame)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestFrameShort(t *testing.T) {
	_, err := DecodeFrame([]byte("SCRB"))
	require.True(t, errors.Is(err, ErrCorrupt))
}
