package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"

	"github.com/klauspost/compress/gzip"
)

const (
	// Magic marks a Scribe snapshot frame.
	Magic = "SCRB"
	// FormatVersion is the current frame version.
	FormatVersion = 1

	// CompressionNone and CompressionGzip are the defined compression kinds.
	CompressionNone byte = 0
	CompressionGzip byte = 1

	// HeaderSize is the fixed frame header length.
	HeaderSize = 20
)

// ErrCorrupt covers every way a frame can fail validation: bad magic, unknown
// version or compression kind, checksum mismatch, or decompression failure.
// Callers get a single recovery path: discard and fall back.
var ErrCorrupt = errors.New("snapshot: corrupt snapshot")

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// EncodeFrame frames canonical document-state bytes.
func EncodeFrame(state []byte, compress bool) ([]byte, error) {
	if uint64(len(state)) > math.MaxUint32 {
		return nil, fmt.Errorf("snapshot: state too large: %d bytes", len(state))
	}
	payload := state
	kind := CompressionNone
	if compress {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(state); err != nil {
			return nil, fmt.Errorf("snapshot: compress: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("snapshot: compress: %w", err)
		}
		payload = buf.Bytes()
		kind = CompressionGzip
	}

	out := make([]byte, HeaderSize, HeaderSize+len(payload))
	copy(out[0:4], Magic)
	out[4] = FormatVersion
	out[5] = kind
	binary.LittleEndian.PutUint32(out[6:10], uint32(len(state)))
	binary.LittleEndian.PutUint32(out[10:14], crc32.Checksum(state, castagnoli))
	// out[14:20] reserved
	return append(out, payload...), nil
}

// DecodeFrame validates a frame and returns the uncompressed state bytes.
// Any validation failure returns ErrCorrupt.
func DecodeFrame(frame []byte) ([]byte, error) {
	if len(frame) < HeaderSize {
		return nil, fmt.Errorf("%w: short frame (%d bytes)", ErrCorrupt, len(frame))
	}
	if string(frame[0:4]) != Magic {
		return nil, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	if frame[4] != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, frame[4])
	}
	kind := frame[5]
	size := binary.LittleEndian.Uint32(frame[6:10])
	sum := binary.LittleEndian.Uint32(frame[10:14])
	payload := frame[HeaderSize:]

	var state []byte
	switch kind {
	case CompressionNone:
		state = payload
	case CompressionGzip:
		zr, err := gzip.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("%w: gzip: %v", ErrCorrupt, err)
		}
		state, err = io.ReadAll(zr)
		if cerr := zr.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return nil, fmt.Errorf("%w: gzip: %v", ErrCorrupt, err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown compression kind %d", ErrCorrupt, kind)
	}

	if uint32(len(state)) != size {
		return nil, fmt.Errorf("%w: size mismatch (header %d, got %d)", ErrCorrupt, size, len(state))
	}
	if crc32.Checksum(state, castagnoli) != sum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}
	return state, nil
}
