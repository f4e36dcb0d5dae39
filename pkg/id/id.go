package id

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"math"
	"sync"
	"time"
)

// ID is a 128-bit, lexicographically sortable identifier.
type ID [16]byte

// Bytes returns the raw 16-byte representation.
func (i ID) Bytes() []byte {
	b := make([]byte, 16)
	copy(b, i[:])
	return b
}

// String returns the lowercase hex encoding.
func (i ID) String() string { return hex.EncodeToString(i[:]) }

// UnixMilli returns the millisecond timestamp half of the id.
func (i ID) UnixMilli() int64 { return int64(binary.BigEndian.Uint64(i[0:8])) }

// IsZero reports whether the id is the zero value.
func (i ID) IsZero() bool { return i == ID{} }

// Compare returns -1, 0, 1 by byte-wise comparison.
func (i ID) Compare(other ID) int {
	for idx := 0; idx < 16; idx++ {
		if i[idx] < other[idx] {
			return -1
		}
		if i[idx] > other[idx] {
			return 1
		}
	}
	return 0
}

// ErrInvalid is returned by Parse for malformed input.
var ErrInvalid = errors.New("id: invalid identifier")

// Parse decodes a 32-char hex string produced by String.
func Parse(s string) (ID, error) {
	if len(s) != 32 {
		return ID{}, ErrInvalid
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return ID{}, ErrInvalid
	}
	var out ID
	copy(out[:], b)
	return out, nil
}

// FromBytes copies a 16-byte slice into an ID.
func FromBytes(b []byte) (ID, error) {
	if len(b) != 16 {
		return ID{}, ErrInvalid
	}
	var out ID
	copy(out[:], b)
	return out, nil
}

// NowMs returns current time in milliseconds; overridable in tests.
var NowMs = func() int64 { return time.Now().UnixMilli() }

// Generator mints per-process monotonically increasing IDs.
type Generator struct {
	mu       sync.Mutex
	lastMs   int64
	sequence uint64
}

// NewGenerator creates a Generator.
func NewGenerator() *Generator { return &Generator{} }

// Next returns a new ID, strictly greater than any previous one from this
// generator.
func (g *Generator) Next() ID {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := NowMs()
	if ms < g.lastMs {
		ms = g.lastMs
	}
	if ms == g.lastMs {
		if g.sequence == math.MaxUint64 {
			for {
				ms = NowMs()
				if ms > g.lastMs {
					break
				}
				time.Sleep(time.Millisecond / 8)
			}
			g.sequence = 0
		} else {
			g.sequence++
		}
	} else {
		g.sequence = 0
	}
	g.lastMs = ms

	var out ID
	binary.BigEndian.PutUint64(out[0:8], uint64(ms))
	binary.BigEndian.PutUint64(out[8:16], g.sequence)
	return out
}
