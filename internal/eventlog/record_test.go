package eventlog

import (
	"encoding/binary"
	"testing"
)

func TestRowRoundtrip(t *testing.T) {
	rec := EncodeRow([]byte("hdr"), []byte("payload"))
	dec, ok := DecodeRow(rec)
	if !ok {
		t.Fatalf("decode failed")
	}
	if string(dec.Header) != "hdr" || string(dec.Payload) != "payload" {
		t.Fatalf("roundtrip mismatch: %q %q", dec.Header, dec.Payload)
	}
}

func TestRowChecksumFailure(t *testing.T) {
	// Flip one bit in the payload and one in the stored checksum; both must
	// fail verification.
	for _, idx := range []int{2, -1} {
		rec := EncodeRow([]byte("h"), []byte("p"))
		i := idx
		if i < 0 {
			i = len(rec) + i
		}
		rec[i] ^= 0x01
		if _, ok := DecodeRow(rec); ok {
			t.Fatalf("bit flip at byte %d not detected", i)
		}
	}
}

func TestRowHugeHeaderLengthRejected(t *testing.T) {
	// A corrupted varint can claim a header length that wraps negative when
	// narrowed to int; the decoder must reject it, not panic.
	for _, hlen := range []uint64{1 << 63, ^uint64(0), 1 << 32} {
		var tmp [10]byte
		n := binary.PutUvarint(tmp[:], hlen)
		row := append(append([]byte(nil), tmp[:n]...), make([]byte, 16)...)
		if _, ok := DecodeRow(row); ok {
			t.Fatalf("row with header length %d accepted", hlen)
		}
	}
}

func TestRowTruncated(t *testing.T) {
	rec := EncodeRow([]byte("h"), []byte("p"))
	if _, ok := DecodeRow(rec[:3]); ok {
		t.Fatalf("truncated row accepted")
	}
	if _, ok := DecodeRow(nil); ok {
		t.Fatalf("empty row accepted")
	}
}
