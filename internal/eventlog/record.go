package eventlog

import (
	"encoding/binary"
	"hash/crc32"
)

// Row encoding: varint headerLen | header | payload | crc32c(header|payload).
// The header carries the 8-byte big-endian append timestamp in ms; the payload
// is the event's JSON form.

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// EncodeRow frames a header and payload with a trailing checksum.
func EncodeRow(header, payload []byte) []byte {
	out := make([]byte, 0, 10+len(header)+len(payload)+4)
	var tmp [10]byte
	n := binary.PutUvarint(tmp[:], uint64(len(header)))
	out = append(out, tmp[:n]...)
	out = append(out, header...)
	out = append(out, payload...)

	crc := crc32.Update(0, castagnoli, header)
	crc = crc32.Update(crc, castagnoli, payload)
	var crcb [4]byte
	binary.BigEndian.PutUint32(crcb[:], crc)
	out = append(out, crcb[:]...)
	return out
}

// DecodedRow is the verified content of a framed row.
type DecodedRow struct {
	Header  []byte
	Payload []byte
}

// DecodeRow parses and checksum-verifies a framed row. ok is false for any
// truncation or checksum mismatch.
func DecodeRow(b []byte) (DecodedRow, bool) {
	if len(b) < 1+4 {
		return DecodedRow{}, false
	}
	hlen, n := binary.Uvarint(b)
	if n <= 0 {
		return DecodedRow{}, false
	}
	if n+4 > len(b) {
		return DecodedRow{}, false
	}
	// Compare in uint64: a corrupt varint near 2^64 must not wrap negative
	// through int and slip past the bounds check.
	if hlen > uint64(len(b)-n-4) {
		return DecodedRow{}, false
	}
	header := b[n : n+int(hlen)]
	payload := b[n+int(hlen) : len(b)-4]
	expect := binary.BigEndian.Uint32(b[len(b)-4:])
	crc := crc32.Update(0, castagnoli, header)
	crc = crc32.Update(crc, castagnoli, payload)
	if crc != expect {
		return DecodedRow{}, false
	}
	return DecodedRow{
		Header:  append([]byte(nil), header...),
		Payload: append([]byte(nil), payload...),
	}, true
}

// encodeTimestampHeader packs the append timestamp.
func encodeTimestampHeader(ms int64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(ms))
	return b[:]
}
