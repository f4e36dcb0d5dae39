package eventlog

import "encoding/binary"

// Keyspace layout:
//   doc/{docID}/m
//   doc/{docID}/e/{seq_be8}
//   doc/{docID}/s/{seq_be8}

var (
	docPrefix  = []byte("doc/")
	metaSuffix = []byte("/m")
	entrySeg   = []byte("/e/")
	snapSeg    = []byte("/s/")
)

func appendBE8(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(dst, b[:]...)
}

// KeyDocMeta builds the document record key.
func KeyDocMeta(docID string) []byte {
	k := make([]byte, 0, len(docPrefix)+len(docID)+len(metaSuffix))
	k = append(k, docPrefix...)
	k = append(k, docID...)
	k = append(k, metaSuffix...)
	return k
}

// KeyEvent builds an event row key; big-endian sequence keeps scan order.
func KeyEvent(docID string, seq uint64) []byte {
	k := make([]byte, 0, len(docPrefix)+len(docID)+len(entrySeg)+8)
	k = append(k, docPrefix...)
	k = append(k, docID...)
	k = append(k, entrySeg...)
	k = appendBE8(k, seq)
	return k
}

// KeySnapshot builds a snapshot row key.
func KeySnapshot(docID string, seq uint64) []byte {
	k := make([]byte, 0, len(docPrefix)+len(docID)+len(snapSeg)+8)
	k = append(k, docPrefix...)
	k = append(k, docID...)
	k = append(k, snapSeg...)
	k = appendBE8(k, seq)
	return k
}

// seqFromKey extracts the trailing 8-byte sequence from an event or snapshot key.
func seqFromKey(key []byte) uint64 {
	return binary.BigEndian.Uint64(key[len(key)-8:])
}
