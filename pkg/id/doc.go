// Package id provides 128-bit, lexicographically sortable event identifiers.
//
// An ID is 16 bytes big-endian: [8 bytes unix_ms][8 bytes sequence]. Byte-wise
// comparison preserves chronological order, and ids minted within the same
// millisecond stay strictly increasing by sequence. The generator pins to the
// last observed millisecond if the clock regresses, so ids from one process
// never go backwards. The timestamp half keeps ids collision-resistant across
// processes without any coordination.
package id
