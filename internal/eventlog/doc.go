// Package eventlog implements the durable, append-only, per-document event
// log. It is the single source of truth: snapshots are an optimization layered
// on top and are stored behind the same boundary.
//
// # Keyspace
//
// Keys are lexicographically ordered for range scans (all sequences big-endian):
//   - doc/{docID}/m            document record: head sequence, created-at
//   - doc/{docID}/e/{seq_be8}  event rows, crc32c-framed
//   - doc/{docID}/s/{seq_be8}  snapshot rows (framed binary payload)
//
// # Guarantees
//
// Append assigns the next sequence atomically under a per-document writer
// lock and commits the row plus the head metadata in one synced batch; a
// return from Append implies the event is on disk. Reads may run concurrently
// with writes. OpenDocument runs an integrity scan (sequence continuity and
// record checksums) and truncates a corrupt tail rather than refusing to
// open, the same recovery posture the replayer takes for bad snapshots.
package eventlog
