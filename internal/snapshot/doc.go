// Package snapshot produces periodic, checksummed, optionally compressed
// snapshots of document state so replay cost stays bounded.
//
// The Manager owns a background worker per document. Triggers are hybrid: a
// hard event-count threshold always fires; between hard triggers an adaptive
// time budget fires early, continuously tuned by a sliding-window events/sec
// classifier (bursts shrink the budget, idle stretches it). A backlog guard
// suppresses the adaptive trigger once too many jobs are queued so the queue
// cannot grow without bound. Jobs travel over a task queue with per-job result
// channels; only sequences and serialized bytes cross the worker boundary.
//
// Snapshots are strictly an optimization. A failed job is logged and retried
// on the next trigger; the event log stays authoritative throughout.
//
// # Wire format
//
// A frame is a fixed 20-byte header followed by the payload:
//
//	offset 0  4B  ASCII magic "SCRB"
//	offset 4  1B  format version (1)
//	offset 5  1B  compression (0 = none, 1 = gzip)
//	offset 6  4B  little-endian uncompressed payload size
//	offset 10 4B  little-endian crc32c of the uncompressed payload
//	offset 14 6B  reserved, zero
//
// The payload is the document's canonical JSON, gzip-compressed when the
// compression byte says so.
package snapshot
