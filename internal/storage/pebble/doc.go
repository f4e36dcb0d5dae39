// Package pebblestore wraps a Pebble database with the durability policy the
// event log depends on. A commit with FsyncModeAlways returns only after the
// WAL is synced, which is what lets the log acknowledge an append as durable.
// FsyncModeInterval enables group-commit for tooling and bulk work;
// FsyncModeNever is for tests that do not care about durability.
package pebblestore
