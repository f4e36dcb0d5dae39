// Package metrics defines the pluggable observer surface the persistence core
// reports through. Telemetry transport lives outside this module; callers
// plug in whatever sink they want. Every hook must be safe to call from any
// goroutine, and the no-op observer must be fully safe so components never
// check for presence.
package metrics

import "time"

// Observer receives persistence-core measurements.
type Observer interface {
	// EventRecorded fires after an event append is durable.
	EventRecorded(docID string, seq uint64, eventType string, sampled bool)
	// ReplayCompleted fires after reconstruct returns.
	ReplayCompleted(docID string, targetSeq uint64, eventsApplied int, elapsed time.Duration)
	// SnapshotCreated fires after a snapshot is persisted.
	SnapshotCreated(docID string, seq uint64, payloadBytes int, elapsed time.Duration)
	// SnapshotLoaded fires after a snapshot is read and validated, or rejected.
	SnapshotLoaded(docID string, seq uint64, ok bool, elapsed time.Duration)
}

// Nop discards all observations.
type Nop struct{}

func (Nop) EventRecorded(string, uint64, string, bool)         {}
func (Nop) ReplayCompleted(string, uint64, int, time.Duration) {}
func (Nop) SnapshotCreated(string, uint64, int, time.Duration) {}
func (Nop) SnapshotLoaded(string, uint64, bool, time.Duration) {}

// OrNop returns obs, or a Nop observer when obs is nil.
func OrNop(obs Observer) Observer {
	if obs == nil {
		return Nop{}
	}
	return obs
}
