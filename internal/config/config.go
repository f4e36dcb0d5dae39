// Package config loads Scribe's configuration from an optional JSON file with
// a SCRIBE_* environment overlay on top.
package config

import (
	"encoding/json"
	"os"
	"time"
)

// Config is the top-level configuration.
type Config struct {
	// SamplingIntervalMs throttles continuous-intent streams to one event per
	// interval per logical stream.
	SamplingIntervalMs int `json:"samplingIntervalMs"`
	// GroupIdleTimeoutMs closes an operation group after this much idle time.
	GroupIdleTimeoutMs int `json:"groupIdleTimeoutMs"`
	// UndoDepth bounds the undo stack; the oldest pointers fall off first.
	UndoDepth int `json:"undoDepth"`

	Snapshot SnapshotConfig `json:"snapshot"`
}

// SnapshotConfig tunes the snapshot manager.
type SnapshotConfig struct {
	// EventThreshold fires a snapshot after this many events since the last
	// one, regardless of timing.
	EventThreshold int `json:"eventThreshold"`
	// MinIntervalMs is the floor the adaptive interval shrinks to under burst
	// activity; MaxIntervalMs the ceiling it stretches to when idle.
	MinIntervalMs int `json:"minIntervalMs"`
	MaxIntervalMs int `json:"maxIntervalMs"`
	// BacklogLimit is the queued-job count past which only the hard event
	// threshold may trigger.
	BacklogLimit int `json:"backlogLimit"`
	// Retain is how many snapshots to keep per document.
	Retain int `json:"retain"`
	// Compress enables gzip compression of snapshot payloads.
	Compress bool `json:"compress"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		SamplingIntervalMs: 50,
		GroupIdleTimeoutMs: 200,
		UndoDepth:          100,
		Snapshot: SnapshotConfig{
			EventThreshold: 500,
			MinIntervalMs:  2_000,
			MaxIntervalMs:  60_000,
			BacklogLimit:   3,
			Retain:         5,
			Compress:       true,
		},
	}
}

// Load reads configuration from a JSON file layered over defaults. An empty
// path returns defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SamplingInterval returns the sampling interval as a duration.
func (c Config) SamplingInterval() time.Duration {
	return time.Duration(c.SamplingIntervalMs) * time.Millisecond
}

// GroupIdleTimeout returns the group idle timeout as a duration.
func (c Config) GroupIdleTimeout() time.Duration {
	return time.Duration(c.GroupIdleTimeoutMs) * time.Millisecond
}
