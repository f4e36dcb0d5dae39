package config

import (
	"os"
	"strconv"
)

// FromEnv overlays SCRIBE_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	setInt := func(name string, dst *int) {
		if v := os.Getenv(name); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setInt("SCRIBE_SAMPLING_INTERVAL_MS", &cfg.SamplingIntervalMs)
	setInt("SCRIBE_GROUP_IDLE_TIMEOUT_MS", &cfg.GroupIdleTimeoutMs)
	setInt("SCRIBE_UNDO_DEPTH", &cfg.UndoDepth)
	setInt("SCRIBE_SNAPSHOT_EVENT_THRESHOLD", &cfg.Snapshot.EventThreshold)
	setInt("SCRIBE_SNAPSHOT_MIN_INTERVAL_MS", &cfg.Snapshot.MinIntervalMs)
	setInt("SCRIBE_SNAPSHOT_MAX_INTERVAL_MS", &cfg.Snapshot.MaxIntervalMs)
	setInt("SCRIBE_SNAPSHOT_BACKLOG_LIMIT", &cfg.Snapshot.BacklogLimit)
	setInt("SCRIBE_SNAPSHOT_RETAIN", &cfg.Snapshot.Retain)
	if v := os.Getenv("SCRIBE_SNAPSHOT_COMPRESS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Snapshot.Compress = b
		}
	}
}
