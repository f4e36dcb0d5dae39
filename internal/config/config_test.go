package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.SamplingIntervalMs != 50 || cfg.GroupIdleTimeoutMs != 200 || cfg.UndoDepth != 100 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Snapshot.EventThreshold != 500 || cfg.Snapshot.BacklogLimit != 3 {
		t.Fatalf("unexpected snapshot defaults: %+v", cfg.Snapshot)
	}
}

func TestLoadFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scribe.json")
	body := `{"samplingIntervalMs": 25, "snapshot": {"eventThreshold": 100}}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SamplingIntervalMs != 25 {
		t.Fatalf("file overlay ignored: %d", cfg.SamplingIntervalMs)
	}
	if cfg.Snapshot.EventThreshold != 100 {
		t.Fatalf("nested overlay ignored: %d", cfg.Snapshot.EventThreshold)
	}
	// untouched keys keep defaults
	if cfg.GroupIdleTimeoutMs != 200 {
		t.Fatalf("default lost: %d", cfg.GroupIdleTimeoutMs)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("SCRIBE_UNDO_DEPTH", "7")
	t.Setenv("SCRIBE_SNAPSHOT_COMPRESS", "false")
	cfg := Default()
	FromEnv(&cfg)
	if cfg.UndoDepth != 7 {
		t.Fatalf("env overlay ignored: %d", cfg.UndoDepth)
	}
	if cfg.Snapshot.Compress {
		t.Fatalf("bool env overlay ignored")
	}
}
