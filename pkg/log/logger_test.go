package log

import (
	"strings"
	"sync"
	"testing"
)

type captureOutput struct {
	mu    sync.Mutex
	lines []string
}

func (c *captureOutput) Write(_ *Entry, formatted []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, string(formatted))
	return nil
}

func (c *captureOutput) Close() error { return nil }

func TestLevelGating(t *testing.T) {
	out := &captureOutput{}
	l := NewLogger(WithLevel(WarnLevel), WithOutput(out))
	l.Debug("d")
	l.Info("i")
	l.Warn("w")
	l.Error("e")
	if len(out.lines) != 2 {
		t.Fatalf("want 2 lines, got %d: %v", len(out.lines), out.lines)
	}
}

func TestWithComponentBindsField(t *testing.T) {
	out := &captureOutput{}
	l := NewLogger(WithOutput(out)).WithComponent("replay")
	l.Info("done", Uint64("seq", 42))
	if len(out.lines) != 1 {
		t.Fatalf("want 1 line, got %d", len(out.lines))
	}
	if !strings.Contains(out.lines[0], "component=replay") || !strings.Contains(out.lines[0], "seq=42") {
		t.Fatalf("missing fields: %q", out.lines[0])
	}
}

func TestJSONFormatter(t *testing.T) {
	out := &captureOutput{}
	l := NewLogger(WithFormatter(&JSONFormatter{}), WithOutput(out))
	l.Info("hello", Str("doc", "abc"))
	if len(out.lines) != 1 || !strings.Contains(out.lines[0], `"doc":"abc"`) {
		t.Fatalf("unexpected output: %v", out.lines)
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"debug": DebugLevel, "INFO": InfoLevel, "warn": WarnLevel, "error": ErrorLevel} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
