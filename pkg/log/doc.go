// Package log provides Scribe's structured logging facade.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// Field type for structured context. Internally it is backed by the standard
// library's slog via a bridge handler that preserves the formatter/output
// pipeline, so slog-aware libraries can share the same sink.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.WithComponent("snapshot")
//	l.Info("snapshot written", log.Uint64("seq", 512), log.Int("bytes", 20480))
//
// # Interop
//
// RedirectStdLog routes the standard library's global logger (used by Pebble
// among others) through a Logger so all output shares one format.
package log
