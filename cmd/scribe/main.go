package main

import (
	"os"

	"github.com/scribe-editor/scribe/internal/cmd/inspect"
	logpkg "github.com/scribe-editor/scribe/pkg/log"
)

func main() {
	// Respect SCRIBE_LOG_LEVEL for CLI output
	level := os.Getenv("SCRIBE_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil || level == "" {
		parsed = logpkg.InfoLevel
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(parsed),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)

	// Redirect standard library logs (used by Pebble) to our logger
	logpkg.RedirectStdLog(logger)

	if err := inspect.NewRoot(logger).Execute(); err != nil {
		os.Exit(1)
	}
}
