package log

import (
	"context"
	"fmt"
	stdlog "log"
	"log/slog"
	"strings"
	"time"
)

// Level represents the severity level of a log message.
type Level int

// Log levels
const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a textual level ("debug", "info", "warn", "error").
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	}
	return InfoLevel, fmt.Errorf("log: unknown level %q", s)
}

// Fields is a map of field names to values.
type Fields map[string]interface{}

// ComponentKey tags entries with the emitting component.
const ComponentKey = "component"

// Entry represents a single log entry flowing through the pipeline.
type Entry struct {
	Level     Level
	Message   string
	Fields    Fields
	Timestamp time.Time
}

// Logger is the logging interface Scribe components are written against.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With returns a child logger with the fields bound.
	With(fields ...Field) Logger
	// WithComponent tags the logger with a component name.
	WithComponent(component string) Logger

	SetLevel(level Level)
	GetLevel() Level
}

// Formatter renders an Entry to bytes.
type Formatter interface {
	Format(entry *Entry) ([]byte, error)
}

// Output receives formatted entries.
type Output interface {
	Write(entry *Entry, formatted []byte) error
	Close() error
}

// LoggerOption configures a logger under construction.
type LoggerOption func(*BaseLogger)

// BaseLogger implements Logger on top of a slog bridge.
type BaseLogger struct {
	level      Level
	formatter  Formatter
	outputs    []Output
	slogLogger *slog.Logger
}

// NewLogger creates a new logger with the given options.
func NewLogger(options ...LoggerOption) Logger {
	logger := &BaseLogger{
		level:     InfoLevel,
		formatter: &TextFormatter{},
	}
	for _, option := range options {
		option(logger)
	}
	if len(logger.outputs) == 0 {
		logger.outputs = []Output{NewConsoleOutput()}
	}
	logger.slogLogger = slog.New(newBridgeHandler(logger))
	return logger
}

// NewNopLogger returns a logger that discards everything. Safe default for
// components constructed without an explicit logger.
func NewNopLogger() Logger {
	return NewLogger(WithOutput(NullOutput{}))
}

// WithLevel sets the minimum log level.
func WithLevel(level Level) LoggerOption {
	return func(l *BaseLogger) { l.level = level }
}

// WithFormatter sets the log formatter.
func WithFormatter(formatter Formatter) LoggerOption {
	return func(l *BaseLogger) { l.formatter = formatter }
}

// WithOutput adds an output to the logger.
func WithOutput(output Output) LoggerOption {
	return func(l *BaseLogger) { l.outputs = append(l.outputs, output) }
}

func (l *BaseLogger) Debug(msg string, fields ...Field) { l.emit(slog.LevelDebug, msg, fields) }
func (l *BaseLogger) Info(msg string, fields ...Field)  { l.emit(slog.LevelInfo, msg, fields) }
func (l *BaseLogger) Warn(msg string, fields ...Field)  { l.emit(slog.LevelWarn, msg, fields) }
func (l *BaseLogger) Error(msg string, fields ...Field) { l.emit(slog.LevelError, msg, fields) }

func (l *BaseLogger) emit(level slog.Level, msg string, fields []Field) {
	l.slogLogger.LogAttrs(context.Background(), level, msg, attrsFromFields(fields)...)
}

// With returns a child logger with the fields bound.
func (l *BaseLogger) With(fields ...Field) Logger {
	child := *l
	child.slogLogger = slog.New(l.handler().WithAttrs(attrsFromFields(fields)))
	return &child
}

// WithComponent tags the logger with a component name.
func (l *BaseLogger) WithComponent(component string) Logger {
	return l.With(Component(component))
}

// SetLevel sets the minimum log level.
func (l *BaseLogger) SetLevel(level Level) { l.level = level }

// GetLevel returns the current minimum log level.
func (l *BaseLogger) GetLevel() Level { return l.level }

func (l *BaseLogger) handler() slog.Handler { return l.slogLogger.Handler() }

// RedirectStdLog routes the standard library's global logger through lg at
// info level. Pebble and other std-log users then share the same pipeline.
func RedirectStdLog(lg Logger) {
	base, ok := lg.(*BaseLogger)
	if !ok {
		return
	}
	stdlog.SetFlags(0)
	stdlog.SetOutput(&stdWriter{h: base.handler()})
}

type stdWriter struct {
	h slog.Handler
}

func (w *stdWriter) Write(p []byte) (int, error) {
	msg := strings.TrimSuffix(string(p), "\n")
	rec := slog.NewRecord(time.Now(), slog.LevelInfo, msg, 0)
	_ = w.h.Handle(context.Background(), rec)
	return len(p), nil
}
