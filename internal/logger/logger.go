// Package logger provides structured logging for the pipeline stages.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog with a mutable level.
type Logger struct {
	internal *slog.Logger
	level    *slog.LevelVar
}

// New creates a logger writing to stderr at the given level
// (debug, info, warn, error; anything else means info).
func New(level string) *Logger {
	return NewWithWriter(os.Stderr, level)
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(w io.Writer, level string) *Logger {
	lvl := new(slog.LevelVar)

	switch strings.ToLower(level) {
	case "debug":
		lvl.Set(slog.LevelDebug)
	case "warn":
		lvl.Set(slog.LevelWarn)
	case "error":
		lvl.Set(slog.LevelError)
	default:
		lvl.Set(slog.LevelInfo)
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})

	return &Logger{
		internal: slog.New(handler),
		level:    lvl,
	}
}

// Debug logs a debug level message.
func (l *Logger) Debug(msg string, args ...any) {
	l.internal.Debug(msg, args...)
}

// Info logs an info level message.
func (l *Logger) Info(msg string, args ...any) {
	l.internal.Info(msg, args...)
}

// Warn logs a warning level message.
func (l *Logger) Warn(msg string, args ...any) {
	l.internal.Warn(msg, args...)
}

// Error logs an error level message.
func (l *Logger) Error(msg string, args ...any) {
	l.internal.Error(msg, args...)
}

// With returns a child logger with the given attributes attached.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		internal: l.internal.With(args...),
		level:    l.level,
	}
}
