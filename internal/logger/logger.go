// Package logger provides leveled printf-style logging on top of log/slog.
// Messages are formatted with fmt and emitted through a JSON or text handler.
// Until Init is called, only warnings and errors are written, to stderr.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu            sync.RWMutex
	defaultLogger = newLogger(os.Stderr, slog.LevelWarn, "text")
)

// ParseLevel maps a config level name to a slog level. Unknown names map to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if strings.ToLower(format) == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// Init configures the package logger to write to stderr.
func Init(level string, format string) {
	SetOutput(os.Stderr, level, format)
}

// SetOutput configures the package logger to write to w.
func SetOutput(w io.Writer, level string, format string) {
	l := newLogger(w, ParseLevel(level), format)
	mu.Lock()
	defaultLogger = l
	mu.Unlock()
}

// With returns a slog logger carrying the given attributes, for callers that
// want structured fields (for example a session ID).
func With(args ...any) *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger.With(args...)
}

func log(level slog.Level, format string, args ...interface{}) {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	if !l.Enabled(context.Background(), level) {
		return
	}
	l.Log(context.Background(), level, fmt.Sprintf(format, args...))
}

// Debug logs a message at debug level.
func Debug(format string, args ...interface{}) {
	log(slog.LevelDebug, format, args...)
}

// Info logs a message at info level.
func Info(format string, args ...interface{}) {
	log(slog.LevelInfo, format, args...)
}

// Warn logs a message at warn level.
func Warn(format string, args ...interface{}) {
	log(slog.LevelWarn, format, args...)
}

// Error logs a message at error level.
func Error(format string, args ...interface{}) {
	log(slog.LevelError, format, args...)
}

// Fatal logs a message at error level and exits.
func Fatal(format string, args ...interface{}) {
	log(slog.LevelError, "FATAL: "+format, args...)
	os.Exit(1)
}
