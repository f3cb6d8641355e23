// Package logging builds the slog loggers used across lvlstat and provides
// small wrappers that add logging around a call.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

const service = "lvlstat"

// New returns a slog.Logger writing to w. format is "json" or "text" (default).
func New(w io.Writer, level slog.Level, format string) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch format {
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h).With("service", service)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel converts a level name such as "debug" or "WARN" to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Timed runs fn, logs how long it took under name, and returns its result
// together with the elapsed time.
func Timed[T any](logger *slog.Logger, name string, fn func() (T, error)) (T, time.Duration, error) {
	start := time.Now()
	result, err := fn()
	elapsed := time.Since(start)

	if logger != nil {
		logger.Info("function finished", "func", name, "elapsed", fmt.Sprintf("%.4fs", elapsed.Seconds()))
	}
	return result, elapsed, err
}
