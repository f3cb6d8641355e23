// Package sink defines where periodic level-count reports are written.
package sink

import (
	"io"
	"time"

	"github.com/Geun-Oh/lvlstat/internal/monitor"
)

// Report is one periodic reading of a streaming run.
type Report struct {
	RunID     string
	Time      time.Time
	Snapshot  monitor.Snapshot
	Lines     uint64
	Discarded uint64
}

// Sink receives reports and writes them to an output destination.
type Sink interface {
	// Write outputs a single report.
	Write(r *Report) error

	// Flush ensures all buffered output is written.
	Flush() error

	// Close releases resources held by the sink.
	Close() error

	// Name returns a human-readable identifier for this sink.
	Name() string
}

// New returns the stdout-style sink for format: "json" or "text" (default).
func New(format string, w io.Writer, color bool) Sink {
	if format == "json" {
		return NewJSONSink(w)
	}
	return NewTerminalSink(w, color)
}
