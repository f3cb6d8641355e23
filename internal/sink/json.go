package sink

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// jsonReport is the serialization format for JSON Lines output.
type jsonReport struct {
	Time      string         `json:"time"`
	RunID     string         `json:"run_id,omitempty"`
	Counts    map[string]int `json:"counts"`
	Lines     uint64         `json:"lines"`
	Discarded uint64         `json:"discarded"`
}

// JSONSink writes reports as JSON Lines (one JSON object per line).
type JSONSink struct {
	w   io.Writer
	enc *json.Encoder
}

// NewJSONSink creates a JSON Lines sink writing to the given writer.
func NewJSONSink(w io.Writer) *JSONSink {
	if w == nil {
		w = os.Stdout
	}
	return &JSONSink{
		w:   w,
		enc: json.NewEncoder(w),
	}
}

// Write serializes a report as a single JSON line.
func (s *JSONSink) Write(r *Report) error {
	counts := map[string]int(r.Snapshot)
	if counts == nil {
		counts = map[string]int{}
	}
	return s.enc.Encode(jsonReport{
		Time:      r.Time.Format("2006-01-02T15:04:05.000Z07:00"),
		RunID:     r.RunID,
		Counts:    counts,
		Lines:     r.Lines,
		Discarded: r.Discarded,
	})
}

// Flush is a no-op for JSON sink.
func (s *JSONSink) Flush() error { return nil }

// Close is a no-op for JSON sink.
func (s *JSONSink) Close() error { return nil }

// Name returns the sink identifier.
func (s *JSONSink) Name() string { return "json" }

// FileSink appends reports to a file.
type FileSink struct {
	inner Sink
	file  *os.File
}

// NewFileSink creates a sink that appends to the given file path.
// The format parameter selects the inner formatter: "json" or "text" (default).
func NewFileSink(path string, format string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open report file %s: %w", path, err)
	}

	return &FileSink{inner: New(format, f, false), file: f}, nil
}

// Write delegates to the inner sink.
func (s *FileSink) Write(r *Report) error {
	return s.inner.Write(r)
}

// Flush syncs the file to disk.
func (s *FileSink) Flush() error {
	return s.file.Sync()
}

// Close flushes and closes the file.
func (s *FileSink) Close() error {
	if err := s.Flush(); err != nil {
		return err
	}
	return s.file.Close()
}

// Name returns the sink identifier.
func (s *FileSink) Name() string {
	return "file:" + s.file.Name()
}
