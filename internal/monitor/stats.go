// Package monitor provides the level counter and line statistics for a run.
package monitor

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Stats collects line totals in a lock-free manner.
type Stats struct {
	totalLines     atomic.Uint64
	parsedLines    atomic.Uint64
	discardedLines atomic.Uint64
	startTime      time.Time
}

// NewStats creates a new statistics collector.
func NewStats() *Stats {
	return &Stats{
		startTime: time.Now(),
	}
}

// RecordLine increments the total line counter.
func (s *Stats) RecordLine() {
	s.totalLines.Add(1)
}

// RecordParsed increments the parsed line counter.
func (s *Stats) RecordParsed() {
	s.parsedLines.Add(1)
}

// RecordDiscarded increments the malformed line counter.
func (s *Stats) RecordDiscarded() {
	s.discardedLines.Add(1)
}

// Total returns the number of lines read.
func (s *Stats) Total() uint64 {
	return s.totalLines.Load()
}

// Parsed returns the number of lines that matched the log format.
func (s *Stats) Parsed() uint64 {
	return s.parsedLines.Load()
}

// Discarded returns the number of malformed lines.
func (s *Stats) Discarded() uint64 {
	return s.discardedLines.Load()
}

// Elapsed returns the time since monitoring started.
func (s *Stats) Elapsed() time.Duration {
	return time.Since(s.startTime)
}

// Rate returns the current lines per second.
func (s *Stats) Rate() float64 {
	elapsed := s.Elapsed().Seconds()
	if elapsed == 0 {
		return 0
	}
	return float64(s.Total()) / elapsed
}

// Summary returns a formatted summary string.
func (s *Stats) Summary() string {
	return fmt.Sprintf(
		"── Summary ──\n"+
			"  Total lines:     %d\n"+
			"  Parsed lines:    %d\n"+
			"  Discarded lines: %d\n"+
			"  Throughput:      %.0f lines/s\n"+
			"─────────────",
		s.Total(), s.Parsed(), s.Discarded(), s.Rate(),
	)
}
