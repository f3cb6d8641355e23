package monitor

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Snapshot is a point-in-time copy of per-level counts.
type Snapshot map[string]int

// Total returns the sum of all counts.
func (s Snapshot) Total() int {
	total := 0
	for _, n := range s {
		total += n
	}
	return total
}

// String renders the snapshot with sorted keys, e.g. {ERROR: 1, INFO: 2}.
func (s Snapshot) String() string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("{")
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("%s: %d", k, s[k]))
	}
	sb.WriteString("}")
	return sb.String()
}

// Recorder is the mutation surface handed to ingestion tasks.
type Recorder interface {
	Increment(level string)
}

// Counter accumulates occurrences per level label.
// Increment and Snapshot are mutually exclusive, so a snapshot never sees a
// partially applied increment.
type Counter struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewCounter creates an empty counter.
func NewCounter() *Counter {
	return &Counter{counts: make(map[string]int)}
}

// Increment adds one occurrence of level.
func (c *Counter) Increment(level string) {
	c.mu.Lock()
	c.counts[level]++
	c.mu.Unlock()
}

// Snapshot returns an independent copy of the current counts.
func (c *Counter) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := make(Snapshot, len(c.counts))
	for k, v := range c.counts {
		snap[k] = v
	}
	return snap
}

type loggingRecorder struct {
	next   Recorder
	logger *slog.Logger
}

// WithCallLogging wraps r so that every Increment is logged at debug level.
func WithCallLogging(r Recorder, logger *slog.Logger) Recorder {
	if logger == nil {
		return r
	}
	return &loggingRecorder{next: r, logger: logger}
}

func (l *loggingRecorder) Increment(level string) {
	l.logger.Debug("calling Increment", "level", level)
	l.next.Increment(level)
	l.logger.Debug("finished Increment", "level", level)
}
