// Package buffer keeps the most recent parsed records of a streaming run.
package buffer

import (
	"sync"

	"github.com/Geun-Oh/lvlstat/internal/entry"
)

// DefaultCapacity is used when NewRing is given a non-positive capacity.
const DefaultCapacity = 256

// Ring is a fixed-capacity circular buffer of records.
// When full, the oldest records are silently evicted.
// All operations are goroutine-safe.
type Ring struct {
	mu       sync.RWMutex
	records  []entry.Record
	head     int // next write position
	count    int
	capacity int
	dropped  uint64 // total evicted records
}

// NewRing creates a ring buffer with the given capacity.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{
		records:  make([]entry.Record, capacity),
		capacity: capacity,
	}
}

// Push adds a record, evicting the oldest when full.
func (r *Ring) Push(rec entry.Record) {
	r.mu.Lock()
	r.records[r.head] = rec
	r.head = (r.head + 1) % r.capacity
	if r.count < r.capacity {
		r.count++
	} else {
		r.dropped++
	}
	r.mu.Unlock()
}

// Last returns up to n of the newest records, oldest first.
func (r *Ring) Last(n int) []entry.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if n > r.count {
		n = r.count
	}
	if n <= 0 {
		return nil
	}

	result := make([]entry.Record, n)
	start := (r.head - n + r.capacity) % r.capacity
	for i := 0; i < n; i++ {
		result[i] = r.records[(start+i)%r.capacity]
	}
	return result
}

// Snapshot returns a copy of all buffered records in chronological order.
func (r *Ring) Snapshot() []entry.Record {
	r.mu.RLock()
	n := r.count
	r.mu.RUnlock()
	return r.Last(n)
}

// Len returns the current number of records in the buffer.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

// Dropped returns the total number of evicted records.
func (r *Ring) Dropped() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dropped
}
