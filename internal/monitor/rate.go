package monitor

import (
	"sync"
	"time"
)

// RateDetector tracks parsed-line throughput in one-second buckets over a
// sliding window and flags bursts.
type RateDetector struct {
	mu         sync.Mutex
	window     time.Duration
	buckets    []int64     // per-second counters
	timestamps []time.Time // start of each bucket
	threshold  float64     // burst multiplier over the window average
	now        func() time.Time
}

// NewRateDetector creates a rate detector. A window under one second falls
// back to 10s and a non-positive threshold to 3x.
func NewRateDetector(window time.Duration, threshold float64) *RateDetector {
	return newRateDetector(window, threshold, time.Now)
}

func newRateDetector(window time.Duration, threshold float64, now func() time.Time) *RateDetector {
	if window < time.Second {
		window = 10 * time.Second
	}
	if threshold <= 0 {
		threshold = 3.0
	}
	if now == nil {
		now = time.Now
	}
	return &RateDetector{
		window:    window,
		threshold: threshold,
		now:       now,
	}
}

// Record adds one line at the current time and reports whether the latest
// second is a burst.
func (r *RateDetector) Record() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.prune(now)

	truncated := now.Truncate(time.Second)
	if n := len(r.timestamps); n > 0 && r.timestamps[n-1].Equal(truncated) {
		r.buckets[n-1]++
	} else {
		r.buckets = append(r.buckets, 1)
		r.timestamps = append(r.timestamps, truncated)
	}

	return r.isSpiking()
}

// CurrentRate returns lines per second averaged over the window.
func (r *RateDetector) CurrentRate() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prune(r.now())

	var total int64
	for _, b := range r.buckets {
		total += b
	}
	return float64(total) / r.window.Seconds()
}

// Spiking reports whether the most recent second is a burst.
func (r *RateDetector) Spiking() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prune(r.now())
	return r.isSpiking()
}

// prune drops buckets older than the window. Must be called with lock held.
func (r *RateDetector) prune(now time.Time) {
	cutoff := now.Add(-r.window)
	i := 0
	for i < len(r.timestamps) && r.timestamps[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		r.buckets = r.buckets[i:]
		r.timestamps = r.timestamps[i:]
	}
}

// isSpiking compares the latest bucket to the average of the earlier ones.
// Must be called with lock held.
func (r *RateDetector) isSpiking() bool {
	if len(r.buckets) < 3 {
		return false
	}

	var sum int64
	for _, b := range r.buckets[:len(r.buckets)-1] {
		sum += b
	}
	avg := float64(sum) / float64(len(r.buckets)-1)
	if avg == 0 {
		return false
	}

	latest := float64(r.buckets[len(r.buckets)-1])
	return latest > avg*r.threshold
}
