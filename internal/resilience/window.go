// Package resilience provides reliability patterns for external service
// calls: a rolling-window circuit breaker, an exponential-backoff retry
// policy, and the executor composing them with fallback simulation.
package resilience

import (
	"sync"
	"time"
)

// window tracks successes and failures in fixed-duration buckets over a
// rolling interval. Stale buckets are evicted as time advances, so the error
// rate always reflects the configured window and nothing older.
type window struct {
	mu        sync.Mutex
	buckets   []bucket
	bucketDur time.Duration
	now       func() time.Time // for testing
}

type bucket struct {
	start     time.Time
	successes int64
	failures  int64
}

func newWindow(span time.Duration, count int, now func() time.Time) *window {
	if count < 1 {
		count = 1
	}
	if span <= 0 {
		span = 30 * time.Second
	}
	return &window{
		buckets:   make([]bucket, count),
		bucketDur: span / time.Duration(count),
		now:       now,
	}
}

// slot returns the live bucket for the current instant, resetting it first
// if it holds counts from a previous rotation of the ring.
func (w *window) slot() *bucket {
	t := w.now().Truncate(w.bucketDur)
	i := int(t.UnixNano()/int64(w.bucketDur)) % len(w.buckets)
	b := &w.buckets[i]
	if !b.start.Equal(t) {
		*b = bucket{start: t}
	}
	return b
}

// Record increments the current bucket.
func (w *window) Record(success bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	b := w.slot()
	if success {
		b.successes++
	} else {
		b.failures++
	}
}

// Counts returns live success and failure totals across the window.
func (w *window) Counts() (successes, failures int64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	oldest := w.now().Add(-w.bucketDur * time.Duration(len(w.buckets)))
	for i := range w.buckets {
		b := &w.buckets[i]
		if b.start.IsZero() || !b.start.After(oldest) {
			continue
		}
		successes += b.successes
		failures += b.failures
	}
	return successes, failures
}

// ErrorRate returns failures / (failures + successes) across live buckets.
// No samples reads as 0: total silence is treated as healthy.
func (w *window) ErrorRate() float64 {
	s, f := w.Counts()
	total := s + f
	if total == 0 {
		return 0
	}
	return float64(f) / float64(total)
}

// Reset drops all samples. Called when the breaker closes after a successful
// half-open trial so re-opening needs fresh volume.
func (w *window) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i := range w.buckets {
		w.buckets[i] = bucket{}
	}
}
