// Package simulate provides the deterministic fallback providers invoked
// when a dependency's breaker is open, retries are exhausted, or the
// adapter runs in mock mode. Each provider produces a structurally complete,
// domain-shaped payload: the same request always yields the same result, so
// demo flows and compliance reviews are reproducible. Providers never
// return errors; a failure inside one is a defect the executor escalates.
package simulate

import (
	"context"
	"hash/fnv"
	"time"
)

// seed hashes the request's identifying fields into the value every
// weighted choice derives from.
func seed(parts ...string) uint64 {
	h := fnv.New64a()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}

// pickWeighted selects an index from weights, deterministically for a given
// hash. Weights are relative; they need not sum to 100.
func pickWeighted(h uint64, weights ...int) int {
	total := 0
	for _, w := range weights {
		total += w
	}
	n := int(h % uint64(total)) //nolint:gosec // bounded by total
	for i, w := range weights {
		if n < w {
			return i
		}
		n -= w
	}
	return len(weights) - 1
}

// latency is the simulated processing delay for one operation class,
// proportional to the real dependency's expected latency so callers
// observing timing cannot trivially distinguish simulated from real.
type latency struct {
	base   time.Duration
	jitter time.Duration
}

// duration derives the concrete delay for a request hash.
func (l latency) duration(h uint64) time.Duration {
	if l.jitter <= 0 {
		return l.base
	}
	return l.base + time.Duration(h%uint64(l.jitter))
}

// wait suspends for d, capped by the caller's remaining deadline (with a
// small margin so the simulated result still arrives in time). It never
// fails: mock mode must not violate the caller's timeout contract.
func wait(ctx context.Context, d time.Duration) {
	const margin = 50 * time.Millisecond
	if dl, ok := ctx.Deadline(); ok {
		if rem := time.Until(dl) - margin; rem < d {
			d = rem
		}
	}
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
