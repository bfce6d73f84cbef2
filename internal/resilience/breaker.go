package resilience

import (
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/mblcrm/lendgate/internal/domain/call"
)

// ErrCircuitOpen signals that the breaker denied the attempt. It is an
// internal routing signal: the executor converts it into a fallback
// invocation and it never reaches callers of this layer.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Config holds the per-dependency resilience settings, fixed at adapter
// construction time.
type Config struct {
	Timeout           time.Duration
	ErrorThresholdPct float64
	MinimumVolume     int
	ResetTimeout      time.Duration
	RollingWindow     time.Duration
	BucketCount       int
	MaxRetries        int
	BaseDelay         time.Duration
	MaxHalfOpenTrials int64
	Mock              bool
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.ErrorThresholdPct <= 0 {
		c.ErrorThresholdPct = 50
	}
	if c.MinimumVolume < 1 {
		c.MinimumVolume = 10
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = 60 * time.Second
	}
	if c.RollingWindow <= 0 {
		c.RollingWindow = 30 * time.Second
	}
	if c.BucketCount < 1 {
		c.BucketCount = 10
	}
	if c.MaxRetries < 1 {
		c.MaxRetries = 3
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = time.Second
	}
	if c.MaxHalfOpenTrials < 1 {
		c.MaxHalfOpenTrials = 1
	}
	return c
}

// Breaker is the per-dependency circuit breaker: a CLOSED/OPEN/HALF_OPEN
// state machine over a rolling error-rate window. One instance exists per
// dependency name for the process lifetime; all concurrent calls share it.
type Breaker struct {
	mu     sync.Mutex
	name   string
	cfg    Config
	state  call.BreakerState
	win    *window
	opened time.Time
	retry  time.Time
	trials *semaphore.Weighted
	now    func() time.Time // for testing

	onTransition func(from, to call.BreakerState, at time.Time)
}

func newBreaker(name string, cfg Config, onTransition func(from, to call.BreakerState, at time.Time)) *Breaker {
	cfg = cfg.withDefaults()
	b := &Breaker{
		name:         name,
		cfg:          cfg,
		state:        call.StateClosed,
		now:          time.Now,
		onTransition: onTransition,
	}
	b.win = newWindow(cfg.RollingWindow, cfg.BucketCount, func() time.Time { return b.now() })
	return b
}

// Permit is the right to perform one real attempt. Exactly one Observe call
// must follow; further calls are no-ops.
type Permit struct {
	b     *Breaker
	trial bool
	sem   *semaphore.Weighted
	done  bool
}

// Allow asks whether a real attempt may proceed. A denial means the
// dependency is not contacted at all, and leaves the rolling window
// untouched: denial is a consequence of breaker state, not fresh evidence
// against the dependency.
func (b *Breaker) Allow() (*Permit, error) {
	var ev *transition
	defer func() { b.notify(ev) }()

	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case call.StateClosed:
		return &Permit{b: b}, nil
	case call.StateOpen:
		if b.now().Before(b.retry) {
			return nil, ErrCircuitOpen
		}
		ev = b.transitionLocked(call.StateHalfOpen)
	case call.StateHalfOpen:
	}

	// Half-open: admit at most MaxHalfOpenTrials concurrent trial calls.
	// Arrivals past the cap are denied, not queued.
	if !b.trials.TryAcquire(1) {
		return nil, ErrCircuitOpen
	}
	return &Permit{b: b, trial: true, sem: b.trials}, nil
}

// Observe feeds the attempt's result back into the breaker.
func (p *Permit) Observe(success bool) {
	b := p.b

	var ev *transition
	defer func() { b.notify(ev) }()

	b.mu.Lock()
	defer b.mu.Unlock()

	if p.done {
		return
	}
	p.done = true

	if p.trial {
		p.sem.Release(1)
		// Ignore trials from a superseded half-open phase: a concurrent
		// trial already decided the transition.
		if b.state != call.StateHalfOpen || p.sem != b.trials {
			return
		}
		if success {
			b.win.Reset()
			ev = b.transitionLocked(call.StateClosed)
		} else {
			ev = b.openLocked()
		}
		return
	}

	b.win.Record(success)
	if b.state != call.StateClosed {
		return
	}
	s, f := b.win.Counts()
	if s+f < int64(b.cfg.MinimumVolume) {
		return
	}
	if b.win.ErrorRate()*100 >= b.cfg.ErrorThresholdPct {
		ev = b.openLocked()
	}
}

// transition is a state change captured under b.mu for notification after
// the lock is released.
type transition struct {
	from, to call.BreakerState
	at       time.Time
}

// openLocked transitions to OPEN and schedules the next half-open probe.
// Caller must hold b.mu.
func (b *Breaker) openLocked() *transition {
	b.opened = b.now()
	b.retry = b.opened.Add(b.cfg.ResetTimeout)
	return b.transitionLocked(call.StateOpen)
}

// transitionLocked flips state and returns the change for the caller to
// pass to notify once b.mu is released. Caller must hold b.mu.
func (b *Breaker) transitionLocked(to call.BreakerState) *transition {
	from := b.state
	if from == to {
		return nil
	}
	b.state = to
	if to == call.StateHalfOpen {
		b.trials = semaphore.NewWeighted(b.cfg.MaxHalfOpenTrials)
	}
	return &transition{from: from, to: to, at: b.now()}
}

// notify invokes the transition listener without holding b.mu, so a slow
// listener never stalls Allow, Observe, or Status.
func (b *Breaker) notify(ev *transition) {
	if ev == nil || b.onTransition == nil {
		return
	}
	b.onTransition(ev.from, ev.to, ev.at)
}

// State returns the current breaker state.
func (b *Breaker) State() call.BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Status is a point-in-time breaker snapshot for operational dashboards.
type Status struct {
	Dependency    string            `json:"dependency"`
	State         call.BreakerState `json:"state"`
	ErrorRate     float64           `json:"error_rate"`
	RecentSamples int64             `json:"recent_samples"`
	OpenedAt      *time.Time        `json:"opened_at,omitempty"`
	NextRetryAt   *time.Time        `json:"next_retry_at,omitempty"`
}

// Status snapshots the breaker for dashboards.
func (b *Breaker) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, f := b.win.Counts()
	st := Status{
		Dependency:    b.name,
		State:         b.state,
		ErrorRate:     b.win.ErrorRate(),
		RecentSamples: s + f,
	}
	if b.state != call.StateClosed {
		opened, retry := b.opened, b.retry
		st.OpenedAt = &opened
		st.NextRetryAt = &retry
	}
	return st
}
