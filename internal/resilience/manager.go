package resilience

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/mblcrm/lendgate/internal/domain/call"
	"github.com/mblcrm/lendgate/internal/port/audit"
)

// TransitionEvent describes one breaker state change.
type TransitionEvent struct {
	Dependency string            `json:"dependency"`
	From       call.BreakerState `json:"from"`
	To         call.BreakerState `json:"to"`
	At         time.Time         `json:"at"`
}

// TransitionListener receives breaker state changes (dashboards, event
// publishers). Listeners run synchronously on the transitioning call's
// goroutine, after the breaker lock is released: a slow listener delays
// that one call's return, never the breaker itself.
type TransitionListener func(TransitionEvent)

// Observer receives per-call measurements for metrics export.
type Observer interface {
	ObserveCall(dependency, operation string, success, simulated bool, seconds float64)
	ObserveTransition(ev TransitionEvent)
}

// Manager owns the breaker registry: exactly one breaker per dependency
// name, created on first use, alive for the process lifetime. It is a
// constructed object passed by injection, so tests get a fresh registry.
type Manager struct {
	mu        sync.Mutex
	breakers  map[string]*Breaker
	listeners []TransitionListener

	logger   *slog.Logger
	auditor  *audit.Auditor
	observer Observer
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithObserver attaches a metrics observer.
func WithObserver(o Observer) ManagerOption {
	return func(m *Manager) { m.observer = o }
}

// WithTransitionListener registers a breaker state-change listener.
func WithTransitionListener(l TransitionListener) ManagerOption {
	return func(m *Manager) { m.listeners = append(m.listeners, l) }
}

// NewManager creates an empty registry. A nil logger falls back to
// slog.Default; a nil auditor means call outcomes are not audited.
func NewManager(logger *slog.Logger, auditor *audit.Auditor, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		breakers: make(map[string]*Breaker),
		logger:   logger,
		auditor:  auditor,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// breaker returns the breaker for name, creating it on first use. The
// config of the first caller wins; later callers share the instance.
func (m *Manager) breaker(name string, cfg Config) *Breaker {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b, ok := m.breakers[name]; ok {
		return b
	}
	b := newBreaker(name, cfg, func(from, to call.BreakerState, at time.Time) {
		m.notifyTransition(TransitionEvent{Dependency: name, From: from, To: to, At: at})
	})
	m.breakers[name] = b
	return b
}

// AddTransitionListener registers a listener after construction, for
// consumers that themselves need the Manager to exist first.
func (m *Manager) AddTransitionListener(l TransitionListener) {
	m.mu.Lock()
	m.listeners = append(m.listeners, l)
	m.mu.Unlock()
}

func (m *Manager) notifyTransition(ev TransitionEvent) {
	m.logger.Info("breaker state changed",
		"dependency", ev.Dependency,
		"from", string(ev.From),
		"to", string(ev.To),
	)
	if m.observer != nil {
		m.observer.ObserveTransition(ev)
	}
	m.mu.Lock()
	listeners := make([]TransitionListener, len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()
	for _, l := range listeners {
		l(ev)
	}
}

// Dependency binds a name to its breaker, retry policy and fallback
// strategy. Mock mode is decided here, once, at construction: call-time
// code never branches on configuration.
func (m *Manager) Dependency(name string, cfg Config) *Dependency {
	cfg = cfg.withDefaults()
	return &Dependency{
		name:    name,
		cfg:     cfg,
		breaker: m.breaker(name, cfg),
		manager: m,
		logger:  m.logger.With("dependency", name),
	}
}

// Status returns the snapshot for one dependency.
func (m *Manager) Status(name string) (Status, bool) {
	m.mu.Lock()
	b, ok := m.breakers[name]
	m.mu.Unlock()
	if !ok {
		return Status{}, false
	}
	return b.Status(), true
}

// StatusAll returns snapshots for every registered dependency, sorted by
// name for stable dashboard output.
func (m *Manager) StatusAll() []Status {
	m.mu.Lock()
	names := make([]string, 0, len(m.breakers))
	for name := range m.breakers {
		names = append(names, name)
	}
	m.mu.Unlock()
	sort.Strings(names)

	out := make([]Status, 0, len(names))
	for _, name := range names {
		if st, ok := m.Status(name); ok {
			out = append(out, st)
		}
	}
	return out
}
