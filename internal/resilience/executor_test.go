package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mblcrm/lendgate/internal/domain/call"
	"github.com/mblcrm/lendgate/internal/port/audit"
)

// recorderSink captures audit entries for assertions.
type recorderSink struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *recorderSink) Record(_ context.Context, e audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *recorderSink) last(t *testing.T) audit.Entry {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		t.Fatal("expected at least one audit entry")
	}
	return r.entries[len(r.entries)-1]
}

func newTestDep(t *testing.T, cfg Config) (*Dependency, *recorderSink) {
	t.Helper()
	rec := &recorderSink{}
	m := NewManager(nil, audit.NewAuditor(nil, rec))
	return m.Dependency("test_dep", cfg), rec
}

func fastConfig() Config {
	return Config{
		MinimumVolume:     2,
		ErrorThresholdPct: 50,
		ResetTimeout:      time.Minute,
		MaxRetries:        3,
		BaseDelay:         time.Millisecond,
	}
}

func TestExecuteSuccessFirstAttempt(t *testing.T) {
	d, rec := newTestDep(t, fastConfig())

	out, err := Execute(context.Background(), d, "op",
		func(context.Context) (string, error) { return "real", nil },
		func(context.Context) (string, error) { return "sim", nil },
	)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !out.Success || out.Simulated || out.Data != "real" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if out.Attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", out.Attempts)
	}
	if out.BreakerState != call.StateClosed {
		t.Fatalf("expected closed breaker, got %s", out.BreakerState)
	}

	entry := rec.last(t)
	if !entry.Success || entry.Simulated || entry.Attempts != 1 {
		t.Fatalf("unexpected audit entry: %+v", entry)
	}
}

func TestExecuteRetriesTransientThenSucceeds(t *testing.T) {
	d, _ := newTestDep(t, fastConfig())

	calls := 0
	out, err := Execute(context.Background(), d, "op",
		func(context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", call.NewHTTPError(503, []byte("unavailable"))
			}
			return "real", nil
		},
		func(context.Context) (string, error) { return "sim", nil },
	)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !out.Success || out.Simulated {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if out.Attempts != 3 || calls != 3 {
		t.Fatalf("expected 3 attempts, got %d (calls %d)", out.Attempts, calls)
	}
}

func TestExecuteFallsBackWhenRetriesExhausted(t *testing.T) {
	d, rec := newTestDep(t, fastConfig())

	calls := 0
	out, err := Execute(context.Background(), d, "op",
		func(context.Context) (string, error) {
			calls++
			return "", errors.New("connection refused")
		},
		func(context.Context) (string, error) { return "sim", nil },
	)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !out.Success || !out.Simulated || out.Data != "sim" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if out.FallbackReason != call.ReasonRetriesExhausted {
		t.Fatalf("expected retries_exhausted, got %s", out.FallbackReason)
	}
	if calls != 3 || out.Attempts != 3 {
		t.Fatalf("expected all 3 attempts spent, got %d (calls %d)", out.Attempts, calls)
	}

	entry := rec.last(t)
	if !entry.Simulated || entry.FallbackReason != call.ReasonRetriesExhausted {
		t.Fatalf("unexpected audit entry: %+v", entry)
	}
}

func TestExecuteFallsBackWhenBreakerOpen(t *testing.T) {
	d, _ := newTestDep(t, fastConfig())

	// Trip the breaker directly.
	observe(t, d.breaker, false)
	observe(t, d.breaker, false)
	if d.breaker.State() != call.StateOpen {
		t.Fatal("expected open breaker")
	}

	realCalled := false
	out, err := Execute(context.Background(), d, "op",
		func(context.Context) (string, error) {
			realCalled = true
			return "real", nil
		},
		func(context.Context) (string, error) { return "sim", nil },
	)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if realCalled {
		t.Fatal("open breaker must not contact the dependency")
	}
	if !out.Simulated || out.FallbackReason != call.ReasonBreakerOpen {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if out.Attempts != 1 {
		t.Fatalf("expected denial on first attempt, got %d", out.Attempts)
	}
	if out.BreakerState != call.StateOpen {
		t.Fatalf("expected open breaker state in outcome, got %s", out.BreakerState)
	}
}

func TestExecuteHalfOpenRecovery(t *testing.T) {
	d, _ := newTestDep(t, fastConfig())

	now := time.Unix(1000, 0)
	d.breaker.now = func() time.Time { return now }
	d.breaker.win.now = d.breaker.now

	observe(t, d.breaker, false)
	observe(t, d.breaker, false)
	now = now.Add(time.Minute)

	out, err := Execute(context.Background(), d, "op",
		func(context.Context) (string, error) { return "real", nil },
		func(context.Context) (string, error) { return "sim", nil },
	)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !out.Success || out.Simulated || out.Attempts != 1 {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if d.breaker.State() != call.StateClosed {
		t.Fatalf("expected closed after successful trial, got %s", d.breaker.State())
	}
}

func TestExecuteMockModeBypassesRealPath(t *testing.T) {
	cfg := fastConfig()
	cfg.Mock = true
	d, rec := newTestDep(t, cfg)

	realCalled := false
	out, err := Execute(context.Background(), d, "op",
		func(context.Context) (string, error) {
			realCalled = true
			return "real", nil
		},
		func(context.Context) (string, error) { return "sim", nil },
	)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if realCalled {
		t.Fatal("mock mode must not contact the dependency")
	}
	if !out.Simulated || out.FallbackReason != call.ReasonConfigured {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if out.Attempts != 0 {
		t.Fatalf("expected 0 attempts in mock mode, got %d", out.Attempts)
	}
	if entry := rec.last(t); entry.FallbackReason != call.ReasonConfigured {
		t.Fatalf("unexpected audit entry: %+v", entry)
	}
}

func TestExecuteClientErrorPropagates(t *testing.T) {
	d, rec := newTestDep(t, fastConfig())

	wantErr := call.NewHTTPError(422, []byte("ein malformed"))
	calls := 0
	out, err := Execute(context.Background(), d, "op",
		func(context.Context) (string, error) {
			calls++
			return "", wantErr
		},
		func(context.Context) (string, error) { return "sim", nil },
	)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected the upstream error verbatim, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("client errors must not be retried, got %d calls", calls)
	}
	if out.Success || out.Simulated {
		t.Fatalf("client errors must not trigger fallback: %+v", out)
	}
	if out.ErrorKind != call.ErrorKindClient || out.Attempts != 1 {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if entry := rec.last(t); entry.ErrorKind != call.ErrorKindClient {
		t.Fatalf("unexpected audit entry: %+v", entry)
	}
}

func TestExecuteClientErrorIsNotBreakerEvidence(t *testing.T) {
	cfg := fastConfig()
	cfg.MinimumVolume = 2
	d, _ := newTestDep(t, cfg)

	// A storm of rejections means callers are sending garbage, not that the
	// dependency is down.
	for i := 0; i < 10; i++ {
		_, _ = Execute(context.Background(), d, "op",
			func(context.Context) (string, error) {
				return "", call.NewHTTPError(422, []byte("bad input"))
			},
			func(context.Context) (string, error) { return "sim", nil },
		)
	}
	if d.breaker.State() != call.StateClosed {
		t.Fatalf("expected closed breaker after client errors, got %s", d.breaker.State())
	}
}

func TestExecuteCallerDeadlineWins(t *testing.T) {
	d, _ := newTestDep(t, fastConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	realCalled := false
	out, err := Execute(ctx, d, "op",
		func(context.Context) (string, error) {
			realCalled = true
			return "real", nil
		},
		func(context.Context) (string, error) { return "sim", nil },
	)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if realCalled {
		t.Fatal("expired context must not contact the dependency")
	}
	if !out.Simulated || out.FallbackReason != call.ReasonRetriesExhausted {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestExecuteSimulationDefect(t *testing.T) {
	cfg := fastConfig()
	cfg.Mock = true
	d, rec := newTestDep(t, cfg)

	defect := errors.New("bad table index")
	out, err := Execute(context.Background(), d, "op",
		func(context.Context) (string, error) { return "real", nil },
		func(context.Context) (string, error) { return "", defect },
	)
	if !errors.Is(err, defect) {
		t.Fatalf("expected the defect wrapped in the error, got %v", err)
	}
	if out.Success || out.ErrorKind != call.ErrorKindSimulationDefect {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if entry := rec.last(t); entry.ErrorKind != call.ErrorKindSimulationDefect {
		t.Fatalf("unexpected audit entry: %+v", entry)
	}
}

func TestBackoffSchedule(t *testing.T) {
	base := 100 * time.Millisecond
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 0},
		{2, 100 * time.Millisecond},
		{3, 200 * time.Millisecond},
		{4, 400 * time.Millisecond},
	}
	for _, tc := range cases {
		if got := backoff(base, tc.attempt); got != tc.want {
			t.Errorf("backoff(attempt=%d): expected %v, got %v", tc.attempt, tc.want, got)
		}
	}
}

func TestManagerSharesBreakerPerDependency(t *testing.T) {
	m := NewManager(nil, nil)
	d1 := m.Dependency("shared", fastConfig())
	d2 := m.Dependency("shared", fastConfig())
	if d1.breaker != d2.breaker {
		t.Fatal("expected one breaker per dependency name")
	}

	other := m.Dependency("other", fastConfig())
	if other.breaker == d1.breaker {
		t.Fatal("expected distinct breakers per dependency name")
	}
}

func TestManagerStatusAllSorted(t *testing.T) {
	m := NewManager(nil, nil)
	m.Dependency("zeta", fastConfig())
	m.Dependency("alpha", fastConfig())

	all := m.StatusAll()
	if len(all) != 2 || all[0].Dependency != "alpha" || all[1].Dependency != "zeta" {
		t.Fatalf("expected sorted snapshots, got %+v", all)
	}
}
