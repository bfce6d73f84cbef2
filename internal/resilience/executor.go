package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mblcrm/lendgate/internal/domain/call"
	"github.com/mblcrm/lendgate/internal/logger"
)

// Dependency is the per-dependency execution handle built by the Manager.
// All calls to one dependency share its breaker; everything else here is
// immutable after construction.
type Dependency struct {
	name    string
	cfg     Config
	breaker *Breaker
	manager *Manager
	logger  *slog.Logger
}

// Name returns the dependency name.
func (d *Dependency) Name() string { return d.name }

// Timeout returns the per-attempt timeout clients should apply.
func (d *Dependency) Timeout() time.Duration { return d.cfg.Timeout }

// Mock reports whether the dependency was configured into mock mode.
func (d *Dependency) Mock() bool { return d.cfg.Mock }

// State returns the dependency breaker's current state.
func (d *Dependency) State() call.BreakerState { return d.breaker.State() }

// Execute runs one logical call with the full resilience stack: a retry
// loop that consults the breaker on every attempt, exponential backoff
// between attempts, and fallback simulation when the breaker denies the
// call, the retry budget is exhausted, or mock mode was configured.
//
// The returned error is non-nil only for client errors (the caller's
// request was malformed — propagated verbatim, no fallback) and simulation
// defects (the fallback provider itself failed — the one loud failure).
// Every outcome, real or simulated, is audited before it returns.
func Execute[T any](ctx context.Context, d *Dependency, operation string, real, fallback func(context.Context) (T, error)) (call.Outcome[T], error) {
	start := time.Now()
	entry := call.NewAuditEntry(d.name, operation)
	entry.RequestID = logger.RequestID(ctx)

	if d.cfg.Mock {
		// Configured mock bypasses the breaker and retry path entirely.
		return finishFallback(ctx, d, entry, start, 0, call.ReasonConfigured, fallback)
	}

	attempts := 0
	for attempt := 1; attempt <= d.cfg.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			// The caller's deadline always wins over the attempt budget.
			return finishFallback(ctx, d, entry, start, attempts, call.ReasonRetriesExhausted, fallback)
		}
		attempts = attempt

		permit, err := d.breaker.Allow()
		if err != nil {
			// An open breaker short-circuits the remaining retry budget.
			return finishFallback(ctx, d, entry, start, attempts, call.ReasonBreakerOpen, fallback)
		}

		data, err := real(ctx)
		kind := call.Classify(err)
		// A client error means the dependency answered; it is not evidence
		// against the dependency's health.
		permit.Observe(err == nil || kind == call.ErrorKindClient)

		if err == nil {
			return finish(ctx, d, entry, call.Outcome[T]{
				Success:      true,
				Data:         data,
				Attempts:     attempts,
				LatencyMS:    time.Since(start).Milliseconds(),
				BreakerState: d.breaker.State(),
			}), nil
		}

		if kind == call.ErrorKindClient {
			out := finish(ctx, d, entry, call.Outcome[T]{
				ErrorKind:    call.ErrorKindClient,
				Attempts:     attempts,
				LatencyMS:    time.Since(start).Milliseconds(),
				BreakerState: d.breaker.State(),
			})
			return out, err
		}

		d.logger.Warn("transient failure",
			"operation", operation,
			"attempt", attempt,
			"max_attempts", d.cfg.MaxRetries,
			"error", err,
		)

		if attempt == d.cfg.MaxRetries {
			break
		}
		if err := waitBackoff(ctx, backoff(d.cfg.BaseDelay, attempt+1)); err != nil {
			return finishFallback(ctx, d, entry, start, attempts, call.ReasonRetriesExhausted, fallback)
		}
	}

	return finishFallback(ctx, d, entry, start, attempts, call.ReasonRetriesExhausted, fallback)
}

// finishFallback invokes the fallback provider and stamps the simulated
// envelope. A fallback provider failing is a defect, not an expected
// outcome: it is logged at the highest severity and returned as a real
// error rather than silently swallowed.
func finishFallback[T any](ctx context.Context, d *Dependency, entry call.AuditEntry, start time.Time, attempts int, reason call.FallbackReason, fallback func(context.Context) (T, error)) (call.Outcome[T], error) {
	data, err := fallback(ctx)
	if err != nil {
		d.logger.Error("simulation defect: fallback provider failed",
			"operation", entry.Operation,
			"fallback_reason", string(reason),
			"error", err,
		)
		out := finish(ctx, d, entry, call.Outcome[T]{
			ErrorKind:      call.ErrorKindSimulationDefect,
			FallbackReason: reason,
			Attempts:       attempts,
			LatencyMS:      time.Since(start).Milliseconds(),
			BreakerState:   d.breaker.State(),
		})
		return out, fmt.Errorf("simulation defect for %s/%s: %w", d.name, entry.Operation, err)
	}

	return finish(ctx, d, entry, call.Outcome[T]{
		Success:        true,
		Data:           data,
		Simulated:      true,
		FallbackReason: reason,
		Attempts:       attempts,
		LatencyMS:      time.Since(start).Milliseconds(),
		BreakerState:   d.breaker.State(),
	}), nil
}

// finish records the outcome with the auditor and metrics observer before
// handing it back to the caller.
func finish[T any](ctx context.Context, d *Dependency, entry call.AuditEntry, out call.Outcome[T]) call.Outcome[T] {
	entry.Attempts = out.Attempts
	entry.Success = out.Success
	entry.Simulated = out.Simulated
	entry.ErrorKind = out.ErrorKind
	entry.FallbackReason = out.FallbackReason
	entry.BreakerState = out.BreakerState
	entry.LatencyMS = out.LatencyMS

	if d.manager.auditor != nil {
		d.manager.auditor.Record(ctx, entry)
	}
	if d.manager.observer != nil {
		d.manager.observer.ObserveCall(d.name, entry.Operation, out.Success, out.Simulated, float64(out.LatencyMS)/1000)
	}
	return out
}
