// Package call defines the uniform result envelope and error taxonomy shared
// by every resilient external call, real or simulated.
package call

// BreakerState is the circuit breaker state snapshot carried on outcomes
// and audit entries.
type BreakerState string

const (
	StateClosed   BreakerState = "closed"
	StateOpen     BreakerState = "open"
	StateHalfOpen BreakerState = "half_open"
)

// ErrorKind classifies why a call did not produce a real success.
type ErrorKind string

const (
	// ErrorKindTransient covers network failures, timeouts, 5xx and 429.
	ErrorKindTransient ErrorKind = "transient"
	// ErrorKindClient covers 4xx (except 429) and input validation failures.
	ErrorKindClient ErrorKind = "client"
	// ErrorKindSimulationDefect means the fallback provider itself failed.
	ErrorKindSimulationDefect ErrorKind = "simulation_defect"
)

// FallbackReason records which path routed a call to the fallback provider.
type FallbackReason string

const (
	// ReasonConfigured: mock mode was selected at construction time.
	ReasonConfigured FallbackReason = "configured"
	// ReasonBreakerOpen: the circuit breaker denied the attempt.
	ReasonBreakerOpen FallbackReason = "breaker_open"
	// ReasonRetriesExhausted: every retry budget attempt failed transiently,
	// or the caller's deadline expired mid-loop.
	ReasonRetriesExhausted FallbackReason = "retries_exhausted"
)

// Outcome is the envelope returned to every caller regardless of the path
// taken. Simulated is true only when Data came from the fallback provider;
// real and simulated data are never mixed within one envelope.
type Outcome[T any] struct {
	Success        bool           `json:"success"`
	Data           T              `json:"data"`
	Simulated      bool           `json:"is_simulated"`
	ErrorKind      ErrorKind      `json:"error_kind,omitempty"`
	FallbackReason FallbackReason `json:"fallback_reason,omitempty"`
	Attempts       int            `json:"attempts"`
	LatencyMS      int64          `json:"latency_ms"`
	BreakerState   BreakerState   `json:"breaker_state"`
}
