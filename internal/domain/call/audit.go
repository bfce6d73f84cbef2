package call

import (
	"time"

	"github.com/google/uuid"
)

// AuditEntry is the immutable record appended after every call outcome.
// This layer creates entries and hands them to sinks; retention is owned by
// the sink's operator, never by this layer.
type AuditEntry struct {
	ID             string         `json:"id"`
	Dependency     string         `json:"dependency"`
	Operation      string         `json:"operation"`
	Timestamp      time.Time      `json:"timestamp"`
	Attempts       int            `json:"attempts"`
	Success        bool           `json:"success"`
	Simulated      bool           `json:"is_simulated"`
	ErrorKind      ErrorKind      `json:"error_kind,omitempty"`
	FallbackReason FallbackReason `json:"fallback_reason,omitempty"`
	BreakerState   BreakerState   `json:"breaker_state"`
	LatencyMS      int64          `json:"latency_ms"`
	RequestID      string         `json:"request_id,omitempty"`
}

// NewAuditEntry stamps identity and timestamp; remaining fields are filled
// by the executor before the entry is recorded.
func NewAuditEntry(dependency, operation string) AuditEntry {
	return AuditEntry{
		ID:         uuid.NewString(),
		Dependency: dependency,
		Operation:  operation,
		Timestamp:  time.Now().UTC(),
	}
}
