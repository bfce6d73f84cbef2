package audit

import (
	"context"
	"log/slog"
)

// SlogSink writes audit entries as structured log records. It is always
// wired in so every call leaves a trace even when no durable sink is
// configured.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a SlogSink. A nil logger falls back to slog.Default.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

// Record logs the entry at Info level.
func (s *SlogSink) Record(_ context.Context, entry Entry) error {
	s.logger.Info("call audited",
		"entry_id", entry.ID,
		"dependency", entry.Dependency,
		"operation", entry.Operation,
		"attempts", entry.Attempts,
		"success", entry.Success,
		"is_simulated", entry.Simulated,
		"error_kind", string(entry.ErrorKind),
		"fallback_reason", string(entry.FallbackReason),
		"breaker_state", string(entry.BreakerState),
		"latency_ms", entry.LatencyMS,
		"request_id", entry.RequestID,
	)
	return nil
}
