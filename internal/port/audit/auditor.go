package audit

import (
	"context"
	"log/slog"
)

// Auditor fans one entry out to every configured sink. Recording is
// best-effort observability, not a transactional guarantee: a failing sink
// is logged and skipped, and the caller's request is never failed.
type Auditor struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewAuditor creates an Auditor over the given sinks. A nil logger falls
// back to slog.Default.
func NewAuditor(logger *slog.Logger, sinks ...Sink) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{sinks: sinks, logger: logger}
}

// Record appends the entry to every sink. Never fails.
func (a *Auditor) Record(ctx context.Context, entry Entry) {
	for _, s := range a.sinks {
		if err := s.Record(ctx, entry); err != nil {
			a.logger.Warn("audit sink failed",
				"dependency", entry.Dependency,
				"entry_id", entry.ID,
				"error", err,
			)
		}
	}
}
