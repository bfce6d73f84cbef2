// Package audit defines the port for recording call audit entries.
package audit

import (
	"context"

	"github.com/mblcrm/lendgate/internal/domain/call"
)

// Entry is the audit record shape shared with the call domain.
type Entry = call.AuditEntry

// Sink persists audit entries. Storage and retention belong to the sink's
// owner; this layer only appends.
type Sink interface {
	Record(ctx context.Context, entry call.AuditEntry) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, entry call.AuditEntry) error

// Record calls f.
func (f SinkFunc) Record(ctx context.Context, entry call.AuditEntry) error {
	return f(ctx, entry)
}
