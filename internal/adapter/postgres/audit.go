package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mblcrm/lendgate/internal/domain/call"
)

// AuditStore implements the audit sink port against the call_audit table
// (append-only). Retention is the deployment's problem, not this layer's.
type AuditStore struct {
	pool *pgxpool.Pool
}

// NewAuditStore creates an AuditStore backed by the given connection pool.
func NewAuditStore(pool *pgxpool.Pool) *AuditStore {
	return &AuditStore{pool: pool}
}

// Record appends one audit entry. The insert runs detached from the
// caller's deadline: an entry for a timed-out call must still land.
func (s *AuditStore) Record(ctx context.Context, entry call.AuditEntry) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO call_audit (id, dependency, operation, created_at, attempts, success, is_simulated, error_kind, fallback_reason, breaker_state, latency_ms, request_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		entry.ID, entry.Dependency, entry.Operation, entry.Timestamp, entry.Attempts,
		entry.Success, entry.Simulated, string(entry.ErrorKind), string(entry.FallbackReason),
		string(entry.BreakerState), entry.LatencyMS, entry.RequestID)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// auditColumns is the SELECT column list for call_audit queries.
const auditColumns = `id, dependency, operation, created_at, attempts, success, is_simulated, error_kind, fallback_reason, breaker_state, latency_ms, request_id`

// Recent returns the latest entries, optionally filtered by dependency,
// newest first.
func (s *AuditStore) Recent(ctx context.Context, dependency string, limit int) ([]call.AuditEntry, error) {
	if limit < 1 || limit > 500 {
		limit = 50
	}

	query := fmt.Sprintf(`SELECT %s FROM call_audit ORDER BY created_at DESC LIMIT $1`, auditColumns)
	args := []any{limit}
	if dependency != "" {
		query = fmt.Sprintf(`SELECT %s FROM call_audit WHERE dependency = $1 ORDER BY created_at DESC LIMIT $2`, auditColumns)
		args = []any{dependency, limit}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []call.AuditEntry
	for rows.Next() {
		var e call.AuditEntry
		var errorKind, fallbackReason, breakerState string
		if err := rows.Scan(
			&e.ID, &e.Dependency, &e.Operation, &e.Timestamp, &e.Attempts,
			&e.Success, &e.Simulated, &errorKind, &fallbackReason,
			&breakerState, &e.LatencyMS, &e.RequestID,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.ErrorKind = call.ErrorKind(errorKind)
		e.FallbackReason = call.FallbackReason(fallbackReason)
		e.BreakerState = call.BreakerState(breakerState)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
