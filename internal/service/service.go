// Package service composes the resilience executor with each external
// dependency's real client and its deterministic simulator. Services own
// input validation: requests that no backend could accept are rejected
// before a single attempt is spent on them.
package service

import (
	"time"

	"github.com/mblcrm/lendgate/internal/config"
	"github.com/mblcrm/lendgate/internal/resilience"
)

// Dependency names as they appear in breaker status, audit rows, and
// NATS subjects.
const (
	DepEINVerification = "ein_verification"
	DepGraph           = "ms_graph"
	DepDocIntel        = "doc_intel"
	DepLLM             = "llm_risk"
)

// breakerConfig merges the shared resilience defaults with one
// dependency's timeout and mock switch.
func breakerConfig(r config.Resilience, timeout time.Duration, mock bool) resilience.Config {
	return resilience.Config{
		Timeout:           timeout,
		ErrorThresholdPct: r.ErrorThresholdPct,
		MinimumVolume:     r.MinimumVolume,
		ResetTimeout:      r.ResetTimeout,
		RollingWindow:     r.RollingWindow,
		BucketCount:       r.BucketCount,
		MaxRetries:        r.MaxRetries,
		BaseDelay:         r.BaseDelay,
		MaxHalfOpenTrials: r.MaxHalfOpenTrials,
		Mock:              mock,
	}
}
