// Package risk holds loan-application risk assessment domain types.
package risk

import (
	"fmt"

	"github.com/mblcrm/lendgate/internal/domain/call"
)

// Band values, ordered from safest to riskiest.
const (
	BandLow      = "low"
	BandModerate = "moderate"
	BandElevated = "elevated"
	BandHigh     = "high"
)

// Request carries the application facts the model scores.
type Request struct {
	ApplicationID   string  `json:"application_id"`
	BusinessName    string  `json:"business_name"`
	RequestedAmount float64 `json:"requested_amount"`
	YearsInBusiness int     `json:"years_in_business"`
	Summary         string  `json:"summary,omitempty"`
}

// Validate rejects requests that can never be scored.
func (r Request) Validate() error {
	if r.ApplicationID == "" {
		return fmt.Errorf("%w: application_id is required", call.ErrValidation)
	}
	if r.BusinessName == "" {
		return fmt.Errorf("%w: business_name is required", call.ErrValidation)
	}
	if r.RequestedAmount <= 0 {
		return fmt.Errorf("%w: requested_amount must be positive", call.ErrValidation)
	}
	return nil
}

// Assessment is a scored application: 0 (safest) to 100 (riskiest).
type Assessment struct {
	ApplicationID string   `json:"application_id"`
	Score         int      `json:"score"`
	Band          string   `json:"band"`
	Flags         []string `json:"flags,omitempty"`
	Narrative     string   `json:"narrative,omitempty"`
}

// BandFor maps a score to its band.
func BandFor(score int) string {
	switch {
	case score < 30:
		return BandLow
	case score < 55:
		return BandModerate
	case score < 80:
		return BandElevated
	default:
		return BandHigh
	}
}
