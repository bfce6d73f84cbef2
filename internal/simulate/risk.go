package simulate

import (
	"context"
	"time"

	"github.com/mblcrm/lendgate/internal/domain/risk"
)

// riskBand pairs a score range with the flags and narrative plausible for it.
type riskBand struct {
	band      string
	scoreLo   int
	scoreHi   int
	flags     []string
	narrative string
}

// riskBands are weighted 45/30/17/8: most micro-business applications in
// the portfolio score low or moderate.
var riskBands = []riskBand{
	{
		band: risk.BandLow, scoreLo: 5, scoreHi: 29,
		flags:     nil,
		narrative: "Established revenue history and conservative loan-to-revenue ratio. No adverse indicators identified.",
	},
	{
		band: risk.BandModerate, scoreLo: 30, scoreHi: 54,
		flags:     []string{"LIMITED_OPERATING_HISTORY"},
		narrative: "Fundamentals are sound but the operating history is short relative to the requested amount. Standard monitoring recommended.",
	},
	{
		band: risk.BandElevated, scoreLo: 55, scoreHi: 79,
		flags:     []string{"HIGH_LOAN_TO_REVENUE", "SEASONAL_CASHFLOW"},
		narrative: "Requested amount is large relative to documented revenue and cash flow shows seasonal gaps. Manual underwriting review advised.",
	},
	{
		band: risk.BandHigh, scoreLo: 80, scoreHi: 95,
		flags:     []string{"HIGH_LOAN_TO_REVENUE", "INCOMPLETE_FINANCIALS", "SECTOR_CONCENTRATION"},
		narrative: "Multiple adverse indicators including incomplete financial documentation. Decline or request substantially more collateral.",
	},
}

// Risk simulates the LLM risk-assessment dependency.
type Risk struct{}

// NewRisk creates the risk assessment simulator.
func NewRisk() *Risk {
	return &Risk{}
}

// AssessRisk produces a deterministic scored assessment: the band comes from
// a weighted distribution seeded by the application, the score lands inside
// the band's range, and flags/narrative stay consistent with the band.
func (s *Risk) AssessRisk(ctx context.Context, req risk.Request) (risk.Assessment, error) {
	h := seed("llm_risk", req.ApplicationID, req.BusinessName)

	wait(ctx, latency{base: 1200 * time.Millisecond, jitter: 900 * time.Millisecond}.duration(h))

	b := riskBands[pickWeighted(h, 45, 30, 17, 8)]
	span := b.scoreHi - b.scoreLo + 1
	score := b.scoreLo + int((h>>8)%uint64(span)) //nolint:gosec // span is small and positive

	return risk.Assessment{
		ApplicationID: req.ApplicationID,
		Score:         score,
		Band:          b.band,
		Flags:         b.flags,
		Narrative:     b.narrative,
	}, nil
}
