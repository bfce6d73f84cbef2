package simulate

import (
	"context"
	"time"

	"github.com/mblcrm/lendgate/internal/domain/ein"
)

// entityTypes a simulated verification can report.
var entityTypes = []string{
	"sole_proprietorship",
	"partnership",
	"llc",
	"s_corporation",
	"c_corporation",
	"nonprofit",
}

// EIN simulates the EIN verification dependency.
type EIN struct {
	now func() time.Time
}

// NewEIN creates the EIN verification simulator.
func NewEIN() *EIN {
	return &EIN{now: time.Now}
}

// Verify produces a deterministic, plausible verification: most simulated
// EINs match (weighted 80/12/8 match/mismatch/not_found), the entity type
// is drawn from a fixed table, and the name control is derived from the
// legal name the same way the real agency derives it.
func (s *EIN) Verify(ctx context.Context, rawEIN, legalName string) (ein.Verification, error) {
	normalized := ein.Normalize(rawEIN)
	h := seed("ein_verification", normalized, legalName)

	wait(ctx, latency{base: 80 * time.Millisecond, jitter: 60 * time.Millisecond}.duration(h))

	v := ein.Verification{
		EIN:        normalized,
		LegalName:  legalName,
		VerifiedAt: s.now().UTC(),
	}

	switch pickWeighted(h, 80, 12, 8) {
	case 0:
		v.MatchStatus = ein.StatusMatch
		v.EntityType = entityTypes[int(h>>8)%len(entityTypes)]
		v.NameControl = ein.NameControl(legalName)
	case 1:
		v.MatchStatus = ein.StatusMismatch
		v.EntityType = entityTypes[int(h>>8)%len(entityTypes)]
		// A mismatch means the agency knows the EIN under a different name.
		v.NameControl = ""
	default:
		v.MatchStatus = ein.StatusNotFound
	}

	return v, nil
}
