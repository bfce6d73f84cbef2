// Package ein holds EIN verification domain types and input validation.
package ein

import (
	"fmt"
	"strings"
	"time"

	"github.com/mblcrm/lendgate/internal/domain/call"
)

// MatchStatus values returned by verification.
const (
	StatusMatch    = "match"
	StatusMismatch = "mismatch"
	StatusNotFound = "not_found"
)

// Verification is the result of checking an EIN against the issuing agency.
type Verification struct {
	EIN         string    `json:"ein"`
	LegalName   string    `json:"legal_name"`
	MatchStatus string    `json:"match_status"`
	EntityType  string    `json:"entity_type,omitempty"`
	NameControl string    `json:"name_control,omitempty"`
	VerifiedAt  time.Time `json:"verified_at"`
}

// validPrefixes are the two-digit EIN campus prefixes the IRS has issued.
var validPrefixes = map[string]struct{}{
	"01": {}, "02": {}, "03": {}, "04": {}, "05": {}, "06": {}, "10": {}, "11": {},
	"12": {}, "13": {}, "14": {}, "15": {}, "16": {}, "20": {}, "21": {}, "22": {},
	"23": {}, "24": {}, "25": {}, "26": {}, "27": {}, "30": {}, "31": {}, "32": {},
	"33": {}, "34": {}, "35": {}, "36": {}, "37": {}, "38": {}, "39": {}, "40": {},
	"41": {}, "42": {}, "43": {}, "44": {}, "45": {}, "46": {}, "47": {}, "48": {},
	"50": {}, "51": {}, "52": {}, "53": {}, "54": {}, "55": {}, "56": {}, "57": {},
	"58": {}, "59": {}, "60": {}, "61": {}, "62": {}, "63": {}, "64": {}, "65": {},
	"66": {}, "67": {}, "68": {}, "71": {}, "72": {}, "73": {}, "74": {}, "75": {},
	"76": {}, "77": {}, "80": {}, "81": {}, "82": {}, "83": {}, "84": {}, "85": {},
	"86": {}, "87": {}, "88": {}, "90": {}, "91": {}, "92": {}, "93": {}, "94": {},
	"95": {}, "98": {}, "99": {},
}

// Normalize strips the conventional hyphen ("12-3456789" -> "123456789").
func Normalize(raw string) string {
	return strings.ReplaceAll(strings.TrimSpace(raw), "-", "")
}

// Validate checks EIN format before any network attempt. A malformed EIN is
// a caller mistake, so the returned error wraps call.ErrValidation.
func Validate(raw string) error {
	n := Normalize(raw)
	if len(n) != 9 {
		return fmt.Errorf("%w: ein must be 9 digits", call.ErrValidation)
	}
	for _, r := range n {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: ein must contain only digits", call.ErrValidation)
		}
	}
	if _, ok := validPrefixes[n[:2]]; !ok {
		return fmt.Errorf("%w: ein prefix %q was never issued", call.ErrValidation, n[:2])
	}
	return nil
}

// NameControl derives the four-character name control the IRS matches
// against: first four significant characters of the legal name, uppercased.
func NameControl(legalName string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(legalName) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '&' {
			b.WriteRune(r)
			if b.Len() == 4 {
				break
			}
		}
	}
	return b.String()
}
