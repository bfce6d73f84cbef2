// Package document holds document-analysis domain types.
package document

import "time"

// Classification values for uploaded applicant documents.
const (
	ClassTaxReturn       = "tax_return"
	ClassBankStatement   = "bank_statement"
	ClassBusinessLicense = "business_license"
	ClassIdentity        = "identity"
	ClassCorrespondence  = "general_correspondence"
)

// Severity levels for anomaly flags.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Anomaly is a single flag raised during analysis.
type Anomaly struct {
	Code        string `json:"code"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

// Analysis is the result of running a document through intelligence
// extraction: a classification with confidence, plus any anomaly flags.
type Analysis struct {
	FileName       string    `json:"file_name"`
	Classification string    `json:"classification"`
	Confidence     float64   `json:"confidence"`
	Pages          int       `json:"pages"`
	Anomalies      []Anomaly `json:"anomalies,omitempty"`
	AnalyzedAt     time.Time `json:"analyzed_at"`
}
