package domain

type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

// Check identifiers form a fixed catalogue; finding Type is always one of these.
const (
	CheckAutoRenewal            = "auto_renewal"
	CheckUnlimitedLiability     = "unlimited_liability"
	CheckBroadIndemnity         = "broad_indemnity"
	CheckMissingTerminationConv = "missing_termination_convenience"
	CheckLowLiabilityCap        = "low_liability_cap"
)

// EvidenceSpan is a located excerpt of source text supporting a finding,
// with its containing page and character offsets.
type EvidenceSpan struct {
	Page      int    `json:"page"`
	CharStart int    `json:"char_start"`
	CharEnd   int    `json:"char_end"`
	Excerpt   string `json:"excerpt"`
}

// Finding is one risk-rule violation detected in a contract. An audit run
// replaces all prior findings for the document.
type Finding struct {
	ID       string         `json:"id"`
	Severity Severity       `json:"severity"`
	Type     string         `json:"type"`
	Summary  string         `json:"summary"`
	Evidence []EvidenceSpan `json:"evidence"`
}
