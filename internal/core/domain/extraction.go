package domain

// ExtractionRecord is the structured field set derived from one contract.
// A re-extraction fully replaces the previous record for the document.
type ExtractionRecord struct {
	DocumentID      string        `json:"document_id"`
	Parties         []string      `json:"parties"`
	EffectiveDate   *string       `json:"effective_date,omitempty"`
	Term            *string       `json:"term,omitempty"`
	GoverningLaw    *string       `json:"governing_law,omitempty"`
	PaymentTerms    *string       `json:"payment_terms,omitempty"`
	Termination     *string       `json:"termination,omitempty"`
	AutoRenewal     AutoRenewal   `json:"auto_renewal"`
	Confidentiality Clause        `json:"confidentiality"`
	Indemnity       Clause        `json:"indemnity"`
	LiabilityCap    *LiabilityCap `json:"liability_cap,omitempty"`
	Signatories     []Signatory   `json:"signatories"`
}

type AutoRenewal struct {
	Exists           bool `json:"exists"`
	NoticePeriodDays *int `json:"notice_period_days,omitempty"`
}

// Clause covers confidentiality and indemnity: presence detected by keyword,
// summary filled only when a labeled sentence was found.
type Clause struct {
	Exists  bool    `json:"exists"`
	Summary *string `json:"summary,omitempty"`
}

type LiabilityCap struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

type Signatory struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}
