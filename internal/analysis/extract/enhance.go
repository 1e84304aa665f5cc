package extract

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/avolkov/contract-intel/internal/core/domain"
)

const enhancementSnippet = 3000

type enhancementResult struct {
	Parties       []string `json:"parties"`
	EffectiveDate *string  `json:"effective_date"`
	Term          *string  `json:"term"`
	GoverningLaw  *string  `json:"governing_law"`
	PaymentTerms  *string  `json:"payment_terms"`
}

// enhance asks the completion capability for the headline fields and merges
// them into the rule-based record. A field is overwritten only when the rules
// left it absent; parties only when the model found strictly more of them.
// Any failure returns the rule-based record unchanged.
func (e *Extractor) enhance(ctx context.Context, record domain.ExtractionRecord, fullText string) domain.ExtractionRecord {
	response, err := e.completer.Complete(ctx, buildEnhancementPrompt(fullText))
	if err != nil {
		return record
	}

	var parsed enhancementResult
	if err := json.Unmarshal([]byte(extractJSONObject(response)), &parsed); err != nil {
		return record
	}

	if len(parsed.Parties) > len(record.Parties) {
		record.Parties = parsed.Parties
	}
	if record.EffectiveDate == nil && nonEmpty(parsed.EffectiveDate) {
		record.EffectiveDate = parsed.EffectiveDate
	}
	if record.Term == nil && nonEmpty(parsed.Term) {
		record.Term = parsed.Term
	}
	if record.GoverningLaw == nil && nonEmpty(parsed.GoverningLaw) {
		record.GoverningLaw = parsed.GoverningLaw
	}
	if record.PaymentTerms == nil && nonEmpty(parsed.PaymentTerms) {
		record.PaymentTerms = parsed.PaymentTerms
	}
	return record
}

func buildEnhancementPrompt(fullText string) string {
	return `Extract structured information from this contract text. Return only the requested fields, use null if not found.

Contract text (first 3000 chars):
` + prefix(fullText, enhancementSnippet) + `

Extract:
1. Parties (list of company names)
2. Effective date (YYYY-MM-DD format)
3. Term (e.g., "12 months")
4. Governing law (state/country)
5. Payment terms (brief description)

Return as JSON with keys: parties, effective_date, term, governing_law, payment_terms`
}

// extractJSONObject trims any prose the model wrapped around the JSON body.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}

func nonEmpty(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}
