// Package extract populates a structured extraction record from contract text
// using ordered pattern rules. The first rule that matches a field wins;
// parties and signatories accumulate across all of their rules up to a cap.
package extract

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/avolkov/contract-intel/internal/core/domain"
	"github.com/avolkov/contract-intel/internal/core/ports"
)

const (
	partiesScanWindow     = 2000
	dateScanWindow        = 3000
	signatoriesScanWindow = 2000
	maxParties            = 10
	maxSignatories        = 5
)

type Extractor struct {
	completer ports.Completer
}

// New builds an extractor. A nil completer disables LLM enhancement; the
// rule-based pass always runs either way.
func New(completer ports.Completer) *Extractor {
	return &Extractor{completer: completer}
}

// Extract runs the full rule catalogue over the text. It never fails: fields
// no rule matched stay absent, and enhancement errors are swallowed.
func (e *Extractor) Extract(ctx context.Context, documentID, fullText string, _ []domain.PageSpan) domain.ExtractionRecord {
	record := domain.ExtractionRecord{
		DocumentID:      documentID,
		Parties:         extractParties(fullText),
		EffectiveDate:   extractEffectiveDate(fullText),
		Term:            extractTerm(fullText),
		GoverningLaw:    extractGoverningLaw(fullText),
		PaymentTerms:    extractPaymentTerms(fullText),
		Termination:     extractTermination(fullText),
		AutoRenewal:     extractAutoRenewal(fullText),
		Confidentiality: extractConfidentiality(fullText),
		Indemnity:       extractIndemnity(fullText),
		LiabilityCap:    extractLiabilityCap(fullText),
		Signatories:     extractSignatories(fullText),
	}

	if e.completer != nil {
		record = e.enhance(ctx, record, fullText)
	}
	return record
}

var partyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)between\s+([A-Z][A-Za-z\s&.,]+?)\s+(?:and|,)`),
	regexp.MustCompile(`(?i)by and between\s+([A-Z][A-Za-z\s&.,]+?)(?:\s+and|\s*,)`),
	regexp.MustCompile(`(?i)Party\s+[A-Z]:\s*([A-Z][A-Za-z\s&.,]+)`),
	regexp.MustCompile(`(?i)"([A-Z][A-Za-z\s&.,]+?)"\s*\((?:hereinafter|the)\s+"(?:Company|Client|Vendor)`),
}

// extractParties scans only the document head: party names live in the
// preamble, and matching deeper produces recital noise.
func extractParties(text string) []string {
	head := prefix(text, partiesScanWindow)

	var parties []string
	seen := make(map[string]bool)
	for _, pattern := range partyPatterns {
		for _, m := range pattern.FindAllStringSubmatch(head, -1) {
			party := strings.TrimSpace(m[1])
			if len(party) <= 3 || seen[party] {
				continue
			}
			seen[party] = true
			parties = append(parties, party)
		}
	}

	if len(parties) > maxParties {
		parties = parties[:maxParties]
	}
	return parties
}

var termPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)term[:\s]+([0-9]+\s+(?:year|month|day)s?)`),
	regexp.MustCompile(`(?i)duration[:\s]+([0-9]+\s+(?:year|month|day)s?)`),
	regexp.MustCompile(`(?i)period of\s+([0-9]+\s+(?:year|month|day)s?)`),
}

func extractTerm(text string) *string {
	return firstGroupMatch(termPatterns, text)
}

var governingLawPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)governed by the laws of\s+([A-Za-z\s,]+?)(?:\.|,|\n)`),
	regexp.MustCompile(`(?i)governing law[:\s]+([A-Za-z\s,]+?)(?:\.|,|\n)`),
	regexp.MustCompile(`(?i)jurisdiction[:\s]+([A-Za-z\s,]+?)(?:\.|,|\n)`),
}

func extractGoverningLaw(text string) *string {
	return firstGroupMatch(governingLawPatterns, text)
}

var paymentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)payment terms?[:\s]+([^\n.]{10,100})`),
	regexp.MustCompile(`(?i)net\s+\d+\s+days?`),
	regexp.MustCompile(`(?i)\$[\d,]+(?:\.\d{2})?\s+(?:per|monthly|annually)`),
}

// extractPaymentTerms returns the whole matched text, label included, so the
// stored value reads the way the contract states it.
func extractPaymentTerms(text string) *string {
	for _, pattern := range paymentPatterns {
		if m := pattern.FindString(text); m != "" {
			return strPtr(strings.TrimSpace(m))
		}
	}
	return nil
}

var terminationPattern = regexp.MustCompile(`(?i)termination[:\s]+([^\n]{20,200})`)

func extractTermination(text string) *string {
	if m := terminationPattern.FindStringSubmatch(text); m != nil {
		return strPtr(strings.TrimSpace(m[1]))
	}
	return nil
}

var (
	autoRenewalKeywords = []string{"auto-renew", "automatic renewal", "automatically renew"}
	noticePeriodPattern = regexp.MustCompile(`(?i)(\d+)\s+days?\s+(?:prior\s+)?notice`)
)

func extractAutoRenewal(text string) domain.AutoRenewal {
	renewal := domain.AutoRenewal{Exists: containsAny(text, autoRenewalKeywords)}
	if !renewal.Exists {
		return renewal
	}
	if m := noticePeriodPattern.FindStringSubmatch(text); m != nil {
		if days, err := strconv.Atoi(m[1]); err == nil {
			renewal.NoticePeriodDays = &days
		}
	}
	return renewal
}

var (
	confidentialityKeywords = []string{"confidential", "confidentiality", "non-disclosure"}
	confidentialityPattern  = regexp.MustCompile(`(?i)confidential(?:ity)?[:\s]+([^\n]{20,150})`)

	indemnityKeywords = []string{"indemnif", "hold harmless"}
	indemnityPattern  = regexp.MustCompile(`(?i)indemni(?:ty|fication|fy)[:\s]+([^\n]{20,150})`)
)

func extractConfidentiality(text string) domain.Clause {
	return extractClause(text, confidentialityKeywords, confidentialityPattern)
}

func extractIndemnity(text string) domain.Clause {
	return extractClause(text, indemnityKeywords, indemnityPattern)
}

func extractClause(text string, keywords []string, summaryPattern *regexp.Regexp) domain.Clause {
	clause := domain.Clause{Exists: containsAny(text, keywords)}
	if !clause.Exists {
		return clause
	}
	if m := summaryPattern.FindStringSubmatch(text); m != nil {
		clause.Summary = strPtr(strings.TrimSpace(m[1]))
	}
	return clause
}

var liabilityCapPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)liability.*?(?:limited|capped|not exceed)\s+.*?\$?([\d,]+)`),
	regexp.MustCompile(`(?i)\$?([\d,]+).*?(?:maximum|limit).*?liability`),
}

// extractLiabilityCap parses the first amount it can; a pattern whose capture
// does not parse as a number falls through to the next pattern, and total
// failure leaves the field absent rather than erroring.
func extractLiabilityCap(text string) *domain.LiabilityCap {
	for _, pattern := range liabilityCapPatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		amount, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			continue
		}
		return &domain.LiabilityCap{Amount: amount, Currency: "USD"}
	}
	return nil
}

// Signature blocks use exact capitalization, so this pattern is deliberately
// case-sensitive.
var signatoryPattern = regexp.MustCompile(`(?:By:|Signature:)\s*([A-Z][a-z]+\s+[A-Z][a-z]+)\s*(?:Title:)?\s*([A-Z][a-z\s]+)?`)

func extractSignatories(text string) []domain.Signatory {
	tail := suffix(text, signatoriesScanWindow)

	var signatories []domain.Signatory
	for _, m := range signatoryPattern.FindAllStringSubmatch(tail, -1) {
		signatories = append(signatories, domain.Signatory{
			Name:  strings.TrimSpace(m[1]),
			Title: strings.TrimSpace(m[2]),
		})
	}

	if len(signatories) > maxSignatories {
		signatories = signatories[:maxSignatories]
	}
	return signatories
}

func firstGroupMatch(patterns []*regexp.Regexp, text string) *string {
	for _, pattern := range patterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			return strPtr(strings.TrimSpace(m[1]))
		}
	}
	return nil
}

func containsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

func prefix(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func suffix(s string, n int) string {
	if len(s) > n {
		return s[len(s)-n:]
	}
	return s
}

func strPtr(s string) *string {
	return &s
}
