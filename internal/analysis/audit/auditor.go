// Package audit runs rule-based risk checks over an extracted contract. Checks
// run in a fixed order and each one is independent: a check numbers its own
// findings and a failure to find evidence never suppresses the finding itself.
package audit

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/avolkov/contract-intel/internal/analysis/evidence"
	"github.com/avolkov/contract-intel/internal/core/domain"
)

// Thresholds hold the tunable limits the checks compare against.
type Thresholds struct {
	// LiabilityCapAmount is the dollar amount below which a liability cap is
	// flagged as low.
	LiabilityCapAmount float64
	// RenewalNoticeDays is the minimum acceptable auto-renewal notice period.
	RenewalNoticeDays int
}

type Auditor struct {
	thresholds Thresholds
}

func New(thresholds Thresholds) *Auditor {
	return &Auditor{thresholds: thresholds}
}

// Audit evaluates every check against the document and returns the findings in
// check order. Finding IDs are numbered within each check, not globally.
func (a *Auditor) Audit(fullText string, record domain.ExtractionRecord, pages []domain.PageSpan) []domain.Finding {
	findings := []domain.Finding{}

	findings = append(findings, a.checkAutoRenewal(fullText, record, pages)...)
	findings = append(findings, a.checkUnlimitedLiability(fullText, record, pages)...)
	findings = append(findings, a.checkBroadIndemnity(fullText, record, pages)...)
	findings = append(findings, a.checkTerminationConvenience(fullText, pages)...)
	findings = append(findings, a.checkLiabilityCap(fullText, record, pages)...)

	return findings
}

var autoRenewalEvidenceKeywords = []string{"auto-renew", "automatic renewal"}

func (a *Auditor) checkAutoRenewal(fullText string, record domain.ExtractionRecord, pages []domain.PageSpan) []domain.Finding {
	var findings []domain.Finding

	if !record.AutoRenewal.Exists {
		return findings
	}

	days := record.AutoRenewal.NoticePeriodDays
	switch {
	case days != nil && *days > 0 && *days < a.thresholds.RenewalNoticeDays:
		findings = append(findings, newFinding(len(findings)+1,
			domain.SeverityHigh, domain.CheckAutoRenewal,
			fmt.Sprintf("Auto-renewal with %d days notice (less than %d days)", *days, a.thresholds.RenewalNoticeDays),
			evidence.Locate(fullText, pages, autoRenewalEvidenceKeywords)))
	case days == nil || *days == 0:
		findings = append(findings, newFinding(len(findings)+1,
			domain.SeverityHigh, domain.CheckAutoRenewal,
			"Auto-renewal clause with unclear notice period",
			evidence.Locate(fullText, pages, autoRenewalEvidenceKeywords)))
	}

	return findings
}

var unlimitedLiabilityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)unlimited\s+liability`),
	regexp.MustCompile(`(?i)liability.*without\s+limit`),
	regexp.MustCompile(`(?i)no\s+limitation\s+on\s+liability`),
}

func (a *Auditor) checkUnlimitedLiability(fullText string, record domain.ExtractionRecord, pages []domain.PageSpan) []domain.Finding {
	var findings []domain.Finding

	for _, pattern := range unlimitedLiabilityPatterns {
		if pattern.MatchString(fullText) {
			findings = append(findings, newFinding(len(findings)+1,
				domain.SeverityHigh, domain.CheckUnlimitedLiability,
				"Contract contains unlimited liability clause",
				evidence.Locate(fullText, pages, []string{"unlimited liability", "without limit"})))
			break
		}
	}

	// A contract that mentions liability but caps it nowhere is treated the
	// same as an explicit unlimited-liability clause.
	if record.LiabilityCap == nil && len(findings) == 0 &&
		strings.Contains(strings.ToLower(fullText), "liability") {
		findings = append(findings, newFinding(len(findings)+1,
			domain.SeverityHigh, domain.CheckUnlimitedLiability,
			"No liability cap specified in contract",
			truncateSpans(evidence.Locate(fullText, pages, []string{"liability"}), 1)))
	}

	return findings
}

var broadIndemnityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)indemnif(?:y|ication).*all\s+claims`),
	regexp.MustCompile(`(?i)indemnif(?:y|ication).*any\s+and\s+all`),
	regexp.MustCompile(`(?i)hold\s+harmless.*all\s+claims`),
}

func (a *Auditor) checkBroadIndemnity(fullText string, record domain.ExtractionRecord, pages []domain.PageSpan) []domain.Finding {
	var findings []domain.Finding

	if !record.Indemnity.Exists {
		return findings
	}

	for _, pattern := range broadIndemnityPatterns {
		if pattern.MatchString(fullText) {
			findings = append(findings, newFinding(len(findings)+1,
				domain.SeverityMedium, domain.CheckBroadIndemnity,
				"Indemnity clause covers broad scope (all claims)",
				evidence.Locate(fullText, pages, []string{"indemnif", "hold harmless"})))
			break
		}
	}

	return findings
}

var terminationConveniencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)terminat(?:e|ion).*for\s+convenience`),
	regexp.MustCompile(`(?i)terminat(?:e|ion).*without\s+cause`),
	regexp.MustCompile(`(?i)either\s+party\s+may\s+terminat(?:e|ion)`),
}

func (a *Auditor) checkTerminationConvenience(fullText string, pages []domain.PageSpan) []domain.Finding {
	var findings []domain.Finding

	for _, pattern := range terminationConveniencePatterns {
		if pattern.MatchString(fullText) {
			return findings
		}
	}

	findings = append(findings, newFinding(len(findings)+1,
		domain.SeverityMedium, domain.CheckMissingTerminationConv,
		"Contract lacks termination for convenience clause",
		truncateSpans(evidence.Locate(fullText, pages, []string{"terminat"}), 1)))

	return findings
}

func (a *Auditor) checkLiabilityCap(fullText string, record domain.ExtractionRecord, pages []domain.PageSpan) []domain.Finding {
	var findings []domain.Finding

	liabilityCap := record.LiabilityCap
	if liabilityCap == nil || liabilityCap.Amount <= 0 || liabilityCap.Amount >= a.thresholds.LiabilityCapAmount {
		return findings
	}

	findings = append(findings, newFinding(len(findings)+1,
		domain.SeverityLow, domain.CheckLowLiabilityCap,
		fmt.Sprintf("Liability cap %s is below recommended threshold %s",
			formatDollars(liabilityCap.Amount), formatDollars(a.thresholds.LiabilityCapAmount)),
		evidence.Locate(fullText, pages, []string{"liability", "limit"})))

	return findings
}

func newFinding(seq int, severity domain.Severity, checkType, summary string, spans []domain.EvidenceSpan) domain.Finding {
	if spans == nil {
		spans = []domain.EvidenceSpan{}
	}
	return domain.Finding{
		ID:       fmt.Sprintf("FIND-%03d", seq),
		Severity: severity,
		Type:     checkType,
		Summary:  summary,
		Evidence: spans,
	}
}

func truncateSpans(spans []domain.EvidenceSpan, n int) []domain.EvidenceSpan {
	if len(spans) > n {
		return spans[:n]
	}
	return spans
}

// formatDollars renders an amount as whole dollars with thousands separators.
func formatDollars(amount float64) string {
	digits := fmt.Sprintf("%.0f", amount)

	var b strings.Builder
	b.WriteByte('$')
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
		if len(digits) > lead {
			b.WriteByte(',')
		}
	}
	for i := lead; i < len(digits); i += 3 {
		b.WriteString(digits[i : i+3])
		if i+3 < len(digits) {
			b.WriteByte(',')
		}
	}
	return b.String()
}
