// Package report renders audit results as an Excel workbook for reviewers
// who live outside the API.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/avolkov/contract-intel/internal/core/domain"
)

const (
	summarySheet  = "Summary"
	findingsSheet = "Findings"
)

var findingsHeader = []string{"Finding ID", "Check", "Severity", "Summary", "Evidence"}

// WriteFindingsWorkbook writes a two-sheet workbook: a per-document summary
// with severity counts, and one row per finding with its evidence locations.
func WriteFindingsWorkbook(w io.Writer, doc *domain.Document, findings []domain.Finding) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}
	if _, err := f.NewSheet(findingsSheet); err != nil {
		return fmt.Errorf("create findings sheet: %w", err)
	}

	if err := writeSummary(f, doc, findings); err != nil {
		return err
	}
	if err := writeFindings(f, findings); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, doc *domain.Document, findings []domain.Finding) error {
	counts := map[domain.Severity]int{}
	for _, finding := range findings {
		counts[finding.Severity]++
	}

	rows := [][]any{
		{"Document ID", doc.ID},
		{"Filename", doc.Filename},
		{"Status", string(doc.Status)},
		{"Pages", doc.PageCount},
		{"Uploaded", doc.CreatedAt.Format("2006-01-02 15:04:05 UTC")},
		{"Total findings", len(findings)},
		{"High", counts[domain.SeverityHigh]},
		{"Medium", counts[domain.SeverityMedium]},
		{"Low", counts[domain.SeverityLow]},
	}
	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary row %d: %w", i+1, err)
		}
	}
	return nil
}

func writeFindings(f *excelize.File, findings []domain.Finding) error {
	header := make([]any, len(findingsHeader))
	for i, h := range findingsHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(findingsSheet, "A1", &header); err != nil {
		return fmt.Errorf("write findings header: %w", err)
	}

	for i, finding := range findings {
		row := []any{
			finding.ID,
			finding.Type,
			string(finding.Severity),
			finding.Summary,
			formatEvidence(finding.Evidence),
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(findingsSheet, cell, &row); err != nil {
			return fmt.Errorf("write finding row %d: %w", i+2, err)
		}
	}
	return nil
}

func formatEvidence(spans []domain.EvidenceSpan) string {
	if len(spans) == 0 {
		return ""
	}
	parts := make([]string, 0, len(spans))
	for _, span := range spans {
		parts = append(parts, fmt.Sprintf("p.%d [%d-%d]: %s", span.Page, span.CharStart, span.CharEnd, span.Excerpt))
	}
	return strings.Join(parts, "\n")
}
