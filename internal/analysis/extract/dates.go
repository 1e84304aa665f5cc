package extract

import (
	"regexp"
	"time"
)

var effectiveDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)effective\s+(?:date|as\s+of)[:\s]+([A-Za-z]+\s+\d{1,2},?\s+\d{4})`),
	regexp.MustCompile(`(?i)dated\s+(?:as\s+of\s+)?([A-Za-z]+\s+\d{1,2},?\s+\d{4})`),
	regexp.MustCompile(`(\d{1,2}/\d{1,2}/\d{4})`),
	regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`),
}

var dateLayouts = []string{
	"January 2, 2006",
	"January 2 2006",
	"1/2/2006",
	"2006-1-2",
	"2 January 2006",
	"2-1-2006",
}

// extractEffectiveDate searches only the document head: effective dates sit
// in the preamble, and a date appearing later in the text is never picked up.
// A pattern match whose text parses with none of the layouts falls through to
// the next pattern.
func extractEffectiveDate(text string) *string {
	head := prefix(text, dateScanWindow)

	for _, pattern := range effectiveDatePatterns {
		m := pattern.FindStringSubmatch(head)
		if m == nil {
			continue
		}
		if canonical, ok := parseDate(m[1]); ok {
			return strPtr(canonical)
		}
	}
	return nil
}

// parseDate canonicalizes a date string to YYYY-MM-DD using the first layout
// that parses it.
func parseDate(raw string) (string, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}
