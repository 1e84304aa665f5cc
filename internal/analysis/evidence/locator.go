// Package evidence locates text spans supporting audit findings. The locator
// is a pure function of (text, page table, keywords) and keeps no state.
package evidence

import (
	"fmt"
	"regexp"

	"github.com/avolkov/contract-intel/internal/core/domain"
)

const (
	contextWindow = 100
	maxPerKeyword = 2
	maxTotalSpans = 3
)

// Locate scans keywords in order and returns spans for the first keyword that
// matches anywhere in the text, at most two matches for that keyword, with up
// to 100 characters of surrounding context per side. Later keywords are not
// tried once one has matched. The result is capped at three spans.
func Locate(fullText string, pages []domain.PageSpan, keywords []string) []domain.EvidenceSpan {
	var spans []domain.EvidenceSpan

	for _, keyword := range keywords {
		pattern := regexp.MustCompile(fmt.Sprintf(`(?i).{0,%d}%s.{0,%d}`,
			contextWindow, regexp.QuoteMeta(keyword), contextWindow))

		matches := pattern.FindAllStringIndex(fullText, maxPerKeyword)
		for _, m := range matches {
			spans = append(spans, domain.EvidenceSpan{
				Page:      pageForOffset(pages, m[0]),
				CharStart: m[0],
				CharEnd:   m[1],
				Excerpt:   fullText[m[0]:m[1]],
			})
		}
		if len(spans) > 0 {
			break
		}
	}

	if len(spans) > maxTotalSpans {
		spans = spans[:maxTotalSpans]
	}
	return spans
}

// pageForOffset returns the page whose [CharStart, CharEnd) range contains the
// offset. Falls back to page 1; a contiguous page table covering the full
// text never reaches the fallback.
func pageForOffset(pages []domain.PageSpan, offset int) int {
	for _, page := range pages {
		if page.CharStart <= offset && offset < page.CharEnd {
			return page.PageNumber
		}
	}
	return 1
}
