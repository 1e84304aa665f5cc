package evidence

import (
	"strings"
	"testing"

	"github.com/avolkov/contract-intel/internal/core/domain"
)

func pagesFor(text string, pageLen int) []domain.PageSpan {
	var pages []domain.PageSpan
	for start, page := 0, 1; start < len(text); start, page = start+pageLen, page+1 {
		end := start + pageLen
		if end > len(text) {
			end = len(text)
		}
		pages = append(pages, domain.PageSpan{
			PageNumber: page,
			CharStart:  start,
			CharEnd:    end,
			Text:       text[start:end],
		})
	}
	return pages
}

func TestLocateFirstKeywordWins(t *testing.T) {
	text := "The liability clause appears here. Indemnity appears later."
	spans := Locate(text, pagesFor(text, len(text)), []string{"liability", "indemnity"})
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if !strings.Contains(strings.ToLower(spans[0].Excerpt), "liability") {
		t.Fatalf("expected liability excerpt, got %q", spans[0].Excerpt)
	}
}

func TestLocateFallsThroughToLaterKeyword(t *testing.T) {
	text := "Nothing about the first topic, but hold harmless shows up."
	spans := Locate(text, pagesFor(text, len(text)), []string{"indemnif", "hold harmless"})
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if !strings.Contains(spans[0].Excerpt, "hold harmless") {
		t.Fatalf("expected hold harmless excerpt, got %q", spans[0].Excerpt)
	}
}

func TestLocateCaseInsensitiveLiteralMatch(t *testing.T) {
	text := "Section 5: AUTO-RENEW applies. Special chars (like these) are literal."
	spans := Locate(text, pagesFor(text, len(text)), []string{"auto-renew"})
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	spans = Locate(text, pagesFor(text, len(text)), []string{"(like these)"})
	if len(spans) != 1 {
		t.Fatalf("expected literal parenthesis match, got %d spans", len(spans))
	}
}

func TestLocateCapsMatchesPerKeyword(t *testing.T) {
	part := "the liability term repeats here and fills enough characters to keep the context windows of consecutive matches from swallowing each other entirely. "
	text := strings.Repeat(part, 5)
	spans := Locate(text, pagesFor(text, len(text)), []string{"liability"})
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans (per-keyword cap), got %d", len(spans))
	}
}

func TestLocateNoMatches(t *testing.T) {
	text := "Plain text without the terms of interest."
	spans := Locate(text, pagesFor(text, len(text)), []string{"indemnif", "hold harmless"})
	if len(spans) != 0 {
		t.Fatalf("expected no spans, got %d", len(spans))
	}
}

func TestLocateWindowClippedAtTextBounds(t *testing.T) {
	text := "liability at the very start"
	spans := Locate(text, pagesFor(text, len(text)), []string{"liability"})
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].CharStart != 0 {
		t.Fatalf("expected span clipped to offset 0, got %d", spans[0].CharStart)
	}
	if spans[0].CharEnd > len(text) {
		t.Fatalf("span end %d beyond text length %d", spans[0].CharEnd, len(text))
	}
}

func TestEveryOffsetMapsToExactlyOnePage(t *testing.T) {
	text := strings.Repeat("abcdefghij", 10)
	pages := pagesFor(text, 23)

	for offset := 0; offset < len(text); offset++ {
		hits := 0
		for _, p := range pages {
			if p.CharStart <= offset && offset < p.CharEnd {
				hits++
			}
		}
		if hits != 1 {
			t.Fatalf("offset %d contained by %d pages", offset, hits)
		}
	}
}

func TestLocateMapsMatchToContainingPage(t *testing.T) {
	page1 := strings.Repeat("x", 120)
	page2 := strings.Repeat("y", 150) + "the liability language lives on page two"
	text := page1 + page2
	pages := []domain.PageSpan{
		{PageNumber: 1, CharStart: 0, CharEnd: len(page1), Text: page1},
		{PageNumber: 2, CharStart: len(page1), CharEnd: len(text), Text: page2},
	}

	spans := Locate(text, pages, []string{"liability"})
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Page != 2 {
		t.Fatalf("expected page 2, got %d", spans[0].Page)
	}
}

// The page is mapped from the start of the context window, not from the
// keyword itself. A keyword sitting within 100 characters of a page break is
// therefore attributed to the page where its context begins.
func TestLocatePageComesFromContextWindowStart(t *testing.T) {
	page1 := strings.Repeat("x", 40)
	page2 := "the liability language starts page two"
	text := page1 + page2
	pages := []domain.PageSpan{
		{PageNumber: 1, CharStart: 0, CharEnd: len(page1), Text: page1},
		{PageNumber: 2, CharStart: len(page1), CharEnd: len(text), Text: page2},
	}

	spans := Locate(text, pages, []string{"liability"})
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Page != 1 {
		t.Fatalf("expected window-start page 1, got %d", spans[0].Page)
	}
	if spans[0].CharStart != 0 {
		t.Fatalf("expected window clipped to offset 0, got %d", spans[0].CharStart)
	}
}

func TestLocateDefaultsToPageOneWithoutPageTable(t *testing.T) {
	text := "liability somewhere"
	spans := Locate(text, nil, []string{"liability"})
	if len(spans) != 1 || spans[0].Page != 1 {
		t.Fatalf("expected fallback to page 1, got %+v", spans)
	}
}
