package chunking

import (
	"strings"
	"testing"

	"github.com/avolkov/contract-intel/internal/core/domain"
)

func TestSplitSinglePage(t *testing.T) {
	text := strings.Repeat("a", 2500)
	pages := []domain.PageSpan{{PageNumber: 1, CharStart: 0, CharEnd: len(text), Text: text}}

	chunks := NewSplitter(1000, 200).Split("doc-1", pages)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if chunks[0].CharStart != 0 || chunks[0].CharEnd != 1000 {
		t.Fatalf("unexpected first chunk offsets: %+v", chunks[0])
	}
	if chunks[1].CharStart != 800 {
		t.Fatalf("expected 200-char overlap, got start %d", chunks[1].CharStart)
	}
	if chunks[2].CharEnd != 2500 {
		t.Fatalf("expected final chunk to end at text length, got %d", chunks[2].CharEnd)
	}
	for _, c := range chunks {
		if c.DocumentID != "doc-1" || c.PageNumber != 1 {
			t.Fatalf("unexpected chunk metadata: %+v", c)
		}
	}
}

func TestSplitRespectsPageBoundaries(t *testing.T) {
	page1 := strings.Repeat("x", 1200)
	page2 := strings.Repeat("y", 300)
	pages := []domain.PageSpan{
		{PageNumber: 1, CharStart: 0, CharEnd: 1200, Text: page1},
		{PageNumber: 2, CharStart: 1200, CharEnd: 1500, Text: page2},
	}

	chunks := NewSplitter(1000, 200).Split("doc-1", pages)
	for _, c := range chunks {
		if strings.Contains(c.Text, "x") && strings.Contains(c.Text, "y") {
			t.Fatalf("chunk crosses page boundary: %+v", c)
		}
	}

	last := chunks[len(chunks)-1]
	if last.PageNumber != 2 || last.CharStart != 1200 || last.CharEnd != 1500 {
		t.Fatalf("unexpected page-2 chunk: %+v", last)
	}
}

func TestSplitSkipsWhitespaceWindows(t *testing.T) {
	text := strings.Repeat(" ", 1000) + "real content"
	pages := []domain.PageSpan{{PageNumber: 1, CharStart: 0, CharEnd: len(text), Text: text}}

	chunks := NewSplitter(1000, 200).Split("doc-1", pages)
	if len(chunks) != 1 {
		t.Fatalf("expected only the content chunk, got %d", len(chunks))
	}
	if !strings.Contains(chunks[0].Text, "real content") {
		t.Fatalf("unexpected chunk: %+v", chunks[0])
	}
}

func TestSplitEmptyPages(t *testing.T) {
	if chunks := NewSplitter(1000, 200).Split("doc-1", nil); chunks != nil {
		t.Fatalf("expected no chunks, got %+v", chunks)
	}
}

func TestNewSplitterDefaults(t *testing.T) {
	s := NewSplitter(0, -1)
	if s.ChunkSize != 1000 || s.Overlap != 0 {
		t.Fatalf("unexpected defaults: %+v", s)
	}

	s = NewSplitter(100, 100)
	if s.Overlap != 25 {
		t.Fatalf("expected overlap clamped to quarter, got %d", s.Overlap)
	}
}
