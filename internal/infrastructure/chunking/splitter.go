// Package chunking splits the page table into overlapping retrieval windows.
// Chunks never cross a page boundary, so every chunk carries an unambiguous
// page number and byte offsets into the full text.
package chunking

import (
	"strings"

	"github.com/avolkov/contract-intel/internal/core/domain"
)

type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

func (s *Splitter) Split(documentID string, pages []domain.PageSpan) []domain.Chunk {
	var chunks []domain.Chunk

	for _, page := range pages {
		text := page.Text

		start := 0
		for start < len(text) {
			end := start + s.ChunkSize
			if end > len(text) {
				end = len(text)
			}

			// Whitespace-only windows are skipped but still advance the
			// cursor, keeping offsets aligned with the page table.
			piece := text[start:end]
			if strings.TrimSpace(piece) != "" {
				chunks = append(chunks, domain.Chunk{
					DocumentID: documentID,
					Text:       piece,
					PageNumber: page.PageNumber,
					CharStart:  page.CharStart + start,
					CharEnd:    page.CharStart + end,
				})
			}

			if end >= len(text) {
				break
			}
			start = end - s.Overlap
		}
	}

	return chunks
}
