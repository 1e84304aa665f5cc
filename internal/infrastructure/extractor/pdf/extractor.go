// Package pdf extracts contract text and a page offset table from stored
// documents. PDFs go through ledongthuc/pdf; any valid UTF-8 upload is
// accepted as a single-page plain text contract.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/avolkov/contract-intel/internal/core/domain"
	"github.com/avolkov/contract-intel/internal/core/ports"
)

var pdfMagic = []byte("%PDF-")

type Extractor struct {
	storage ports.ObjectStorage
}

func NewExtractor(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

func (e *Extractor) Extract(ctx context.Context, doc *domain.Document) (string, []domain.PageSpan, error) {
	reader, err := e.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return "", nil, fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return "", nil, fmt.Errorf("read source document: %w", err)
	}

	if isPDF(doc.MimeType, raw) {
		return extractPDF(raw)
	}

	if !utf8.Valid(raw) {
		return "", nil, domain.WrapError(domain.ErrInvalidInput, "extract text",
			fmt.Errorf("unsupported binary format: %s", doc.Filename))
	}

	text := string(raw)
	if strings.TrimSpace(text) == "" {
		return "", nil, nil
	}
	pages := []domain.PageSpan{{PageNumber: 1, CharStart: 0, CharEnd: len(text), Text: text}}
	return text, pages, nil
}

func isPDF(mimeType string, raw []byte) bool {
	return mimeType == "application/pdf" || bytes.HasPrefix(raw, pdfMagic)
}

// extractPDF concatenates page texts without separators so that the page
// table's character ranges tile the full text exactly. A page whose text
// cannot be decoded contributes an empty span but keeps its page number.
func extractPDF(raw []byte) (string, []domain.PageSpan, error) {
	// The pdf library needs a ReadSeeker with a known size, so spool to a
	// temp file first.
	tmp, err := os.CreateTemp("", "contract-*.pdf")
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return "", nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	f, pdfReader, err := pdflib.Open(tmpPath)
	if err != nil {
		return "", nil, domain.WrapError(domain.ErrInvalidInput, "parse pdf", err)
	}
	defer f.Close()

	var fullText strings.Builder
	var pages []domain.PageSpan
	offset := 0

	numPages := pdfReader.NumPage()
	for i := 1; i <= numPages; i++ {
		pageText := ""
		page := pdfReader.Page(i)
		if !page.V.IsNull() {
			if text, err := page.GetPlainText(nil); err == nil {
				pageText = text
			}
		}

		pages = append(pages, domain.PageSpan{
			PageNumber: i,
			CharStart:  offset,
			CharEnd:    offset + len(pageText),
			Text:       pageText,
		})
		fullText.WriteString(pageText)
		offset += len(pageText)
	}

	if numPages == 0 {
		return "", nil, domain.WrapError(domain.ErrInvalidInput, "parse pdf", errors.New("pdf has no pages"))
	}
	return fullText.String(), pages, nil
}
