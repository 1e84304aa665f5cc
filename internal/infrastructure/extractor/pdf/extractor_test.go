package pdf

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/avolkov/contract-intel/internal/core/domain"
)

type storageFake struct {
	data    []byte
	openErr error
}

func (f *storageFake) Save(context.Context, string, io.Reader) error { return nil }

func (f *storageFake) Open(context.Context, string) (io.ReadCloser, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return io.NopCloser(strings.NewReader(string(f.data))), nil
}

func TestExtractPlainText(t *testing.T) {
	text := "MASTER SERVICE AGREEMENT\n\nThe parties agree as follows."
	e := NewExtractor(&storageFake{data: []byte(text)})

	got, pages, err := e.Extract(context.Background(), &domain.Document{
		StoragePath: "doc-1_contract.txt",
		MimeType:    "text/plain",
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got != text {
		t.Fatalf("text mismatch: %q", got)
	}
	if len(pages) != 1 {
		t.Fatalf("expected single page, got %d", len(pages))
	}
	if pages[0].PageNumber != 1 || pages[0].CharStart != 0 || pages[0].CharEnd != len(text) {
		t.Fatalf("unexpected page span: %+v", pages[0])
	}
}

func TestExtractRejectsBinary(t *testing.T) {
	e := NewExtractor(&storageFake{data: []byte{0xff, 0xfe, 0x00, 0x01}})

	_, _, err := e.Extract(context.Background(), &domain.Document{
		StoragePath: "doc-1_blob.bin",
		MimeType:    "application/octet-stream",
		Filename:    "blob.bin",
	})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input kind, got %v", err)
	}
}

func TestExtractRejectsCorruptPDF(t *testing.T) {
	e := NewExtractor(&storageFake{data: []byte("%PDF-1.4 not actually a pdf")})

	_, _, err := e.Extract(context.Background(), &domain.Document{
		StoragePath: "doc-1_broken.pdf",
		MimeType:    "application/pdf",
	})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input kind, got %v", err)
	}
}

func TestExtractEmptyTextReturnsEmpty(t *testing.T) {
	e := NewExtractor(&storageFake{data: []byte("   \n  ")})

	text, pages, err := e.Extract(context.Background(), &domain.Document{
		StoragePath: "doc-1_empty.txt",
		MimeType:    "text/plain",
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "" || pages != nil {
		t.Fatalf("expected empty result, got %q / %+v", text, pages)
	}
}

func TestExtractStorageFailure(t *testing.T) {
	e := NewExtractor(&storageFake{openErr: errors.New("missing object")})

	if _, _, err := e.Extract(context.Background(), &domain.Document{StoragePath: "gone"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestIsPDF(t *testing.T) {
	if !isPDF("application/pdf", nil) {
		t.Fatalf("mime type should mark pdf")
	}
	if !isPDF("application/octet-stream", []byte("%PDF-1.7\n")) {
		t.Fatalf("magic bytes should mark pdf")
	}
	if isPDF("text/plain", []byte("plain words")) {
		t.Fatalf("plain text misdetected as pdf")
	}
}
