package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

type Document struct {
	ID          string         `json:"id"`
	Filename    string         `json:"filename"`
	MimeType    string         `json:"mime_type"`
	StoragePath string         `json:"storage_path"`
	PageCount   int            `json:"page_count"`
	FullText    string         `json:"-"`
	Status      DocumentStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// PageSpan maps one page of a document onto the full-text character range
// [CharStart, CharEnd). Spans are ordered by page, non-overlapping and
// contiguous: CharEnd of page N equals CharStart of page N+1.
type PageSpan struct {
	PageNumber int    `json:"page_number"`
	CharStart  int    `json:"char_start"`
	CharEnd    int    `json:"char_end"`
	Text       string `json:"text"`
}

// Chunk is a retrieval unit: a bounded slice of one page's text.
type Chunk struct {
	DocumentID string `json:"document_id"`
	Text       string `json:"text"`
	PageNumber int    `json:"page_number"`
	CharStart  int    `json:"char_start"`
	CharEnd    int    `json:"char_end"`
}
