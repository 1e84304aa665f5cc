package ports

import (
	"context"
	"io"

	"github.com/avolkov/contract-intel/internal/core/domain"
)

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous document processing.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// FieldExtractionService runs pattern-based field extraction over a stored document.
type FieldExtractionService interface {
	ExtractByID(ctx context.Context, documentID string) (*domain.ExtractionRecord, error)
}

// ContractAuditService runs the risk-rule battery over a stored document and
// replaces its stored findings.
type ContractAuditService interface {
	AuditByID(ctx context.Context, documentID string) ([]domain.Finding, error)
	FindingsByID(ctx context.Context, documentID string) ([]domain.Finding, error)
}

// QuestionAnswerer answers a question over the indexed chunks, optionally
// restricted to a document set.
type QuestionAnswerer interface {
	Answer(ctx context.Context, question string, documentIDs []string, limit int) (*domain.Answer, error)
}
