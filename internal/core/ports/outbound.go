package ports

import (
	"context"
	"io"

	"github.com/avolkov/contract-intel/internal/core/domain"
)

// DocumentRepository persists document state, extracted text and the page table.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveText(ctx context.Context, id string, fullText string, pageCount int) error
	ReplacePages(ctx context.Context, documentID string, pages []domain.PageSpan) error
	ListPages(ctx context.Context, documentID string) ([]domain.PageSpan, error)
}

// ExtractionRepository stores one extraction record per document;
// re-extraction replaces the record wholesale.
type ExtractionRepository interface {
	Upsert(ctx context.Context, record domain.ExtractionRecord) error
	GetByDocumentID(ctx context.Context, documentID string) (*domain.ExtractionRecord, error)
}

// FindingRepository stores audit findings. ReplaceForDocument deletes prior
// findings and inserts the new set atomically: audits are snapshots.
type FindingRepository interface {
	ReplaceForDocument(ctx context.Context, documentID string, findings []domain.Finding) error
	ListByDocument(ctx context.Context, documentID string) ([]domain.Finding, error)
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor turns a stored document into full text plus a page offset table.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, []domain.PageSpan, error)
}

// Chunker splits the page table into retrieval chunks with page/offset payload.
type Chunker interface {
	Split(documentID string, pages []domain.PageSpan) []domain.Chunk
}

// Embedder builds vectors for chunks and query text. Both methods use the
// same fixed dimensionality regardless of provider.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorStore indexes chunks and performs similarity search. Sample returns
// an unranked slice of stored chunks, used when search yields nothing.
type VectorStore interface {
	IndexChunks(ctx context.Context, documentID string, chunks []domain.Chunk, vectors [][]float32) error
	Search(ctx context.Context, queryVector []float32, limit int, documentIDs []string) ([]domain.RetrievedChunk, error)
	Sample(ctx context.Context, limit int, documentIDs []string) ([]domain.RetrievedChunk, error)
}

// Completer is the optional text-completion capability. Callers must treat
// any error as a signal to fall back; absence (nil) disables enhancement.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
