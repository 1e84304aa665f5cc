package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/avolkov/contract-intel/internal/core/domain"
	"github.com/avolkov/contract-intel/internal/core/ports"
)

type ProcessDocumentUseCase struct {
	repo      ports.DocumentRepository
	extractor ports.TextExtractor
	chunker   ports.Chunker
	embedder  ports.Embedder
	vectorDB  ports.VectorStore
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	vectorDB ports.VectorStore,
) *ProcessDocumentUseCase {
	return &ProcessDocumentUseCase{
		repo:      repo,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		vectorDB:  vectorDB,
	}
}

// ProcessByID runs the ingestion pipeline: extract text and page offsets,
// persist them, chunk, embed, index. Any pipeline failure marks the document
// failed with the error message; status bookkeeping failures take precedence.
func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.markStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	if err := uc.processPipeline(ctx, documentID); err != nil {
		if failErr := uc.markFailed(ctx, documentID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.markStatus(ctx, documentID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}

	return nil
}

func (uc *ProcessDocumentUseCase) processPipeline(ctx context.Context, documentID string) error {
	doc, err := uc.loadDocument(ctx, documentID)
	if err != nil {
		return err
	}

	text, pages, err := uc.extractText(ctx, doc)
	if err != nil {
		return err
	}

	if err := uc.persistText(ctx, doc.ID, text, pages); err != nil {
		return err
	}

	chunks, err := uc.chunk(doc.ID, pages)
	if err != nil {
		return err
	}

	vectors, err := uc.embed(ctx, chunks)
	if err != nil {
		return err
	}

	if err := uc.index(ctx, doc.ID, chunks, vectors); err != nil {
		return err
	}

	return nil
}

func (uc *ProcessDocumentUseCase) loadDocument(ctx context.Context, documentID string) (*domain.Document, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}
	return doc, nil
}

func (uc *ProcessDocumentUseCase) extractText(ctx context.Context, doc *domain.Document) (string, []domain.PageSpan, error) {
	text, pages, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return "", nil, fmt.Errorf("extract text: %w", err)
	}
	if text == "" {
		return "", nil, domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("empty extracted text"))
	}
	return text, pages, nil
}

func (uc *ProcessDocumentUseCase) persistText(ctx context.Context, documentID, text string, pages []domain.PageSpan) error {
	if err := uc.repo.SaveText(ctx, documentID, text, len(pages)); err != nil {
		return fmt.Errorf("save extracted text: %w", err)
	}
	if err := uc.repo.ReplacePages(ctx, documentID, pages); err != nil {
		return fmt.Errorf("save page table: %w", err)
	}
	return nil
}

func (uc *ProcessDocumentUseCase) chunk(documentID string, pages []domain.PageSpan) ([]domain.Chunk, error) {
	chunks := uc.chunker.Split(documentID, pages)
	if len(chunks) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "chunk document", errors.New("chunking produced zero chunks"))
	}
	return chunks, nil
}

func (uc *ProcessDocumentUseCase) embed(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks)),
		)
	}
	return vectors, nil
}

func (uc *ProcessDocumentUseCase) index(ctx context.Context, documentID string, chunks []domain.Chunk, vectors [][]float32) error {
	if err := uc.vectorDB.IndexChunks(ctx, documentID, chunks, vectors); err != nil {
		return fmt.Errorf("index chunks in vector db: %w", err)
	}
	return nil
}

func (uc *ProcessDocumentUseCase) markStatus(ctx context.Context, documentID string, status domain.DocumentStatus, errMessage string) error {
	return uc.repo.UpdateStatus(ctx, documentID, status, errMessage)
}

func (uc *ProcessDocumentUseCase) markFailed(ctx context.Context, documentID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	return uc.markStatus(ctx, documentID, domain.StatusFailed, processErr.Error())
}
