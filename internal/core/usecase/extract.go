package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/avolkov/contract-intel/internal/core/domain"
	"github.com/avolkov/contract-intel/internal/core/ports"
)

// FieldExtractor is the rule engine contract: given text and a page table it
// always produces a record, absent fields included.
type FieldExtractor interface {
	Extract(ctx context.Context, documentID, fullText string, pages []domain.PageSpan) domain.ExtractionRecord
}

type ExtractFieldsUseCase struct {
	repo        ports.DocumentRepository
	extractions ports.ExtractionRepository
	engine      FieldExtractor
}

func NewExtractFieldsUseCase(
	repo ports.DocumentRepository,
	extractions ports.ExtractionRepository,
	engine FieldExtractor,
) *ExtractFieldsUseCase {
	return &ExtractFieldsUseCase{
		repo:        repo,
		extractions: extractions,
		engine:      engine,
	}
}

// ExtractByID runs field extraction over a processed document and replaces
// its stored record. The document must have extracted text already.
func (uc *ExtractFieldsUseCase) ExtractByID(ctx context.Context, documentID string) (*domain.ExtractionRecord, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}
	if doc.FullText == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "extract fields", errors.New("document has no extracted text"))
	}

	pages, err := uc.repo.ListPages(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("load page table: %w", err)
	}

	record := uc.engine.Extract(ctx, documentID, doc.FullText, pages)
	record.DocumentID = documentID

	if err := uc.extractions.Upsert(ctx, record); err != nil {
		return nil, fmt.Errorf("store extraction record: %w", err)
	}

	return &record, nil
}
