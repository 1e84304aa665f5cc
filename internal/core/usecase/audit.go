package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/avolkov/contract-intel/internal/core/domain"
	"github.com/avolkov/contract-intel/internal/core/ports"
)

// RiskAuditor is the audit engine contract. It is pure: persistence of the
// returned findings is this use case's job.
type RiskAuditor interface {
	Audit(fullText string, record domain.ExtractionRecord, pages []domain.PageSpan) []domain.Finding
}

type AuditContractUseCase struct {
	repo        ports.DocumentRepository
	extractions ports.ExtractionRepository
	findings    ports.FindingRepository
	engine      RiskAuditor
}

func NewAuditContractUseCase(
	repo ports.DocumentRepository,
	extractions ports.ExtractionRepository,
	findings ports.FindingRepository,
	engine RiskAuditor,
) *AuditContractUseCase {
	return &AuditContractUseCase{
		repo:        repo,
		extractions: extractions,
		findings:    findings,
		engine:      engine,
	}
}

// AuditByID runs every check against the document and replaces its stored
// findings. A document audited before field extraction is checked against an
// empty record: text-only checks still apply.
func (uc *AuditContractUseCase) AuditByID(ctx context.Context, documentID string) ([]domain.Finding, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}
	if doc.FullText == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "audit contract", errors.New("document has no extracted text"))
	}

	pages, err := uc.repo.ListPages(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("load page table: %w", err)
	}

	record, err := uc.loadExtraction(ctx, documentID)
	if err != nil {
		return nil, err
	}

	findings := uc.engine.Audit(doc.FullText, record, pages)

	if err := uc.findings.ReplaceForDocument(ctx, documentID, findings); err != nil {
		return nil, fmt.Errorf("store audit findings: %w", err)
	}

	return findings, nil
}

func (uc *AuditContractUseCase) FindingsByID(ctx context.Context, documentID string) ([]domain.Finding, error) {
	if _, err := uc.repo.GetByID(ctx, documentID); err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}

	findings, err := uc.findings.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list audit findings: %w", err)
	}
	return findings, nil
}

func (uc *AuditContractUseCase) loadExtraction(ctx context.Context, documentID string) (domain.ExtractionRecord, error) {
	record, err := uc.extractions.GetByDocumentID(ctx, documentID)
	if err != nil {
		if domain.IsKind(err, domain.ErrExtractionNotFound) {
			return domain.ExtractionRecord{DocumentID: documentID}, nil
		}
		return domain.ExtractionRecord{}, fmt.Errorf("load extraction record: %w", err)
	}
	return *record, nil
}
