// Package bootstrap wires infrastructure into the use cases shared by the
// api and worker binaries.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/avolkov/contract-intel/internal/analysis/audit"
	"github.com/avolkov/contract-intel/internal/analysis/extract"
	"github.com/avolkov/contract-intel/internal/config"
	"github.com/avolkov/contract-intel/internal/core/ports"
	"github.com/avolkov/contract-intel/internal/core/usecase"
	"github.com/avolkov/contract-intel/internal/infrastructure/chunking"
	"github.com/avolkov/contract-intel/internal/infrastructure/extractor/pdf"
	"github.com/avolkov/contract-intel/internal/infrastructure/llm/ollama"
	"github.com/avolkov/contract-intel/internal/infrastructure/queue/nats"
	"github.com/avolkov/contract-intel/internal/infrastructure/repository/postgres"
	"github.com/avolkov/contract-intel/internal/infrastructure/resilience"
	"github.com/avolkov/contract-intel/internal/infrastructure/storage/localfs"
	"github.com/avolkov/contract-intel/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config

	Queue ports.MessageQueue
	Repo  ports.DocumentRepository

	IngestUC  ports.DocumentIngestor
	ProcessUC ports.DocumentProcessor
	ExtractUC ports.FieldExtractionService
	AuditUC   ports.ContractAuditService
	QueryUC   ports.QuestionAnswerer

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	extractions := postgres.NewExtractionRepository(db)
	findings := postgres.NewFindingRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.NewWithExecutor(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, executor)
	embedder := ollama.NewEmbedder(ollamaClient)

	var completer ports.Completer
	if cfg.LLMEnabled {
		completer = ollama.NewCompleter(ollamaClient)
	}

	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	textExtractor := pdf.NewExtractor(storage)

	fieldEngine := extract.New(completer)
	auditEngine := audit.New(audit.Thresholds{
		LiabilityCapAmount: cfg.AuditLiabilityCapThreshold,
		RenewalNoticeDays:  cfg.AuditRenewalNoticeDays,
	})

	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue)
	processUC := usecase.NewProcessDocumentUseCase(repo, textExtractor, chunker, embedder, vectorDB)
	extractUC := usecase.NewExtractFieldsUseCase(repo, extractions, fieldEngine)
	auditUC := usecase.NewAuditContractUseCase(repo, extractions, findings, auditEngine)
	queryUC := usecase.NewAnswerQuestionUseCase(embedder, vectorDB, completer)

	return &App{
		Config: cfg,
		Queue:  queue,
		Repo:   repo,

		IngestUC:  ingestUC,
		ProcessUC: processUC,
		ExtractUC: extractUC,
		AuditUC:   auditUC,
		QueryUC:   queryUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
