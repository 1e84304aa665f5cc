// Package httpadapter exposes the contract intelligence API.
package httpadapter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/avolkov/contract-intel/internal/core/domain"
	"github.com/avolkov/contract-intel/internal/core/ports"
	"github.com/avolkov/contract-intel/internal/observability/metrics"
	"github.com/avolkov/contract-intel/internal/report"
)

type Router struct {
	service string

	ingest    ports.DocumentIngestor
	documents ports.DocumentReader
	fields    ports.FieldExtractionService
	audits    ports.ContractAuditService
	answerer  ports.QuestionAnswerer

	metrics *metrics.HTTPServerMetrics
	limiter *clientLimiter
}

type Deps struct {
	Ingest    ports.DocumentIngestor
	Documents ports.DocumentReader
	Fields    ports.FieldExtractionService
	Audits    ports.ContractAuditService
	Answerer  ports.QuestionAnswerer

	Metrics        *metrics.HTTPServerMetrics
	RateLimitRPS   float64
	RateLimitBurst int
}

func NewRouter(service string, deps Deps) *Router {
	return &Router{
		service:   service,
		ingest:    deps.Ingest,
		documents: deps.Documents,
		fields:    deps.Fields,
		audits:    deps.Audits,
		answerer:  deps.Answerer,
		metrics:   deps.Metrics,
		limiter:   newClientLimiter(deps.RateLimitRPS, deps.RateLimitBurst),
	}
}

func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(accessLogMiddleware)
	if rt.limiter != nil {
		r.Use(rt.limiter.middleware)
	}

	r.Get("/healthz", rt.healthz)
	if rt.metrics != nil {
		r.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	r.Post("/v1/documents", rt.uploadDocument)
	r.Route("/v1/documents/{documentID}", func(r chi.Router) {
		r.Get("/", rt.getDocument)
		r.Post("/extract", rt.extractFields)
		r.Post("/audit", rt.auditContract)
		r.Get("/findings", rt.listFindings)
		r.Get("/report", rt.exportReport)
	})
	r.Post("/v1/rag/query", rt.answerQuestion)

	if rt.metrics != nil {
		return rt.metrics.Middleware(rt.service, r)
	}
	return r
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	doc, err := rt.ingest.Upload(r.Context(), fileHeader.Filename, fileHeader.Header.Get("Content-Type"), file)
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordDocumentIngested(rt.service)
	}
	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := rt.documents.GetByID(r.Context(), chi.URLParam(r, "documentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) extractFields(w http.ResponseWriter, r *http.Request) {
	record, err := rt.fields.ExtractByID(r.Context(), chi.URLParam(r, "documentID"))
	if err != nil {
		writeStateError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordFieldExtraction(rt.service)
	}
	writeJSON(w, http.StatusOK, record)
}

func (rt *Router) auditContract(w http.ResponseWriter, r *http.Request) {
	findings, err := rt.audits.AuditByID(r.Context(), chi.URLParam(r, "documentID"))
	if err != nil {
		writeStateError(w, err)
		return
	}

	if rt.metrics != nil {
		counts := map[string]int{}
		for _, finding := range findings {
			counts[string(finding.Severity)]++
		}
		rt.metrics.RecordAudit(rt.service, counts)
	}
	writeJSON(w, http.StatusOK, map[string]any{"findings": findings})
}

func (rt *Router) listFindings(w http.ResponseWriter, r *http.Request) {
	findings, err := rt.audits.FindingsByID(r.Context(), chi.URLParam(r, "documentID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"findings": findings})
}

func (rt *Router) exportReport(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "documentID")

	doc, err := rt.documents.GetByID(r.Context(), documentID)
	if err != nil {
		writeError(w, err)
		return
	}
	findings, err := rt.audits.FindingsByID(r.Context(), documentID)
	if err != nil {
		writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteFindingsWorkbook(&buf, doc, findings); err != nil {
		writeError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordReportExport(rt.service)
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "audit-"+documentID+".xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (rt *Router) answerQuestion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question    string   `json:"question"`
		DocumentIDs []string `json:"document_ids"`
		Limit       int      `json:"limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}

	start := time.Now()
	answer, err := rt.answerer.Answer(r.Context(), req.Question, req.DocumentIDs, req.Limit)
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordRAGObservation(rt.service, "rag_query", len(answer.Sources), time.Since(start))
	}
	writeJSON(w, http.StatusOK, answer)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

// writeStateError is writeError for operations with a document-state
// precondition: a document without extracted text is a conflict, not a bad
// request.
func writeStateError(w http.ResponseWriter, err error) {
	if domain.IsKind(err, domain.ErrInvalidInput) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}
	writeError(w, err)
}
