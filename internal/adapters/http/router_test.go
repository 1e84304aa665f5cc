package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/avolkov/contract-intel/internal/core/domain"
)

type ingestFake struct {
	doc *domain.Document
	err error

	filename string
	mimeType string
}

func (f *ingestFake) Upload(_ context.Context, filename, mimeType string, _ io.Reader) (*domain.Document, error) {
	f.filename = filename
	f.mimeType = mimeType
	if f.err != nil {
		return nil, f.err
	}
	return f.doc, nil
}

type docReaderFake struct {
	doc *domain.Document
	err error
}

func (f *docReaderFake) GetByID(context.Context, string) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.doc, nil
}

type fieldsFake struct {
	record *domain.ExtractionRecord
	err    error
}

func (f *fieldsFake) ExtractByID(context.Context, string) (*domain.ExtractionRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.record, nil
}

type auditsFake struct {
	findings []domain.Finding
	err      error
	listErr  error
}

func (f *auditsFake) AuditByID(context.Context, string) ([]domain.Finding, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.findings, nil
}

func (f *auditsFake) FindingsByID(context.Context, string) ([]domain.Finding, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.findings, nil
}

type answerFake struct {
	answer *domain.Answer
	err    error

	question    string
	documentIDs []string
	limit       int
}

func (f *answerFake) Answer(_ context.Context, question string, documentIDs []string, limit int) (*domain.Answer, error) {
	f.question = question
	f.documentIDs = documentIDs
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.answer, nil
}

func testRouter(deps Deps) http.Handler {
	return NewRouter("api-test", deps).Handler()
}

func multipartUpload(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestUploadDocumentAccepted(t *testing.T) {
	ingest := &ingestFake{doc: &domain.Document{ID: "doc-1", Filename: "msa.pdf", Status: domain.StatusUploaded}}
	handler := testRouter(Deps{Ingest: ingest})

	body, contentType := multipartUpload(t, "msa.pdf", "%PDF-1.4 payload")
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202, body %s", rec.Code, rec.Body.String())
	}
	var doc domain.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if doc.ID != "doc-1" {
		t.Fatalf("document id = %q, want doc-1", doc.ID)
	}
	if ingest.filename != "msa.pdf" {
		t.Fatalf("upload filename = %q", ingest.filename)
	}
}

func TestUploadRejectsUnsupportedFile(t *testing.T) {
	ingest := &ingestFake{err: domain.WrapError(domain.ErrInvalidInput, "upload document", errors.New("only PDF and plain text uploads are supported"))}
	handler := testRouter(Deps{Ingest: ingest})

	body, contentType := multipartUpload(t, "archive.zip", "PK...")
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUploadRequiresMultipartFile(t *testing.T) {
	handler := testRouter(Deps{Ingest: &ingestFake{}})

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	reader := &docReaderFake{err: domain.WrapError(domain.ErrDocumentNotFound, "fetch document", errors.New("no rows"))}
	handler := testRouter(Deps{Documents: reader})

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/ghost", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestExtractConflictBeforeProcessing(t *testing.T) {
	fields := &fieldsFake{err: domain.WrapError(domain.ErrInvalidInput, "extract fields", errors.New("document has no extracted text"))}
	handler := testRouter(Deps{Fields: fields})

	req := httptest.NewRequest(http.MethodPost, "/v1/documents/doc-1/extract", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestAuditReturnsFindings(t *testing.T) {
	audits := &auditsFake{findings: []domain.Finding{
		{ID: "FIND-001", Severity: domain.SeverityHigh, Type: domain.CheckUnlimitedLiability, Summary: "Contract contains unlimited liability clause", Evidence: []domain.EvidenceSpan{}},
	}}
	handler := testRouter(Deps{Audits: audits})

	req := httptest.NewRequest(http.MethodPost, "/v1/documents/doc-1/audit", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Findings []domain.Finding `json:"findings"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Findings) != 1 || payload.Findings[0].Type != domain.CheckUnlimitedLiability {
		t.Fatalf("unexpected findings: %+v", payload.Findings)
	}
}

func TestQueryRequiresQuestion(t *testing.T) {
	handler := testRouter(Deps{Answerer: &answerFake{}})

	req := httptest.NewRequest(http.MethodPost, "/v1/rag/query", strings.NewReader(`{"question":"   "}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestQueryPassesFilterAndLimit(t *testing.T) {
	answerer := &answerFake{answer: &domain.Answer{Text: "42", Sources: []domain.Source{}}}
	handler := testRouter(Deps{Answerer: answerer})

	reqBody := `{"question":"What is the term?","document_ids":["doc-1","doc-2"],"limit":3}`
	req := httptest.NewRequest(http.MethodPost, "/v1/rag/query", strings.NewReader(reqBody))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	if answerer.question != "What is the term?" || answerer.limit != 3 {
		t.Fatalf("question/limit not forwarded: %q %d", answerer.question, answerer.limit)
	}
	if len(answerer.documentIDs) != 2 {
		t.Fatalf("document ids not forwarded: %v", answerer.documentIDs)
	}
}

func TestReportExportIsAnAttachment(t *testing.T) {
	reader := &docReaderFake{doc: &domain.Document{ID: "doc-1", Filename: "msa.pdf", Status: domain.StatusReady}}
	audits := &auditsFake{findings: []domain.Finding{
		{ID: "FIND-001", Severity: domain.SeverityLow, Type: domain.CheckLowLiabilityCap, Summary: "Liability cap $10,000 is below recommended threshold $50,000", Evidence: []domain.EvidenceSpan{}},
	}}
	handler := testRouter(Deps{Documents: reader, Audits: audits})

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/doc-1/report", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Fatalf("content type = %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "audit-doc-1.xlsx") {
		t.Fatalf("content disposition = %q", got)
	}
	if rec.Body.Len() == 0 {
		t.Fatalf("expected workbook bytes in response")
	}
}

func TestTemporaryErrorMapsToServiceUnavailable(t *testing.T) {
	answerer := &answerFake{err: domain.WrapError(domain.ErrTemporary, "qdrant scroll", errors.New("connection refused"))}
	handler := testRouter(Deps{Answerer: answerer})

	req := httptest.NewRequest(http.MethodPost, "/v1/rag/query", strings.NewReader(`{"question":"anything"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
