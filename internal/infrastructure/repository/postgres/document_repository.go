package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/avolkov/contract-intel/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	full_text TEXT NOT NULL DEFAULT '',
	page_count INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS document_pages (
	document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	page_number INTEGER NOT NULL,
	char_start INTEGER NOT NULL,
	char_end INTEGER NOT NULL,
	page_text TEXT NOT NULL,
	PRIMARY KEY (document_id, page_number)
);

CREATE TABLE IF NOT EXISTS extractions (
	document_id TEXT PRIMARY KEY REFERENCES documents(id) ON DELETE CASCADE,
	record JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_findings (
	document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	seq INTEGER NOT NULL,
	finding_id TEXT NOT NULL,
	severity TEXT NOT NULL,
	finding_type TEXT NOT NULL,
	summary TEXT NOT NULL,
	evidence JSONB NOT NULL DEFAULT '[]'::jsonb,
	PRIMARY KEY (document_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_audit_findings_severity ON audit_findings(severity);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO documents (
	id, filename, mime_type, storage_path, full_text, page_count, status, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`,
		doc.ID, doc.Filename, doc.MimeType, doc.StoragePath, doc.FullText, doc.PageCount,
		string(doc.Status), doc.Error, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, filename, mime_type, storage_path, full_text, page_count, status, error_message, created_at, updated_at
FROM documents
WHERE id = $1
`, id)

	var doc domain.Document
	var status string

	err := row.Scan(
		&doc.ID, &doc.Filename, &doc.MimeType, &doc.StoragePath, &doc.FullText, &doc.PageCount,
		&status, &doc.Error, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "fetch document", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}

	doc.Status = domain.DocumentStatus(status)
	return &doc, nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return requireRowHit(res, "update document status", id)
}

func (r *DocumentRepository) SaveText(ctx context.Context, id string, fullText string, pageCount int) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET full_text = $2, page_count = $3, updated_at = $4
WHERE id = $1
`, id, fullText, pageCount, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save document text: %w", err)
	}
	return requireRowHit(res, "save document text", id)
}

func (r *DocumentRepository) ReplacePages(ctx context.Context, documentID string, pages []domain.PageSpan) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin pages tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM document_pages WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("delete old pages: %w", err)
	}

	for _, page := range pages {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO document_pages (document_id, page_number, char_start, char_end, page_text)
VALUES ($1,$2,$3,$4,$5)
`, documentID, page.PageNumber, page.CharStart, page.CharEnd, page.Text); err != nil {
			return fmt.Errorf("insert page %d: %w", page.PageNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit pages tx: %w", err)
	}
	return nil
}

func (r *DocumentRepository) ListPages(ctx context.Context, documentID string) ([]domain.PageSpan, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT page_number, char_start, char_end, page_text
FROM document_pages
WHERE document_id = $1
ORDER BY page_number
`, documentID)
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}
	defer rows.Close()

	var pages []domain.PageSpan
	for rows.Next() {
		var page domain.PageSpan
		if err := rows.Scan(&page.PageNumber, &page.CharStart, &page.CharEnd, &page.Text); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		pages = append(pages, page)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pages: %w", err)
	}
	return pages, nil
}

func requireRowHit(res sql.Result, operation, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, operation, fmt.Errorf("id %s", id))
	}
	return nil
}
