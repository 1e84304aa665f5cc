package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/avolkov/contract-intel/internal/core/domain"
)

// ExtractionRepository stores the extraction record as a single JSONB blob:
// the record is read and replaced wholesale, never queried field by field.
type ExtractionRepository struct {
	db *sql.DB
}

func NewExtractionRepository(db *sql.DB) *ExtractionRepository {
	return &ExtractionRepository{db: db}
}

func (r *ExtractionRepository) Upsert(ctx context.Context, record domain.ExtractionRecord) error {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal extraction record: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO extractions (document_id, record, updated_at)
VALUES ($1,$2,$3)
ON CONFLICT (document_id) DO UPDATE SET record = EXCLUDED.record, updated_at = EXCLUDED.updated_at
`, record.DocumentID, recordJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert extraction record: %w", err)
	}
	return nil
}

func (r *ExtractionRepository) GetByDocumentID(ctx context.Context, documentID string) (*domain.ExtractionRecord, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT record
FROM extractions
WHERE document_id = $1
`, documentID)

	var recordRaw []byte
	if err := row.Scan(&recordRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrExtractionNotFound, "fetch extraction record", fmt.Errorf("document %s", documentID))
		}
		return nil, fmt.Errorf("scan extraction record: %w", err)
	}

	var record domain.ExtractionRecord
	if err := json.Unmarshal(recordRaw, &record); err != nil {
		return nil, fmt.Errorf("unmarshal extraction record: %w", err)
	}
	record.DocumentID = documentID
	return &record, nil
}
