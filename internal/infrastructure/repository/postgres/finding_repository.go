package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/avolkov/contract-intel/internal/core/domain"
)

// FindingRepository stores audit findings as a replaceable snapshot. The seq
// column preserves check order: finding IDs repeat across checks and cannot
// order the set themselves.
type FindingRepository struct {
	db *sql.DB
}

func NewFindingRepository(db *sql.DB) *FindingRepository {
	return &FindingRepository{db: db}
}

func (r *FindingRepository) ReplaceForDocument(ctx context.Context, documentID string, findings []domain.Finding) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin findings tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM audit_findings WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("delete old findings: %w", err)
	}

	for seq, finding := range findings {
		evidenceJSON, err := json.Marshal(finding.Evidence)
		if err != nil {
			return fmt.Errorf("marshal evidence: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
INSERT INTO audit_findings (document_id, seq, finding_id, severity, finding_type, summary, evidence)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`, documentID, seq, finding.ID, string(finding.Severity), finding.Type, finding.Summary, evidenceJSON); err != nil {
			return fmt.Errorf("insert finding %d: %w", seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit findings tx: %w", err)
	}
	return nil
}

func (r *FindingRepository) ListByDocument(ctx context.Context, documentID string) ([]domain.Finding, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT finding_id, severity, finding_type, summary, evidence
FROM audit_findings
WHERE document_id = $1
ORDER BY seq
`, documentID)
	if err != nil {
		return nil, fmt.Errorf("query findings: %w", err)
	}
	defer rows.Close()

	var findings []domain.Finding
	for rows.Next() {
		var finding domain.Finding
		var severity string
		var evidenceRaw []byte
		if err := rows.Scan(&finding.ID, &severity, &finding.Type, &finding.Summary, &evidenceRaw); err != nil {
			return nil, fmt.Errorf("scan finding: %w", err)
		}
		if err := json.Unmarshal(evidenceRaw, &finding.Evidence); err != nil {
			return nil, fmt.Errorf("unmarshal evidence: %w", err)
		}
		finding.Severity = domain.Severity(severity)
		findings = append(findings, finding)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate findings: %w", err)
	}
	return findings, nil
}
