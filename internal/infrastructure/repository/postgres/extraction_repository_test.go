package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/avolkov/contract-intel/internal/core/domain"
)

func TestExtractionRepositoryUpsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewExtractionRepository(db)
	mock.ExpectExec("INSERT INTO extractions").
		WithArgs("doc-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	record := domain.ExtractionRecord{
		DocumentID: "doc-1",
		Parties:    []string{"Acme Corporation"},
	}
	if err := repo.Upsert(context.Background(), record); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestExtractionRepositoryGetByDocumentID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewExtractionRepository(db)
	rows := sqlmock.NewRows([]string{"record"}).
		AddRow([]byte(`{"parties":["Acme Corporation"],"auto_renewal":{"exists":true,"notice_period_days":45}}`))

	mock.ExpectQuery("FROM extractions").
		WithArgs("doc-1").
		WillReturnRows(rows)

	record, err := repo.GetByDocumentID(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("GetByDocumentID() error = %v", err)
	}
	if record.DocumentID != "doc-1" {
		t.Fatalf("expected document id bound, got %s", record.DocumentID)
	}
	if !record.AutoRenewal.Exists || record.AutoRenewal.NoticePeriodDays == nil || *record.AutoRenewal.NoticePeriodDays != 45 {
		t.Fatalf("unexpected auto-renewal: %+v", record.AutoRenewal)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestExtractionRepositoryGetMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewExtractionRepository(db)
	mock.ExpectQuery("FROM extractions").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"record"}))

	_, err = repo.GetByDocumentID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrExtractionNotFound) {
		t.Fatalf("expected extraction not found kind, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
