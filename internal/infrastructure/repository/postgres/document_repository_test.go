package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/finsight-labs/finsight/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*DocumentRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &DocumentRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestGetByIDReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT d.id, d.title, d.description").
		WithArgs("missing", "user-1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing", "user-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMarkProcessingCASWins(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WithArgs("doc-1", string(domain.StatusProcessing), string(domain.StatusUploaded), string(domain.StatusFailed)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkProcessing(context.Background(), "doc-1"); err != nil {
		t.Fatalf("MarkProcessing() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMarkProcessingConflictWhenAlreadyProcessing(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WithArgs("doc-1", string(domain.StatusProcessing), string(domain.StatusUploaded), string(domain.StatusFailed)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	err := repo.MarkProcessing(context.Background(), "doc-1")
	if !domain.IsKind(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMarkProcessingNotFoundWhenRowMissing(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WithArgs("missing", string(domain.StatusProcessing), string(domain.StatusUploaded), string(domain.StatusFailed)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err := repo.MarkProcessing(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveResultsCommitsEverythingInOneTransaction(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	out := domain.ProcessingOutput{
		OCR: domain.OCRResult{DocumentID: "doc-1", Text: "statement text", Confidence: 0.92, CreatedAt: now},
		Extracted: domain.ExtractedData{
			DocumentID: "doc-1",
			Fields:     domain.FinancialFields{Income: 500000, Expenses: 300000, Assets: 2000000, Liabilities: 1000000},
			CreatedAt:  now,
		},
		Analysis: domain.Analysis{DocumentID: "doc-1", CibilScore: 840, Summary: "healthy", CreatedAt: now},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO ocr_results").
		WithArgs("doc-1", "statement text", 0.92, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO extracted_data").
		WithArgs("doc-1", sqlmock.AnyArg(), sqlmock.AnyArg(), now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO analyses").
		WithArgs("doc-1", 840.0, "healthy", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE documents").
		WithArgs("doc-1", string(domain.StatusCompleted), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.SaveResults(context.Background(), out); err != nil {
		t.Fatalf("SaveResults() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveResultsRollsBackWhenInsertFails(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	now := time.Now().UTC()
	out := domain.ProcessingOutput{
		OCR:       domain.OCRResult{DocumentID: "doc-1", CreatedAt: now},
		Extracted: domain.ExtractedData{DocumentID: "doc-1", CreatedAt: now},
		Analysis:  domain.Analysis{DocumentID: "doc-1", CreatedAt: now},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO ocr_results").
		WithArgs("doc-1", "", 0.0, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO extracted_data").
		WithArgs("doc-1", sqlmock.AnyArg(), sqlmock.AnyArg(), now).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	if err := repo.SaveResults(context.Background(), out); err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCountForUserScansBothCounters(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery(`SELECT COUNT\(\*\), COUNT\(\*\) FILTER`).
		WithArgs(string(domain.StatusCompleted), "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count", "filtered"}).AddRow(5, 3))

	total, completed, err := repo.CountForUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("CountForUser() error = %v", err)
	}
	if total != 5 || completed != 3 {
		t.Fatalf("counts = %d/%d", total, completed)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCountByFileTypeSinceGroupsRows(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	since := time.Now().UTC().Add(-7 * 24 * time.Hour)
	mock.ExpectQuery("SELECT file_type, COUNT").
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"file_type", "count"}).
			AddRow("pdf", 4).
			AddRow("png", 1))

	counts, err := repo.CountByFileTypeSince(context.Background(), since)
	if err != nil {
		t.Fatalf("CountByFileTypeSince() error = %v", err)
	}
	if counts["pdf"] != 4 || counts["png"] != 1 {
		t.Fatalf("counts = %v", counts)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteCascadesChildFirst(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM ocr_results").
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM extracted_data").
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM analyses").
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM documents").
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.Delete(context.Background(), "doc-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
