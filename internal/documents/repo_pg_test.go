package documents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"ledgerly-backend/review/model"
)

func TestPGRepoCreateDocument(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()
	doc := Document{
		ID:          "doc-1",
		WorkspaceID: "ws-1",
		UploadedBy:  "user-1",
		FileName:    "invoice.pdf",
		ContentType: "application/pdf",
		SizeBytes:   2048,
		StorageKey:  "ws-1/invoice.pdf",
		CreatedAt:   now,
	}

	mock.ExpectExec("INSERT INTO documents").
		WithArgs(
			doc.ID,
			doc.WorkspaceID,
			doc.UploadedBy,
			doc.FileName,
			doc.ContentType,
			doc.SizeBytes,
			doc.StorageKey,
			doc.PageCount,
			doc.CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.CreateDocument(context.Background(), doc); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func documentRow(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "workspace_id", "uploaded_by", "file_name", "content_type", "size_bytes", "storage_key", "page_count", "created_at",
	}).AddRow("doc-1", "ws-1", "user-1", "invoice.pdf", "application/pdf", int64(2048), "ws-1/invoice.pdf", 3, now)
}

func runColumns() []string {
	return []string{
		"id", "document_id", "status", "failure_kind", "error_message", "provider", "model", "confidence", "request_id", "started_at", "completed_at", "created_at",
	}
}

func draftColumnNames() []string {
	return []string{
		"id", "document_id", "version", "doc_type", "status", "data", "confidence", "linked_contact_id", "suggested_contact_id", "suggestion_name", "suggestion_vat", "suggestion_confidence", "suggestion_reason", "reject_reason", "updated_at",
	}
}

func TestPGRepoGetRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM documents").
		WithArgs("ws-1", "doc-1").
		WillReturnRows(documentRow(now))

	mock.ExpectQuery("SELECT (.+) FROM ingestion_runs").
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows(runColumns()).
			AddRow("run-1", "doc-1", "succeeded", "", "", "gemini", "gemini-1.5-flash", 0.91, "req-1", now, now, now))

	payload := []byte(`{"docType":"invoice","invoice":{"invoiceNumber":"INV-2042","issueDate":"2026-03-01","dueDate":"2026-03-31","currency":"EUR","netCents":10000,"vatCents":2100,"grossCents":12100}}`)
	mock.ExpectQuery("SELECT (.+) FROM drafts").
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows(draftColumnNames()).
			AddRow("draft-1", "doc-1", int64(3), "invoice", "ready", payload, 0.91, nil, "c-9", "Acme GmbH", "DE123456789", 0.95, "vat_match", "", now))

	rec, err := repo.GetRecord(context.Background(), "ws-1", "doc-1")
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if rec.Run == nil || rec.Run.Status != model.IngestionSucceeded {
		t.Fatalf("unexpected run: %+v", rec.Run)
	}
	if rec.Draft == nil || rec.Draft.Version != 3 {
		t.Fatalf("unexpected draft: %+v", rec.Draft)
	}
	if rec.Draft.Data.Invoice == nil || rec.Draft.Data.Invoice.InvoiceNumber != "INV-2042" {
		t.Fatalf("draft payload not decoded: %+v", rec.Draft.Data)
	}
	if rec.Draft.Suggestion == nil || rec.Draft.Suggestion.ContactID != "c-9" {
		t.Fatalf("suggestion not decoded: %+v", rec.Draft.Suggestion)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetRecordWithoutDraft(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM documents").
		WithArgs("ws-1", "doc-1").
		WillReturnRows(documentRow(now))

	mock.ExpectQuery("SELECT (.+) FROM ingestion_runs").
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows(runColumns()).
			AddRow("run-1", "doc-1", "pending", "", "", "", "", nil, "", nil, nil, now))

	mock.ExpectQuery("SELECT (.+) FROM drafts").
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows(draftColumnNames()))

	rec, err := repo.GetRecord(context.Background(), "ws-1", "doc-1")
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if rec.Run == nil || rec.Run.Status != model.IngestionPending {
		t.Fatalf("unexpected run: %+v", rec.Run)
	}
	if rec.Run.StartedAt != nil || rec.Run.CompletedAt != nil {
		t.Fatalf("expected nil run timestamps, got %+v", rec.Run)
	}
	if rec.Draft != nil {
		t.Fatalf("expected no draft, got %+v", rec.Draft)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateDraftVersionConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()

	// Stale version updates nothing; the follow-up read distinguishes a
	// conflict from a missing draft.
	mock.ExpectExec("UPDATE drafts").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT (.+) FROM drafts").
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows(draftColumnNames()).
			AddRow("draft-1", "doc-1", int64(5), "invoice", "ready", []byte(`{"docType":"invoice","invoice":{}}`), 0.9, nil, nil, "", "", 0.0, "", "", now))

	draft := Draft{DocType: model.DocTypeInvoice, Status: model.DraftReady, Data: model.EmptyFor(model.DocTypeInvoice)}
	_, err = repo.UpdateDraft(context.Background(), "doc-1", draft, 4)
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateDraftMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectExec("UPDATE drafts").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT (.+) FROM drafts").
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows(draftColumnNames()))

	draft := Draft{DocType: model.DocTypeInvoice, Status: model.DraftReady, Data: model.EmptyFor(model.DocTypeInvoice)}
	_, err = repo.UpdateDraft(context.Background(), "doc-1", draft, 1)
	if !errors.Is(err, ErrDraftNotFound) {
		t.Fatalf("expected ErrDraftNotFound, got %v", err)
	}
}

func TestPGRepoSoftDeleteNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectExec("UPDATE documents").
		WithArgs("ws-1", "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.SoftDeleteDocument(context.Background(), "ws-1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoReplacePages(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM document_pages").
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO document_pages").
		WithArgs("doc-1", 1, 595.0, 842.0, "ws-1/pages/doc-1/1.txt").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO document_pages").
		WithArgs("doc-1", 2, 595.0, 842.0, "ws-1/pages/doc-1/2.txt").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	pages := []Page{
		{DocumentID: "doc-1", Number: 1, WidthPts: 595, HeightPts: 842, TextKey: "ws-1/pages/doc-1/1.txt"},
		{DocumentID: "doc-1", Number: 2, WidthPts: 595, HeightPts: 842, TextKey: "ws-1/pages/doc-1/2.txt"},
	}
	if err := repo.ReplacePages(context.Background(), "doc-1", pages); err != nil {
		t.Fatalf("ReplacePages: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
