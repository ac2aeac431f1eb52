package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ledgerly-backend/review/model"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `id, workspace_id, uploaded_by, file_name, content_type, size_bytes, storage_key, page_count, created_at`

// CreateDocument inserts a new document row.
func (r *PGRepo) CreateDocument(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (id, workspace_id, uploaded_by, file_name, content_type, size_bytes, storage_key, page_count, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.WorkspaceID,
		doc.UploadedBy,
		doc.FileName,
		doc.ContentType,
		doc.SizeBytes,
		doc.StorageKey,
		doc.PageCount,
		doc.CreatedAt,
	)
	return err
}

// GetDocument fetches a live document scoped to a workspace.
func (r *PGRepo) GetDocument(ctx context.Context, workspaceID, documentID string) (Document, error) {
	const query = `
SELECT ` + documentColumns + `
FROM documents
WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL`
	return scanDocument(r.DB.QueryRowContext(ctx, query, workspaceID, documentID))
}

// ListRecords returns the workspace's records newest-first.
func (r *PGRepo) ListRecords(ctx context.Context, workspaceID string, limit, offset int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT ` + documentColumns + `
FROM documents
WHERE workspace_id = $1 AND deleted_at IS NULL
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, workspaceID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(docs))
	for _, doc := range docs {
		rec, err := r.attach(ctx, doc)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// GetRecord fetches a document together with its newest run and draft.
func (r *PGRepo) GetRecord(ctx context.Context, workspaceID, documentID string) (Record, error) {
	doc, err := r.GetDocument(ctx, workspaceID, documentID)
	if err != nil {
		return Record{}, err
	}
	return r.attach(ctx, doc)
}

func (r *PGRepo) attach(ctx context.Context, doc Document) (Record, error) {
	rec := Record{Document: doc}

	run, err := r.GetLatestRun(ctx, doc.ID)
	switch {
	case err == nil:
		rec.Run = &run
	case !errors.Is(err, sql.ErrNoRows):
		return Record{}, err
	}

	draft, err := r.GetDraft(ctx, doc.ID)
	switch {
	case err == nil:
		rec.Draft = &draft
	case !errors.Is(err, ErrDraftNotFound):
		return Record{}, err
	}

	return rec, nil
}

// SoftDeleteDocument marks a document deleted without dropping its rows.
func (r *PGRepo) SoftDeleteDocument(ctx context.Context, workspaceID, documentID string) error {
	const query = `
UPDATE documents
SET deleted_at = now()
WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, workspaceID, documentID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPageCount records how many pages extraction found.
func (r *PGRepo) SetPageCount(ctx context.Context, documentID string, count int) error {
	const query = `UPDATE documents SET page_count = $1 WHERE id = $2`
	_, err := r.DB.ExecContext(ctx, query, count, documentID)
	return err
}

// ReplacePages swaps the stored page set for a document.
func (r *PGRepo) ReplacePages(ctx context.Context, documentID string, pages []Page) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM document_pages WHERE document_id = $1`, documentID); err != nil {
		return err
	}
	const insert = `
INSERT INTO document_pages (document_id, page_number, width_pts, height_pts, text_key)
VALUES ($1, $2, $3, $4, $5)`
	for _, page := range pages {
		if _, err := tx.ExecContext(ctx, insert, documentID, page.Number, page.WidthPts, page.HeightPts, page.TextKey); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListPages returns pages ordered by page number, honoring offset/limit.
func (r *PGRepo) ListPages(ctx context.Context, documentID string, offset, limit int) ([]Page, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT document_id, page_number, width_pts, height_pts, text_key
FROM document_pages
WHERE document_id = $1
ORDER BY page_number
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, documentID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []Page
	for rows.Next() {
		var page Page
		if err := rows.Scan(&page.DocumentID, &page.Number, &page.WidthPts, &page.HeightPts, &page.TextKey); err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	return pages, rows.Err()
}

// CreateRun inserts a new ingestion run.
func (r *PGRepo) CreateRun(ctx context.Context, run IngestionRun) error {
	const query = `
INSERT INTO ingestion_runs (id, document_id, status, failure_kind, error_message, provider, model, confidence, request_id, started_at, completed_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.DB.ExecContext(
		ctx,
		query,
		run.ID,
		run.DocumentID,
		string(run.Status),
		run.FailureKind,
		run.ErrorMessage,
		run.Provider,
		run.Model,
		nullFloat(run.Confidence),
		run.RequestID,
		nullTime(run.StartedAt),
		nullTime(run.CompletedAt),
		run.CreatedAt,
	)
	return err
}

// UpdateRun rewrites the mutable fields of an ingestion run.
func (r *PGRepo) UpdateRun(ctx context.Context, run IngestionRun) error {
	const query = `
UPDATE ingestion_runs
SET status = $1, failure_kind = $2, error_message = $3, provider = $4, model = $5, confidence = $6, started_at = $7, completed_at = $8
WHERE id = $9`
	res, err := r.DB.ExecContext(
		ctx,
		query,
		string(run.Status),
		run.FailureKind,
		run.ErrorMessage,
		run.Provider,
		run.Model,
		nullFloat(run.Confidence),
		nullTime(run.StartedAt),
		nullTime(run.CompletedAt),
		run.ID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetLatestRun returns the newest ingestion run for a document. A document
// without runs yields sql.ErrNoRows.
func (r *PGRepo) GetLatestRun(ctx context.Context, documentID string) (IngestionRun, error) {
	const query = `
SELECT id, document_id, status, failure_kind, error_message, provider, model, confidence, request_id, started_at, completed_at, created_at
FROM ingestion_runs
WHERE document_id = $1
ORDER BY created_at DESC
LIMIT 1`
	var run IngestionRun
	var rawStatus string
	var confidence sql.NullFloat64
	var startedAt, completedAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, documentID).Scan(
		&run.ID,
		&run.DocumentID,
		&rawStatus,
		&run.FailureKind,
		&run.ErrorMessage,
		&run.Provider,
		&run.Model,
		&confidence,
		&run.RequestID,
		&startedAt,
		&completedAt,
		&run.CreatedAt,
	)
	if err != nil {
		return IngestionRun{}, err
	}
	run.Status = model.IngestionStatus(rawStatus)
	if confidence.Valid {
		run.Confidence = confidence.Float64
	}
	if startedAt.Valid {
		run.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	return run, nil
}

// UpsertDraft installs the extraction result for a document. A previous
// draft is replaced in place; its linked contact survives and the version
// is bumped so stale editors notice.
func (r *PGRepo) UpsertDraft(ctx context.Context, draft Draft) (Draft, error) {
	payload, err := json.Marshal(draft.Data)
	if err != nil {
		return Draft{}, fmt.Errorf("encode draft data: %w", err)
	}

	var sug model.Suggestion
	if draft.Suggestion != nil {
		sug = *draft.Suggestion
	}

	const query = `
INSERT INTO drafts (id, document_id, version, doc_type, status, data, confidence, linked_contact_id, suggested_contact_id, suggestion_name, suggestion_vat, suggestion_confidence, suggestion_reason, reject_reason, updated_at)
VALUES ($1, $2, 1, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, '', $13)
ON CONFLICT (document_id) DO UPDATE SET
    version = drafts.version + 1,
    doc_type = EXCLUDED.doc_type,
    status = EXCLUDED.status,
    data = EXCLUDED.data,
    confidence = EXCLUDED.confidence,
    suggested_contact_id = EXCLUDED.suggested_contact_id,
    suggestion_name = EXCLUDED.suggestion_name,
    suggestion_vat = EXCLUDED.suggestion_vat,
    suggestion_confidence = EXCLUDED.suggestion_confidence,
    suggestion_reason = EXCLUDED.suggestion_reason,
    reject_reason = '',
    updated_at = EXCLUDED.updated_at`
	_, err = r.DB.ExecContext(
		ctx,
		query,
		draft.ID,
		draft.DocumentID,
		string(draft.DocType),
		string(draft.Status),
		payload,
		draft.Confidence,
		nullString(draft.LinkedContactID),
		nullString(sug.ContactID),
		sug.Name,
		sug.VATNumber,
		sug.Confidence,
		sug.Reason,
		draft.UpdatedAt,
	)
	if err != nil {
		return Draft{}, err
	}
	return r.GetDraft(ctx, draft.DocumentID)
}

const draftColumns = `id, document_id, version, doc_type, status, data, confidence, linked_contact_id, suggested_contact_id, suggestion_name, suggestion_vat, suggestion_confidence, suggestion_reason, reject_reason, updated_at`

// GetDraft returns the draft for a document.
func (r *PGRepo) GetDraft(ctx context.Context, documentID string) (Draft, error) {
	const query = `
SELECT ` + draftColumns + `
FROM drafts
WHERE document_id = $1`
	draft, err := scanDraft(r.DB.QueryRowContext(ctx, query, documentID))
	if errors.Is(err, sql.ErrNoRows) {
		return Draft{}, ErrDraftNotFound
	}
	return draft, err
}

// UpdateDraft persists the mutable draft fields under optimistic locking.
func (r *PGRepo) UpdateDraft(ctx context.Context, documentID string, draft Draft, expectedVersion int64) (Draft, error) {
	payload, err := json.Marshal(draft.Data)
	if err != nil {
		return Draft{}, fmt.Errorf("encode draft data: %w", err)
	}

	const query = `
UPDATE drafts
SET version = version + 1,
    doc_type = $3,
    status = $4,
    data = $5,
    confidence = $6,
    linked_contact_id = $7,
    reject_reason = $8,
    updated_at = now()
WHERE document_id = $1 AND version = $2`
	res, err := r.DB.ExecContext(
		ctx,
		query,
		documentID,
		expectedVersion,
		string(draft.DocType),
		string(draft.Status),
		payload,
		draft.Confidence,
		nullString(draft.LinkedContactID),
		draft.RejectReason,
	)
	if err != nil {
		return Draft{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Draft{}, err
	}
	if affected == 0 {
		if _, getErr := r.GetDraft(ctx, documentID); errors.Is(getErr, ErrDraftNotFound) {
			return Draft{}, ErrDraftNotFound
		}
		return Draft{}, ErrVersionConflict
	}
	return r.GetDraft(ctx, documentID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	err := row.Scan(
		&doc.ID,
		&doc.WorkspaceID,
		&doc.UploadedBy,
		&doc.FileName,
		&doc.ContentType,
		&doc.SizeBytes,
		&doc.StorageKey,
		&doc.PageCount,
		&doc.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, err
	}
	return doc, nil
}

func scanDraft(row rowScanner) (Draft, error) {
	var draft Draft
	var rawType, rawStatus string
	var payload []byte
	var linkedContact, suggestedContact sql.NullString
	var sug model.Suggestion
	err := row.Scan(
		&draft.ID,
		&draft.DocumentID,
		&draft.Version,
		&rawType,
		&rawStatus,
		&payload,
		&draft.Confidence,
		&linkedContact,
		&suggestedContact,
		&sug.Name,
		&sug.VATNumber,
		&sug.Confidence,
		&sug.Reason,
		&draft.RejectReason,
		&draft.UpdatedAt,
	)
	if err != nil {
		return Draft{}, err
	}
	draft.DocType = model.ParseDocType(rawType)
	draft.Status = model.DraftStatus(rawStatus)
	if linkedContact.Valid {
		draft.LinkedContactID = linkedContact.String
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &draft.Data); err != nil {
			return Draft{}, fmt.Errorf("decode draft data: %w", err)
		}
		draft.Data = draft.Data.Normalize()
	}
	if draft.Data.DocType == "" {
		draft.Data = model.EmptyFor(draft.DocType)
	}
	if suggestedContact.Valid {
		sug.ContactID = suggestedContact.String
	}
	if sug.ContactID != "" || sug.Name != "" {
		draft.Suggestion = &sug
	}
	return draft, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullFloat(f float64) sql.NullFloat64 {
	if f == 0 {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

var _ Repo = (*PGRepo)(nil)
