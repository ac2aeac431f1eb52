package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"ledgerly-backend/internal/cashflow"
	"ledgerly-backend/internal/contacts"
	"ledgerly-backend/internal/queue"
	"ledgerly-backend/internal/shared/metrics"
	"ledgerly-backend/internal/shared/storage/object"
	"ledgerly-backend/internal/shared/telemetry"
	"ledgerly-backend/internal/usage"
	"ledgerly-backend/review/model"
	"ledgerly-backend/review/status"
)

const inlineIngestTimeout = 5 * time.Minute

// Ingestor runs the extraction pipeline for one document. The API process
// uses it directly when no queue is configured; the worker process uses it
// for queued jobs.
type Ingestor interface {
	ProcessDocument(ctx context.Context, workspaceID, documentID, runID string) error
}

// Service contains business logic for documents and their review lifecycle.
type Service struct {
	Store    object.ObjectStore
	Repo     Repo
	Contacts *contacts.Service
	Cashflow *cashflow.Service
	Usage    *usage.Service
	Queue    queue.Client
	Ingestor Ingestor
}

var allowedContentTypes = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// Upload stores the file, records the document with a pending extraction
// run, and hands the run to the queue or the inline ingestor.
func (s *Service) Upload(ctx context.Context, workspaceID, userID, fileName string, r io.Reader) (Record, error) {
	if workspaceID == "" || fileName == "" || r == nil {
		return Record{}, ErrInvalidInput
	}
	declaredType, ok := allowedContentTypes[strings.ToLower(filepath.Ext(fileName))]
	if !ok {
		return Record{}, ErrUnsupportedFileType
	}

	if s.Usage != nil {
		allowed, _, err := s.Usage.CanConsume(ctx, workspaceID, 1)
		if err != nil {
			return Record{}, err
		}
		if !allowed {
			return Record{}, usage.ErrLimitReached
		}
	}

	storageKey, size, mimeType, err := s.Store.Save(ctx, workspaceID, fileName, r)
	if err != nil {
		return Record{}, err
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = declaredType
	}

	// Consume settles the quota atomically, so a concurrent upload that won
	// the last slot surfaces here, before any rows exist for this one.
	if s.Usage != nil {
		if _, err := s.Usage.Consume(ctx, workspaceID, 1); err != nil {
			if delErr := s.Store.Delete(ctx, storageKey); delErr != nil {
				telemetry.Warn("documents.file.delete_failed", map[string]any{
					"storage_key": storageKey,
					"error":       delErr.Error(),
				})
			}
			return Record{}, err
		}
	}

	doc := Document{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		UploadedBy:  userID,
		FileName:    fileName,
		ContentType: mimeType,
		SizeBytes:   size,
		StorageKey:  storageKey,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.Repo.CreateDocument(ctx, doc); err != nil {
		return Record{}, err
	}

	run := IngestionRun{
		ID:         uuid.NewString(),
		DocumentID: doc.ID,
		Status:     model.IngestionPending,
		RequestID:  requestIDFromContext(ctx),
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.Repo.CreateRun(ctx, run); err != nil {
		return Record{}, err
	}

	metrics.IncDocumentUploaded()
	metrics.IncIngestionStarted()
	s.dispatch(ctx, doc, run.ID)

	telemetry.Info("documents.uploaded", map[string]any{
		"request_id":   requestIDFromContext(ctx),
		"workspace_id": workspaceID,
		"document_id":  doc.ID,
		"file_name":    fileName,
		"size_bytes":   size,
	})

	return Record{Document: doc, Run: &run}, nil
}

// RegisterUploaded records a document whose bytes were already written to the
// object store through a presigned URL, then starts ingestion the same way
// Upload does. The storage key must be one this service handed out.
func (s *Service) RegisterUploaded(ctx context.Context, workspaceID, userID, fileName, storageKey string, sizeBytes int64) (Record, error) {
	if workspaceID == "" || fileName == "" || storageKey == "" || sizeBytes <= 0 {
		return Record{}, ErrInvalidInput
	}
	contentType, ok := allowedContentTypes[strings.ToLower(filepath.Ext(fileName))]
	if !ok {
		return Record{}, ErrUnsupportedFileType
	}

	if s.Usage != nil {
		allowed, _, err := s.Usage.CanConsume(ctx, workspaceID, 1)
		if err != nil {
			return Record{}, err
		}
		if !allowed {
			return Record{}, usage.ErrLimitReached
		}
	}

	// The client claims the upload finished; confirm the object exists before
	// recording anything.
	rc, err := s.Store.Open(ctx, storageKey)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrObjectMissing, err)
	}
	rc.Close()

	// Settle the quota before recording anything, matching Upload.
	if s.Usage != nil {
		if _, err := s.Usage.Consume(ctx, workspaceID, 1); err != nil {
			return Record{}, err
		}
	}

	doc := Document{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		UploadedBy:  userID,
		FileName:    fileName,
		ContentType: contentType,
		SizeBytes:   sizeBytes,
		StorageKey:  storageKey,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.Repo.CreateDocument(ctx, doc); err != nil {
		return Record{}, err
	}

	run := IngestionRun{
		ID:         uuid.NewString(),
		DocumentID: doc.ID,
		Status:     model.IngestionPending,
		RequestID:  requestIDFromContext(ctx),
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.Repo.CreateRun(ctx, run); err != nil {
		return Record{}, err
	}

	metrics.IncDocumentUploaded()
	metrics.IncIngestionStarted()
	s.dispatch(ctx, doc, run.ID)

	telemetry.Info("documents.upload_completed", map[string]any{
		"request_id":   requestIDFromContext(ctx),
		"workspace_id": workspaceID,
		"document_id":  doc.ID,
		"file_name":    fileName,
		"storage_key":  storageKey,
	})

	return Record{Document: doc, Run: &run}, nil
}

// dispatch hands a pending run to the queue, or to the inline ingestor when
// no queue is configured. Failures are logged, not returned: the run stays
// pending and Reprocess is the retry path.
func (s *Service) dispatch(ctx context.Context, doc Document, runID string) {
	if s.Queue != nil {
		msg := queue.Message{
			DocumentID:  doc.ID,
			WorkspaceID: doc.WorkspaceID,
			RequestID:   requestIDFromContext(ctx),
			EnqueuedAt:  time.Now().UTC().Format(time.RFC3339),
			Version:     1,
		}
		if err := s.Queue.Send(ctx, msg); err != nil {
			telemetry.Error("documents.enqueue_failed", map[string]any{
				"document_id": doc.ID,
				"run_id":      runID,
				"error":       err.Error(),
			})
		}
		return
	}
	if s.Ingestor == nil {
		telemetry.Warn("documents.ingest.skipped", map[string]any{
			"document_id": doc.ID,
			"reason":      "no queue or ingestor configured",
		})
		return
	}
	go func(bg context.Context) {
		runCtx, cancel := context.WithTimeout(bg, inlineIngestTimeout)
		defer cancel()
		if err := s.Ingestor.ProcessDocument(runCtx, doc.WorkspaceID, doc.ID, runID); err != nil {
			telemetry.Error("documents.ingest.inline_failed", map[string]any{
				"document_id": doc.ID,
				"run_id":      runID,
				"error":       err.Error(),
			})
		}
	}(backgroundWithRequestID(ctx))
}

// List returns the workspace's records newest-first, optionally filtered to
// one derived status.
func (s *Service) List(ctx context.Context, workspaceID string, limit, offset int, statusFilter string) ([]Record, error) {
	if workspaceID == "" {
		return nil, ErrInvalidInput
	}
	var want status.Status
	if statusFilter != "" {
		want = status.Status(statusFilter)
		switch want {
		case status.Queued, status.Processing, status.Ready, status.Review, status.Failed:
		default:
			return nil, ErrInvalidInput
		}
	}

	records, err := s.Repo.ListRecords(ctx, workspaceID, limit, offset)
	if err != nil {
		return nil, err
	}
	if statusFilter == "" {
		return records, nil
	}
	filtered := make([]Record, 0, len(records))
	for _, rec := range records {
		if rec.Status() == want {
			filtered = append(filtered, rec)
		}
	}
	return filtered, nil
}

// GetRecord returns the full record for one document.
func (s *Service) GetRecord(ctx context.Context, workspaceID, documentID string) (Record, error) {
	if workspaceID == "" || documentID == "" {
		return Record{}, ErrInvalidInput
	}
	return s.Repo.GetRecord(ctx, workspaceID, documentID)
}

// OpenFile returns the document metadata and a reader over the stored file.
// The caller owns closing the reader.
func (s *Service) OpenFile(ctx context.Context, workspaceID, documentID string) (Document, io.ReadCloser, error) {
	doc, err := s.Repo.GetDocument(ctx, workspaceID, documentID)
	if err != nil {
		return Document{}, nil, err
	}
	rc, err := s.Store.Open(ctx, doc.StorageKey)
	if err != nil {
		return Document{}, nil, err
	}
	return doc, rc, nil
}

// Pages returns preview pages starting at offset. Page text is loaded from
// object storage best-effort: a missing text object degrades that page to
// its URL instead of failing the batch.
func (s *Service) Pages(ctx context.Context, workspaceID, documentID string, offset, limit int) ([]model.Page, error) {
	doc, err := s.Repo.GetDocument(ctx, workspaceID, documentID)
	if err != nil {
		return nil, err
	}
	stored, err := s.Repo.ListPages(ctx, doc.ID, offset, limit)
	if err != nil {
		return nil, err
	}

	pages := make([]model.Page, 0, len(stored))
	for _, page := range stored {
		text := ""
		if page.TextKey != "" {
			text, err = s.readText(ctx, page.TextKey)
			if err != nil {
				telemetry.Warn("documents.page_text.unavailable", map[string]any{
					"document_id": doc.ID,
					"page":        page.Number,
					"error":       err.Error(),
				})
				text = ""
			}
		}
		pages = append(pages, model.Page{
			Number: page.Number,
			Text:   text,
			URL:    fileURL(doc, page.Number),
		})
	}
	return pages, nil
}

func (s *Service) readText(ctx context.Context, key string) (string, error) {
	rc, err := s.Store.Open(ctx, key)
	if err != nil {
		return "", err
	}
	defer rc.Close()
	raw, err := io.ReadAll(io.LimitReader(rc, 1<<20))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func fileURL(doc Document, page int) string {
	return fmt.Sprintf("/api/v1/documents/%s/file#page=%d", doc.ID, page)
}

// UpdateDraft saves a human-edited payload under optimistic locking. Saved
// data counts as verified, so confidence is raised to full and the draft
// status is recomputed from validation alone. A document whose extraction
// never produced a draft can still be filled in by hand: a save at version 0
// creates the draft.
func (s *Service) UpdateDraft(ctx context.Context, workspaceID, documentID string, data model.Editable, version int64) (Record, error) {
	if workspaceID == "" || documentID == "" {
		return Record{}, ErrInvalidInput
	}
	rec, err := s.Repo.GetRecord(ctx, workspaceID, documentID)
	if err != nil {
		return Record{}, err
	}
	if rec.Draft == nil {
		seeded, err := s.seedEmptyDraft(ctx, documentID, data.DocType, version)
		if err != nil {
			return Record{}, err
		}
		rec.Draft = &seeded
		version = seeded.Version
	}
	if finalized(rec.Draft.Status) {
		return Record{}, ErrDraftFinalized
	}

	data = data.Normalize()
	draft := *rec.Draft
	draft.DocType = data.DocType
	draft.Data = data
	draft.Confidence = 1
	draft.Status = DraftStatusFor(data, draft.LinkedContactID != "", 1)

	updated, err := s.Repo.UpdateDraft(ctx, documentID, draft, version)
	if err != nil {
		return Record{}, err
	}
	rec.Draft = &updated

	telemetry.Info("documents.draft.saved", map[string]any{
		"request_id":  requestIDFromContext(ctx),
		"document_id": documentID,
		"version":     updated.Version,
		"status":      string(updated.Status),
	})
	return rec, nil
}

// seedEmptyDraft installs a blank draft for a document that has none, which
// happens when every extraction run failed before producing one. The caller
// must hold version 0: any other version refers to a draft that no longer
// exists, so the write is stale.
func (s *Service) seedEmptyDraft(ctx context.Context, documentID string, docType model.DocType, version int64) (Draft, error) {
	if version != 0 {
		return Draft{}, ErrVersionConflict
	}
	return s.Repo.UpsertDraft(ctx, Draft{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		DocType:    docType,
		Status:     model.DraftNeedsInput,
		Data:       model.EmptyFor(docType),
		UpdatedAt:  time.Now().UTC(),
	})
}

// BindContact links a workspace contact to the draft. The extraction's
// suggestion is kept so clearing the link can fall back to it.
func (s *Service) BindContact(ctx context.Context, workspaceID, documentID, contactID string) (Record, error) {
	if contactID == "" {
		return Record{}, ErrInvalidInput
	}
	if s.Contacts != nil {
		if _, err := s.Contacts.Get(ctx, workspaceID, contactID); err != nil {
			if errors.Is(err, contacts.ErrNotFound) {
				return Record{}, ErrInvalidInput
			}
			return Record{}, err
		}
	}
	return s.setContact(ctx, workspaceID, documentID, contactID)
}

// ClearContact unlinks the draft's contact.
func (s *Service) ClearContact(ctx context.Context, workspaceID, documentID string) (Record, error) {
	return s.setContact(ctx, workspaceID, documentID, "")
}

func (s *Service) setContact(ctx context.Context, workspaceID, documentID, contactID string) (Record, error) {
	rec, err := s.Repo.GetRecord(ctx, workspaceID, documentID)
	if err != nil {
		return Record{}, err
	}
	if rec.Draft == nil {
		return Record{}, ErrDraftNotFound
	}
	if finalized(rec.Draft.Status) {
		return Record{}, ErrDraftFinalized
	}

	draft := *rec.Draft
	draft.LinkedContactID = contactID
	draft.Status = DraftStatusFor(draft.Data, contactID != "", draft.Confidence)

	updated, err := s.Repo.UpdateDraft(ctx, documentID, draft, rec.Draft.Version)
	if err != nil {
		return Record{}, err
	}
	rec.Draft = &updated
	return rec, nil
}

// Confirm validates the draft, books the cashflow entry, and marks the
// draft confirmed. Confirming an already confirmed document returns the
// entry booked the first time.
func (s *Service) Confirm(ctx context.Context, workspaceID, documentID string) (string, Record, error) {
	rec, err := s.Repo.GetRecord(ctx, workspaceID, documentID)
	if err != nil {
		return "", Record{}, err
	}
	if rec.Draft == nil {
		return "", Record{}, ErrDraftNotFound
	}
	draft := *rec.Draft
	if draft.Status == model.DraftRejected {
		return "", Record{}, ErrDraftFinalized
	}
	if draft.Status == model.DraftConfirmed {
		entryID := ""
		if s.Cashflow != nil {
			if entry, err := s.Cashflow.Repo.GetByDocument(ctx, workspaceID, documentID); err == nil {
				entryID = entry.ID
			}
		}
		return entryID, rec, nil
	}

	if verr := model.Validate(draft.Data, draft.LinkedContactID != ""); verr != nil {
		return "", Record{}, fmt.Errorf("%w: %s", ErrNotConfirmable, verr.Error())
	}
	prior := draft.Status

	entryID := ""
	if s.Cashflow != nil {
		entry, err := s.Cashflow.BookDocument(ctx, bookingFor(rec.Document, draft))
		if err != nil {
			return "", Record{}, err
		}
		entryID = entry.ID
	}

	draft.Status = model.DraftConfirmed
	updated, err := s.Repo.UpdateDraft(ctx, documentID, draft, rec.Draft.Version)
	if err != nil {
		return "", Record{}, err
	}
	rec.Draft = &updated

	metrics.IncDocumentConfirmed()
	telemetry.Info("documents.confirmed", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"workspace_id":      workspaceID,
		"document_id":       documentID,
		"entry_id":          entryID,
		"status_transition": fmt.Sprintf("%s->confirmed", prior),
	})
	return entryID, rec, nil
}

// Reject marks the draft rejected with a reason from the closed set.
// Rejecting an already rejected document is a no-op. A document with no
// draft, such as one whose extraction failed, gets an empty draft seeded so
// the rejection has a row to land on.
func (s *Service) Reject(ctx context.Context, workspaceID, documentID string, reason model.RejectReason) (Record, error) {
	if !model.ValidRejectReason(reason) {
		return Record{}, ErrInvalidInput
	}
	rec, err := s.Repo.GetRecord(ctx, workspaceID, documentID)
	if err != nil {
		return Record{}, err
	}
	if rec.Draft == nil {
		seeded, err := s.seedEmptyDraft(ctx, documentID, model.DocTypeUnknown, 0)
		if err != nil {
			return Record{}, err
		}
		rec.Draft = &seeded
	}
	draft := *rec.Draft
	if draft.Status == model.DraftRejected {
		return rec, nil
	}
	if draft.Status == model.DraftConfirmed {
		return Record{}, ErrDraftFinalized
	}

	draft.Status = model.DraftRejected
	draft.RejectReason = string(reason)
	updated, err := s.Repo.UpdateDraft(ctx, documentID, draft, rec.Draft.Version)
	if err != nil {
		return Record{}, err
	}
	rec.Draft = &updated

	metrics.IncDocumentRejected()
	telemetry.Info("documents.rejected", map[string]any{
		"request_id":   requestIDFromContext(ctx),
		"workspace_id": workspaceID,
		"document_id":  documentID,
		"reason":       string(reason),
	})
	return rec, nil
}

// Reprocess starts a fresh extraction run for a document whose current run
// is settled and whose draft is not confirmed.
func (s *Service) Reprocess(ctx context.Context, workspaceID, documentID string) (Record, error) {
	rec, err := s.Repo.GetRecord(ctx, workspaceID, documentID)
	if err != nil {
		return Record{}, err
	}
	if rec.Run != nil && (rec.Run.Status == model.IngestionPending || rec.Run.Status == model.IngestionProcessing) {
		return Record{}, ErrIngestionInProgress
	}
	if rec.Draft != nil && rec.Draft.Status == model.DraftConfirmed {
		return Record{}, ErrDraftFinalized
	}

	if s.Usage != nil {
		if _, err := s.Usage.Consume(ctx, workspaceID, 1); err != nil {
			return Record{}, err
		}
	}

	run := IngestionRun{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		Status:     model.IngestionPending,
		RequestID:  requestIDFromContext(ctx),
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.Repo.CreateRun(ctx, run); err != nil {
		return Record{}, err
	}

	metrics.IncIngestionStarted()
	s.dispatch(ctx, rec.Document, run.ID)

	telemetry.Info("documents.reprocess", map[string]any{
		"request_id":   requestIDFromContext(ctx),
		"workspace_id": workspaceID,
		"document_id":  documentID,
		"run_id":       run.ID,
	})
	rec.Run = &run
	return rec, nil
}

// Delete soft-deletes the document and removes the stored file best-effort.
func (s *Service) Delete(ctx context.Context, workspaceID, documentID string) error {
	doc, err := s.Repo.GetDocument(ctx, workspaceID, documentID)
	if err != nil {
		return err
	}
	if err := s.Repo.SoftDeleteDocument(ctx, workspaceID, documentID); err != nil {
		return err
	}
	if s.Store != nil && doc.StorageKey != "" {
		if err := s.Store.Delete(ctx, doc.StorageKey); err != nil {
			telemetry.Warn("documents.file.delete_failed", map[string]any{
				"document_id": documentID,
				"storage_key": doc.StorageKey,
				"error":       err.Error(),
			})
		}
	}
	telemetry.Info("documents.deleted", map[string]any{
		"workspace_id": workspaceID,
		"document_id":  documentID,
	})
	return nil
}

// DraftStatusFor computes the draft status from validation, contact
// linkage, and extraction confidence. Extraction and human edits both go
// through it so there is a single transition rule.
func DraftStatusFor(data model.Editable, contactLinked bool, confidence float64) model.DraftStatus {
	if model.Validate(data, contactLinked) != nil {
		return model.DraftNeedsInput
	}
	if confidence < status.ConfidenceThreshold {
		return model.DraftNeedsReview
	}
	return model.DraftReady
}

func finalized(st model.DraftStatus) bool {
	return st == model.DraftConfirmed || st == model.DraftRejected
}

// bookingFor maps a confirmed draft onto a ledger entry. Invoices book
// money in; bills, receipts, and credit notes book money out.
func bookingFor(doc Document, draft Draft) cashflow.Entry {
	direction := cashflow.DirectionOut
	if draft.DocType == model.DocTypeInvoice {
		direction = cashflow.DirectionIn
	}

	gross := int64(0)
	if v, ok := draft.Data.Get(model.FieldGrossAmount); ok {
		gross = v.Money()
	}
	currency := ""
	if v, ok := draft.Data.Get(model.FieldCurrency); ok {
		currency = v.Text()
	}

	dateField := model.FieldIssueDate
	if draft.DocType == model.DocTypeReceipt {
		dateField = model.FieldPurchaseDate
	}
	bookedOn := time.Now().UTC()
	if v, ok := draft.Data.Get(dateField); ok && !v.Date().IsZero() {
		bookedOn = v.Date().Time()
	}

	description := doc.FileName
	for _, f := range []model.Field{model.FieldInvoiceNumber, model.FieldBillNumber, model.FieldReceiptNumber, model.FieldCreditNoteNumber} {
		if v, ok := draft.Data.Get(f); ok && strings.TrimSpace(v.Text()) != "" {
			description = strings.TrimSpace(v.Text())
			break
		}
	}

	return cashflow.Entry{
		WorkspaceID: doc.WorkspaceID,
		DocumentID:  doc.ID,
		ContactID:   draft.LinkedContactID,
		Direction:   direction,
		AmountCents: gross,
		Currency:    currency,
		BookedOn:    bookedOn,
		Description: description,
	}
}
