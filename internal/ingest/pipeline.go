package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/googleapi"

	"ledgerly-backend/internal/contacts"
	"ledgerly-backend/internal/documents"
	"ledgerly-backend/internal/shared/metrics"
	"ledgerly-backend/internal/shared/storage/object"
	"ledgerly-backend/internal/shared/telemetry"
	"ledgerly-backend/review/model"
)

// Failure kinds recorded on failed ingestion runs.
const (
	FailureUnreadable = "failed_unreadable"
	FailureProvider   = "failed_provider"
	FailureQuota      = "failed_quota"
	FailureInternal   = "failed_internal"
)

const mimePDF = "application/pdf"

// maxInlineBytes caps what goes to the provider as raw bytes. Larger PDFs
// fall back to the text extracted from their pages.
const maxInlineBytes = 8 << 20

// Pipeline runs one extraction attempt end to end: claim the run, load the
// file, extract pages, call the provider, store the draft, settle the run.
// Every attempt ends with the run either succeeded or failed; a failed run
// can be claimed again by a redelivered job or a reprocess.
type Pipeline struct {
	Repo      documents.Repo
	Store     object.ObjectStore
	Contacts  *contacts.Service
	Extractor Extractor
}

func NewPipeline(repo documents.Repo, store object.ObjectStore, contactSvc *contacts.Service, extractor Extractor) *Pipeline {
	return &Pipeline{Repo: repo, Store: store, Contacts: contactSvc, Extractor: extractor}
}

// ProcessDocument runs one extraction attempt. An empty runID targets the
// document's latest run; a non-empty one is skipped when a newer run has
// superseded it.
func (p *Pipeline) ProcessDocument(ctx context.Context, workspaceID, documentID, runID string) (err error) {
	startedAt := time.Now().UTC()
	run := documents.IngestionRun{ID: runID, DocumentID: documentID}
	defer func() {
		if r := recover(); r != nil {
			err = p.failRun(workspaceID, run, startedAt, fmt.Errorf("panic: %v", r))
		}
	}()

	doc, err := p.Repo.GetDocument(ctx, workspaceID, documentID)
	if err != nil {
		return fmt.Errorf("document lookup id=%s: %w", documentID, err)
	}

	latest, err := p.Repo.GetLatestRun(ctx, documentID)
	if err != nil {
		return fmt.Errorf("run lookup document=%s: %w", documentID, err)
	}
	if runID != "" && latest.ID != runID {
		telemetry.Info("ingest.superseded", map[string]any{
			"workspace_id": workspaceID,
			"document_id":  documentID,
			"run_id":       runID,
			"latest_run":   latest.ID,
		})
		return nil
	}
	if latest.Status == model.IngestionSucceeded {
		return nil
	}
	run = latest

	prior := run.Status
	run.Status = model.IngestionProcessing
	run.StartedAt = &startedAt
	run.FailureKind = ""
	run.ErrorMessage = ""
	run.CompletedAt = nil
	if err := p.Repo.UpdateRun(ctx, run); err != nil {
		return p.failRun(workspaceID, run, startedAt, fmt.Errorf("claim run id=%s: %w", runID, err))
	}
	telemetry.Info("ingest.status", map[string]any{
		"request_id":        run.RequestID,
		"workspace_id":      workspaceID,
		"document_id":       documentID,
		"run_id":            runID,
		"status":            model.IngestionProcessing,
		"status_transition": fmt.Sprintf("%s->processing", prior),
	})

	data, err := readObject(ctx, p.Store, doc.StorageKey)
	if err != nil {
		return p.failRun(workspaceID, run, startedAt, fmt.Errorf("load file key=%s: %w", doc.StorageKey, err))
	}

	var pages []documents.Page
	var pageText string
	if doc.ContentType == mimePDF {
		extracted, err := pdfPages(data)
		if err != nil {
			return p.failRun(workspaceID, run, startedAt, err)
		}
		pages = p.storePages(ctx, doc, extracted)
		pageText = joinPageText(extracted)
	} else {
		pages = []documents.Page{{DocumentID: doc.ID, Number: 1}}
	}
	if err := p.Repo.ReplacePages(ctx, doc.ID, pages); err != nil {
		return p.failRun(workspaceID, run, startedAt, fmt.Errorf("store pages: %w", err))
	}
	if err := p.Repo.SetPageCount(ctx, doc.ID, len(pages)); err != nil {
		return p.failRun(workspaceID, run, startedAt, fmt.Errorf("store page count: %w", err))
	}

	input := ExtractInput{MIMEType: doc.ContentType, FileName: doc.FileName, Data: data}
	if doc.ContentType == mimePDF && len(data) > maxInlineBytes {
		if pageText == "" {
			return p.failRun(workspaceID, run, startedAt, fmt.Errorf("%w: oversized pdf has no extractable text", errUnreadable))
		}
		input.Data = nil
		input.Text = pageText
	}

	result, err := p.Extractor.Extract(ctx, input)
	if err != nil {
		return p.failRun(workspaceID, run, startedAt, fmt.Errorf("extract: %w", err))
	}
	run.Provider = result.Provider
	run.Model = result.Model

	ext, err := decodeExtraction(result.Raw)
	if err != nil {
		return p.failRun(workspaceID, run, startedAt, err)
	}
	payload, confidence := mapExtraction(ext)

	contactLinked := false
	if existing, err := p.Repo.GetDraft(ctx, documentID); err == nil {
		contactLinked = existing.LinkedContactID != ""
	} else if !errors.Is(err, documents.ErrDraftNotFound) {
		return p.failRun(workspaceID, run, startedAt, fmt.Errorf("draft lookup: %w", err))
	}
	suggestion := matchContact(ctx, p.Contacts, workspaceID, ext.CounterpartyName, ext.CounterpartyVATNumber)

	draft, err := p.Repo.UpsertDraft(ctx, documents.Draft{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		DocType:    payload.DocType,
		Status:     documents.DraftStatusFor(payload, contactLinked, confidence),
		Data:       payload,
		Confidence: confidence,
		Suggestion: suggestion,
		UpdatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return p.failRun(workspaceID, run, startedAt, fmt.Errorf("store draft: %w", err))
	}

	completedAt := time.Now().UTC()
	run.Status = model.IngestionSucceeded
	run.Confidence = confidence
	run.CompletedAt = &completedAt
	if err := p.Repo.UpdateRun(ctx, run); err != nil {
		return p.failRun(workspaceID, run, startedAt, fmt.Errorf("settle run id=%s: %w", runID, err))
	}

	metrics.IncIngestionCompleted()
	metrics.ObserveIngestionDurationMs(durationMs(startedAt, completedAt))
	telemetry.Info("ingest.status", map[string]any{
		"request_id":        run.RequestID,
		"workspace_id":      workspaceID,
		"document_id":       documentID,
		"run_id":            runID,
		"provider":          result.Provider,
		"model":             result.Model,
		"confidence":        confidence,
		"draft_status":      draft.Status,
		"page_count":        len(pages),
		"status":            model.IngestionSucceeded,
		"status_transition": "processing->succeeded",
		"duration_ms":       durationMs(startedAt, completedAt),
	})
	return nil
}

// storePages persists extracted page text as derived objects next to the
// original file. A text that fails to store degrades to a page row without
// a text key.
func (p *Pipeline) storePages(ctx context.Context, doc documents.Document, extracted []pageData) []documents.Page {
	saver, canSave := p.Store.(object.KeySaver)
	pages := make([]documents.Page, 0, len(extracted))
	for _, page := range extracted {
		row := documents.Page{
			DocumentID: doc.ID,
			Number:     page.Number,
			WidthPts:   page.WidthPts,
			HeightPts:  page.HeightPts,
		}
		if page.Text != "" && canSave {
			key := fmt.Sprintf("%s.page-%d.txt", doc.StorageKey, page.Number)
			if _, err := saver.SaveWithKey(ctx, key, "text/plain; charset=utf-8", strings.NewReader(page.Text)); err != nil {
				telemetry.Warn("ingest.page_text.store_failed", map[string]any{
					"document_id": doc.ID,
					"page":        page.Number,
					"error":       err.Error(),
				})
			} else {
				row.TextKey = key
			}
		}
		pages = append(pages, row)
	}
	return pages
}

func readObject(ctx context.Context, store object.ObjectStore, key string) ([]byte, error) {
	body, err := store.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return io.ReadAll(body)
}

// failRun marks the run failed with a classified kind and a sanitized
// message, then hands the original error back for the caller to propagate.
// The persist runs on a fresh context so cancellation cannot swallow the
// failure.
func (p *Pipeline) failRun(workspaceID string, run documents.IngestionRun, startedAt time.Time, cause error) error {
	kind := classifyFailure(cause)
	completedAt := time.Now().UTC()
	run.Status = model.IngestionFailed
	run.FailureKind = kind
	run.ErrorMessage = sanitizeError(cause)
	if run.StartedAt == nil {
		run.StartedAt = &startedAt
	}
	run.CompletedAt = &completedAt
	if updateErr := p.Repo.UpdateRun(context.Background(), run); updateErr != nil {
		telemetry.Error("ingest.fail_update", map[string]any{
			"document_id": run.DocumentID,
			"run_id":      run.ID,
			"error":       updateErr.Error(),
			"cause":       cause.Error(),
		})
	}
	metrics.IncIngestionFailed()
	metrics.ObserveIngestionDurationMs(durationMs(startedAt, completedAt))
	telemetry.Info("ingest.status", map[string]any{
		"request_id":        run.RequestID,
		"workspace_id":      workspaceID,
		"document_id":       run.DocumentID,
		"run_id":            run.ID,
		"failure_kind":      kind,
		"error":             run.ErrorMessage,
		"status":            model.IngestionFailed,
		"status_transition": "processing->failed",
		"duration_ms":       durationMs(startedAt, completedAt),
	})
	return cause
}

// classifyFailure buckets a pipeline error into the kind recorded on the
// run.
func classifyFailure(err error) string {
	if err == nil {
		return FailureInternal
	}
	if errors.Is(err, errUnreadable) {
		return FailureUnreadable
	}
	if errors.Is(err, errQuota) {
		return FailureQuota
	}
	if errors.Is(err, errProvider) {
		return FailureProvider
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests {
			return FailureQuota
		}
		return FailureProvider
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureProvider
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "quota") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "resource exhausted") {
		return FailureQuota
	}
	if strings.Contains(msg, "gemini") || strings.Contains(msg, "provider") {
		return FailureProvider
	}
	return FailureInternal
}

// sanitizeError flattens an error into something safe to persist: newlines
// collapsed, length capped. Provider errors can echo request content, so
// keep it short.
func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}

func durationMs(startedAt, completedAt time.Time) float64 {
	return float64(completedAt.Sub(startedAt).Microseconds()) / 1000.0
}
