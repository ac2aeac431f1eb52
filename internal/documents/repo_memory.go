package documents

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo for tests and local
// development without Postgres.
type MemoryRepo struct {
	mu      sync.RWMutex
	docs    map[string]Document       // documentID -> document
	deleted map[string]bool           // documentID -> soft-deleted
	pages   map[string][]Page         // documentID -> pages
	runs    map[string][]IngestionRun // documentID -> runs, oldest first
	drafts  map[string]Draft          // documentID -> draft
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		docs:    make(map[string]Document),
		deleted: make(map[string]bool),
		pages:   make(map[string][]Page),
		runs:    make(map[string][]IngestionRun),
		drafts:  make(map[string]Draft),
	}
}

// CreateDocument stores a document.
func (r *MemoryRepo) CreateDocument(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = doc
	return nil
}

// GetDocument returns a live document scoped to a workspace.
func (r *MemoryRepo) GetDocument(ctx context.Context, workspaceID, documentID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.getDocumentLocked(workspaceID, documentID)
}

func (r *MemoryRepo) getDocumentLocked(workspaceID, documentID string) (Document, error) {
	doc, ok := r.docs[documentID]
	if !ok || doc.WorkspaceID != workspaceID || r.deleted[documentID] {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// ListRecords returns the workspace's records newest-first.
func (r *MemoryRepo) ListRecords(ctx context.Context, workspaceID string, limit, offset int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var docs []Document
	for id, doc := range r.docs {
		if doc.WorkspaceID == workspaceID && !r.deleted[id] {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].ID > docs[j].ID
		}
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})

	if offset >= len(docs) {
		return []Record{}, nil
	}
	end := offset + limit
	if end > len(docs) {
		end = len(docs)
	}

	records := make([]Record, 0, end-offset)
	for _, doc := range docs[offset:end] {
		records = append(records, r.recordLocked(doc))
	}
	return records, nil
}

// GetRecord returns a document with its newest run and draft.
func (r *MemoryRepo) GetRecord(ctx context.Context, workspaceID, documentID string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, err := r.getDocumentLocked(workspaceID, documentID)
	if err != nil {
		return Record{}, err
	}
	return r.recordLocked(doc), nil
}

func (r *MemoryRepo) recordLocked(doc Document) Record {
	rec := Record{Document: doc}
	if runs := r.runs[doc.ID]; len(runs) > 0 {
		run := runs[len(runs)-1]
		rec.Run = &run
	}
	if draft, ok := r.drafts[doc.ID]; ok {
		copied := cloneDraft(draft)
		rec.Draft = &copied
	}
	return rec
}

// SoftDeleteDocument marks a document deleted.
func (r *MemoryRepo) SoftDeleteDocument(ctx context.Context, workspaceID, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.getDocumentLocked(workspaceID, documentID); err != nil {
		return err
	}
	r.deleted[documentID] = true
	return nil
}

// SetPageCount records how many pages extraction found.
func (r *MemoryRepo) SetPageCount(ctx context.Context, documentID string, count int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[documentID]
	if !ok {
		return ErrNotFound
	}
	doc.PageCount = count
	r.docs[documentID] = doc
	return nil
}

// ReplacePages swaps the stored page set for a document.
func (r *MemoryRepo) ReplacePages(ctx context.Context, documentID string, pages []Page) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := make([]Page, len(pages))
	copy(copied, pages)
	sort.Slice(copied, func(i, j int) bool { return copied[i].Number < copied[j].Number })
	r.pages[documentID] = copied
	return nil
}

// ListPages returns pages ordered by page number, honoring offset/limit.
func (r *MemoryRepo) ListPages(ctx context.Context, documentID string, offset, limit int) ([]Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	pages := r.pages[documentID]
	if offset >= len(pages) {
		return []Page{}, nil
	}
	end := offset + limit
	if end > len(pages) {
		end = len(pages)
	}
	out := make([]Page, end-offset)
	copy(out, pages[offset:end])
	return out, nil
}

// CreateRun appends a new ingestion run.
func (r *MemoryRepo) CreateRun(ctx context.Context, run IngestionRun) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.DocumentID] = append(r.runs[run.DocumentID], run)
	return nil
}

// UpdateRun rewrites a run in place.
func (r *MemoryRepo) UpdateRun(ctx context.Context, run IngestionRun) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	runs := r.runs[run.DocumentID]
	for i := range runs {
		if runs[i].ID == run.ID {
			runs[i] = run
			return nil
		}
	}
	return ErrNotFound
}

// GetLatestRun returns the newest run for a document.
func (r *MemoryRepo) GetLatestRun(ctx context.Context, documentID string) (IngestionRun, error) {
	if err := ctx.Err(); err != nil {
		return IngestionRun{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	runs := r.runs[documentID]
	if len(runs) == 0 {
		return IngestionRun{}, sql.ErrNoRows
	}
	return runs[len(runs)-1], nil
}

// UpsertDraft installs the extraction result, keeping any linked contact.
func (r *MemoryRepo) UpsertDraft(ctx context.Context, draft Draft) (Draft, error) {
	if err := ctx.Err(); err != nil {
		return Draft{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.drafts[draft.DocumentID]; ok {
		draft.ID = existing.ID
		draft.Version = existing.Version + 1
		draft.LinkedContactID = existing.LinkedContactID
	} else {
		draft.Version = 1
	}
	draft.RejectReason = ""
	stored := cloneDraft(draft)
	r.drafts[draft.DocumentID] = stored
	return cloneDraft(stored), nil
}

// GetDraft returns the draft for a document.
func (r *MemoryRepo) GetDraft(ctx context.Context, documentID string) (Draft, error) {
	if err := ctx.Err(); err != nil {
		return Draft{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	draft, ok := r.drafts[documentID]
	if !ok {
		return Draft{}, ErrDraftNotFound
	}
	return cloneDraft(draft), nil
}

// UpdateDraft persists mutable fields under optimistic locking.
func (r *MemoryRepo) UpdateDraft(ctx context.Context, documentID string, draft Draft, expectedVersion int64) (Draft, error) {
	if err := ctx.Err(); err != nil {
		return Draft{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.drafts[documentID]
	if !ok {
		return Draft{}, ErrDraftNotFound
	}
	if existing.Version != expectedVersion {
		return Draft{}, ErrVersionConflict
	}
	existing.Version++
	existing.DocType = draft.DocType
	existing.Status = draft.Status
	existing.Data = draft.Data
	existing.Confidence = draft.Confidence
	existing.LinkedContactID = draft.LinkedContactID
	existing.RejectReason = draft.RejectReason
	existing.UpdatedAt = time.Now().UTC()
	r.drafts[documentID] = cloneDraft(existing)
	return cloneDraft(existing), nil
}

func cloneDraft(d Draft) Draft {
	if d.Suggestion != nil {
		s := *d.Suggestion
		d.Suggestion = &s
	}
	return d
}

var _ Repo = (*MemoryRepo)(nil)
