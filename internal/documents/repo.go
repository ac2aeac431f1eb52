package documents

import "context"

// Repo defines persistence operations for documents, their extraction runs,
// pages, and drafts.
type Repo interface {
	CreateDocument(ctx context.Context, doc Document) error
	GetDocument(ctx context.Context, workspaceID, documentID string) (Document, error)
	// ListRecords returns the workspace's records newest-first. Runs and
	// drafts are attached the same way GetRecord attaches them.
	ListRecords(ctx context.Context, workspaceID string, limit, offset int) ([]Record, error)
	GetRecord(ctx context.Context, workspaceID, documentID string) (Record, error)
	SoftDeleteDocument(ctx context.Context, workspaceID, documentID string) error
	SetPageCount(ctx context.Context, documentID string, count int) error

	ReplacePages(ctx context.Context, documentID string, pages []Page) error
	ListPages(ctx context.Context, documentID string, offset, limit int) ([]Page, error)

	CreateRun(ctx context.Context, run IngestionRun) error
	UpdateRun(ctx context.Context, run IngestionRun) error
	GetLatestRun(ctx context.Context, documentID string) (IngestionRun, error)

	// UpsertDraft installs the extraction result, replacing any previous
	// draft for the document. An existing linked contact survives the
	// replacement; the version is bumped so stale editors notice.
	UpsertDraft(ctx context.Context, draft Draft) (Draft, error)
	GetDraft(ctx context.Context, documentID string) (Draft, error)
	// UpdateDraft persists the mutable draft fields when the stored version
	// still matches expectedVersion, bumping the version by one. Suggestion
	// columns are owned by extraction and left untouched.
	UpdateDraft(ctx context.Context, documentID string, draft Draft, expectedVersion int64) (Draft, error)
}
