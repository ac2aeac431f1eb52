package documents

import (
	"time"

	"ledgerly-backend/review/model"
	"ledgerly-backend/review/status"
)

// Document is an uploaded source file owned by a workspace.
type Document struct {
	ID          string
	WorkspaceID string
	UploadedBy  string
	FileName    string
	ContentType string
	SizeBytes   int64
	StorageKey  string
	PageCount   int
	CreatedAt   time.Time
}

// Page is one extracted page of a document. Text lives in object storage
// under TextKey so large documents never bloat the row.
type Page struct {
	DocumentID string
	Number     int
	WidthPts   float64
	HeightPts  float64
	TextKey    string
}

// IngestionRun is one extraction attempt for a document. A document keeps
// its full run history; only the newest run counts toward status.
type IngestionRun struct {
	ID           string
	DocumentID   string
	Status       model.IngestionStatus
	FailureKind  string
	ErrorMessage string
	Provider     string
	Model        string
	Confidence   float64
	RequestID    string
	StartedAt    *time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time
}

// Draft is the stored extraction result for a document. Exactly one draft
// exists per document; reprocessing replaces it in place and bumps Version.
type Draft struct {
	ID              string
	DocumentID      string
	Version         int64
	DocType         model.DocType
	Status          model.DraftStatus
	Data            model.Editable
	Confidence      float64
	LinkedContactID string
	Suggestion      *model.Suggestion
	RejectReason    string
	UpdatedAt       time.Time
}

// Record bundles a document with its newest ingestion run and its draft.
type Record struct {
	Document Document
	Run      *IngestionRun
	Draft    *Draft
}

// ReviewRecord converts the stored record into the shape the review flow
// consumes.
func (r Record) ReviewRecord() model.Record {
	out := model.Record{
		Document: model.Document{
			ID:          r.Document.ID,
			WorkspaceID: r.Document.WorkspaceID,
			FileName:    r.Document.FileName,
			ContentType: r.Document.ContentType,
			SizeBytes:   r.Document.SizeBytes,
			PageCount:   r.Document.PageCount,
			CreatedAt:   r.Document.CreatedAt,
		},
	}
	if r.Run != nil {
		ing := model.Ingestion{
			ID:           r.Run.ID,
			Status:       r.Run.Status,
			ErrorMessage: r.Run.ErrorMessage,
		}
		if r.Run.StartedAt != nil {
			ing.StartedAt = *r.Run.StartedAt
		}
		if r.Run.CompletedAt != nil {
			ing.CompletedAt = *r.Run.CompletedAt
		}
		out.Ingestion = &ing
	}
	if r.Draft != nil {
		draft := model.Draft{
			ID:              r.Draft.ID,
			Version:         r.Draft.Version,
			Status:          r.Draft.Status,
			Data:            r.Draft.Data,
			Confidence:      r.Draft.Confidence,
			LinkedContactID: r.Draft.LinkedContactID,
			RejectReason:    r.Draft.RejectReason,
			UpdatedAt:       r.Draft.UpdatedAt,
		}
		if r.Draft.Suggestion != nil {
			s := *r.Draft.Suggestion
			draft.Suggestion = &s
		}
		out.Draft = &draft
	}
	return out
}

// Status derives the single pipeline status shown for this record.
func (r Record) Status() status.Status {
	return status.Derive(r.ReviewRecord())
}
