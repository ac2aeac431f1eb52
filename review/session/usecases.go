package session

import (
	"context"

	"ledgerly-backend/review/model"
)

// UseCases is everything the session needs from the backend. The machine
// only sees record snapshots and errors; whether calls cross a network or
// hit services in process is the caller's business.
type UseCases interface {
	// GetDocumentRecord loads the full record snapshot.
	GetDocumentRecord(ctx context.Context, documentID string) (model.Record, error)

	// UpdateDocumentDraft persists an edited payload and returns the fresh
	// record. version is the draft version the edit was based on; zero when
	// no draft existed yet.
	UpdateDocumentDraft(ctx context.Context, documentID string, data model.Editable, version int64) (model.Record, error)

	// BindDocumentContact links a contact to the draft.
	BindDocumentContact(ctx context.Context, documentID, contactID string) (model.Record, error)

	// ClearDocumentContact unlinks the draft's contact.
	ClearDocumentContact(ctx context.Context, documentID string) (model.Record, error)

	// ConfirmDocument books the document and returns the cashflow entry ID.
	ConfirmDocument(ctx context.Context, documentID string) (string, error)

	// RejectDocument rejects the document with a reason.
	RejectDocument(ctx context.Context, documentID string, reason RejectReason) error

	// ReprocessDocument queues a fresh extraction run.
	ReprocessDocument(ctx context.Context, documentID string) error

	// GetDocumentPages returns preview pages starting at offset, at most
	// limit of them. Fewer than limit means the document is exhausted.
	GetDocumentPages(ctx context.Context, documentID string, offset, limit int) ([]model.Page, error)

	// GetContact loads the snapshot of a linked contact.
	GetContact(ctx context.Context, contactID string) (model.Contact, error)
}
