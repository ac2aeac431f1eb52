package session

import "ledgerly-backend/review/model"

// Intent is a user interaction handed to the session. Intents that do not
// apply to the current state are dropped silently; gating lives in the
// machine, not in every caller.
type Intent interface {
	isIntent()
}

// LoadDocument starts or restarts the session on a document.
type LoadDocument struct {
	DocumentID string
}

// Refresh re-fetches the record without leaving the current state. Used by
// the extraction poller and by pull-to-refresh style surfaces.
type Refresh struct{}

// SetField updates one scalar of the editable payload.
type SetField struct {
	Field model.Field
	Value model.Value
}

// ChangeDocType switches the document type. The payload is reset to an
// empty payload of the new type; scalars do not carry over between types.
type ChangeDocType struct {
	DocType model.DocType
}

// AddLineItem appends a line item.
type AddLineItem struct {
	Item model.LineItem
}

// UpdateLineItem replaces the line item at Index. Out of range is a no-op.
type UpdateLineItem struct {
	Index int
	Item  model.LineItem
}

// RemoveLineItem deletes the line item at Index. Out of range is a no-op.
type RemoveLineItem struct {
	Index int
}

// BindContact links a contact to the draft. Accepting a suggestion is the
// same intent with the suggested contact's ID.
type BindContact struct {
	ContactID string
}

// ClearContact unlinks the draft's contact.
type ClearContact struct{}

// LoadMorePages fetches the next preview page batch.
type LoadMorePages struct{}

// Save persists the current payload. Dropped when nothing changed.
type Save struct{}

// Confirm books the document. Validation runs first; a draft that fails
// validation never reaches the backend.
type Confirm struct{}

// OpenRejectDialog shows the reject dialog.
type OpenRejectDialog struct{}

// ChooseRejectReason selects a reason inside the open dialog.
type ChooseRejectReason struct {
	Reason RejectReason
}

// DismissRejectDialog closes the dialog without rejecting.
type DismissRejectDialog struct{}

// Reject rejects the document with the reason chosen in the dialog.
type Reject struct{}

// Reprocess queues a fresh extraction run for the document.
type Reprocess struct{}

// RequestBack is the user leaving the screen. With unsaved changes the
// session answers ConfirmDiscard instead of NavigateBack.
type RequestBack struct{}

// DiscardConfirmed is the user accepting the discard prompt.
type DiscardConfirmed struct{}

func (LoadDocument) isIntent()        {}
func (Refresh) isIntent()             {}
func (SetField) isIntent()            {}
func (ChangeDocType) isIntent()       {}
func (AddLineItem) isIntent()         {}
func (UpdateLineItem) isIntent()      {}
func (RemoveLineItem) isIntent()      {}
func (BindContact) isIntent()         {}
func (ClearContact) isIntent()        {}
func (LoadMorePages) isIntent()       {}
func (Save) isIntent()                {}
func (Confirm) isIntent()             {}
func (OpenRejectDialog) isIntent()    {}
func (ChooseRejectReason) isIntent()  {}
func (DismissRejectDialog) isIntent() {}
func (Reject) isIntent()              {}
func (Reprocess) isIntent()           {}
func (RequestBack) isIntent()         {}
func (DiscardConfirmed) isIntent()    {}
