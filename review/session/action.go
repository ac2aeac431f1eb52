package session

import "ledgerly-backend/review/model"

// Action is a one-shot effect for the surface to perform once: navigation,
// toasts, dialogs. Actions are not state; replaying the current state never
// replays an action.
type Action interface {
	isAction()
}

// NavigateBack: leave the review screen.
type NavigateBack struct{}

// ConfirmDiscard: ask the user whether to throw away unsaved changes.
type ConfirmDiscard struct{}

// ShowError: surface a failure. Validation carries the blocking issues when
// Kind is ErrValidationFailed, and is nil otherwise.
type ShowError struct {
	Kind       ErrKind
	Validation *model.ValidationError
}

// DocumentSaved: the draft was persisted.
type DocumentSaved struct{}

// DocumentConfirmed: the document was booked. EntryID is the cashflow
// entry created by the confirmation.
type DocumentConfirmed struct {
	EntryID string
}

// DocumentRejected: the document was rejected.
type DocumentRejected struct{}

func (NavigateBack) isAction()      {}
func (ConfirmDiscard) isAction()    {}
func (ShowError) isAction()         {}
func (DocumentSaved) isAction()     {}
func (DocumentConfirmed) isAction() {}
func (DocumentRejected) isAction()  {}

// ErrKind is the closed set of failures the review surface distinguishes.
// Surfaces map kinds to copy; the machine never produces free-form text.
type ErrKind string

const (
	ErrLoadFailed         ErrKind = "document_load_failed"
	ErrSaveFailed         ErrKind = "document_save_failed"
	ErrConfirmFailed      ErrKind = "document_confirm_failed"
	ErrRejectFailed       ErrKind = "document_reject_failed"
	ErrReprocessFailed    ErrKind = "document_reprocess_failed"
	ErrContactBindFailed  ErrKind = "document_contact_bind_failed"
	ErrContactClearFailed ErrKind = "document_contact_clear_failed"
	ErrPreviewLoadFailed  ErrKind = "document_preview_load_failed"
	ErrValidationFailed   ErrKind = "document_validation_failed"
)
