// Package session drives a document review session as a state machine.
// Intents go in, states and one-shot actions come out; all work on the
// document happens through the injected UseCases so the machine itself
// stays free of transport and storage concerns.
package session

import "ledgerly-backend/review/model"

// State is what a review surface renders. It is a closed union: Loading,
// AwaitingExtraction, Content or LoadFailed.
type State interface {
	isState()
}

// Loading: the record snapshot is being fetched.
type Loading struct {
	DocumentID string
}

// AwaitingExtraction: the document exists but its extraction run has not
// finished. The surface shows the file info and polls via Refresh.
type AwaitingExtraction struct {
	DocumentID string
	Record     model.Record
}

// LoadFailed: the record could not be loaded at all. Refresh retries.
type LoadFailed struct {
	DocumentID string
	Err        error
}

// Content is the editable review surface.
type Content struct {
	Record   model.Record
	Editable model.Editable
	// Baseline is the payload as last loaded or saved. Unsaved changes are
	// detected by comparing Editable against it, never by tracking edits.
	Baseline model.Editable
	Contact  ContactState
	Preview  Preview
	// RejectDialog is nil while the dialog is closed.
	RejectDialog *RejectDialog
	Flags        Flags
}

func (Loading) isState()            {}
func (AwaitingExtraction) isState() {}
func (LoadFailed) isState()         {}
func (Content) isState()            {}

// HasUnsavedChanges reports whether the payload differs from the last
// loaded or saved snapshot.
func (c Content) HasUnsavedChanges() bool {
	return !c.Editable.Equal(c.Baseline)
}

// ContactState is the counterparty binding of the draft: none, a machine
// suggestion awaiting acceptance, or a selected contact.
type ContactState interface {
	isContactState()
}

// NoContact: nothing linked and nothing suggested.
type NoContact struct{}

// SuggestedContact: extraction proposed a match the user has not accepted.
type SuggestedContact struct {
	Suggestion model.Suggestion
}

// SelectedContact: a contact is linked to the draft. The snapshot may hold
// only the ID until the full contact load completes.
type SelectedContact struct {
	Contact model.Contact
}

func (NoContact) isContactState()        {}
func (SuggestedContact) isContactState() {}
func (SelectedContact) isContactState()  {}

// Preview is the paginated page loader for the source document.
type Preview struct {
	Pages      []model.Page
	NextOffset int
	Loading    bool
	Exhausted  bool
	Failed     bool
}

// RejectDialog is the open reject dialog. Reason stays empty until chosen;
// the reject action is disabled until then.
type RejectDialog struct {
	Reason RejectReason
}

// RejectReason is why a document is being rejected. The vocabulary lives
// in the model package; the alias keeps session call sites short.
type RejectReason = model.RejectReason

const (
	RejectDuplicate      = model.RejectDuplicate
	RejectNotBusinessDoc = model.RejectNotBusinessDoc
	RejectUnreadable     = model.RejectUnreadable
	RejectOther          = model.RejectOther
)

// ValidRejectReason reports whether the reason is one of the closed set.
func ValidRejectReason(r RejectReason) bool {
	return model.ValidRejectReason(r)
}

// Flags track which mutations are in flight. Each one gates its intent so
// a double tap cannot issue the call twice.
type Flags struct {
	Saving         bool
	Confirming     bool
	Rejecting      bool
	Reprocessing   bool
	BindingContact bool
}

func contactLinked(cs ContactState) bool {
	_, ok := cs.(SelectedContact)
	return ok
}
