// Package status derives the one user-facing state of a document from its
// record snapshot. Every surface (list view, detail view, API responses)
// goes through Derive so a document can never show two different states.
package status

import "ledgerly-backend/review/model"

// Status is what the user sees for a document.
type Status string

const (
	// Queued: uploaded, no extraction run started yet.
	Queued Status = "queued"
	// Processing: an extraction run is pending or in flight.
	Processing Status = "processing"
	// Ready: nothing left to do, the document is booked or rejected, or
	// the draft is complete enough to book as is.
	Ready Status = "ready"
	// Review: extraction finished but a human has to look at it.
	Review Status = "review"
	// Failed: the latest extraction run failed.
	Failed Status = "failed"
)

// ConfidenceThreshold is the minimum extraction confidence for a draft to
// count as Ready without human edits.
const ConfidenceThreshold = 0.80

// Derive computes the status of a record. Checks run in strict priority
// order: failure beats progress, progress beats review. The rules are pure
// so list endpoints, the review flow and tests all agree.
func Derive(rec model.Record) Status {
	ing := rec.Ingestion
	if ing == nil {
		return Queued
	}
	if ing.Status == model.IngestionFailed || ing.ErrorMessage != "" {
		return Failed
	}
	if ing.Status != model.IngestionSucceeded {
		return Processing
	}

	draft := rec.Draft
	if draft == nil {
		return Review
	}
	switch draft.Status {
	case model.DraftConfirmed, model.DraftRejected:
		return Ready
	case model.DraftReady:
		if autoReady(draft) {
			return Ready
		}
		return Review
	default:
		// needs_input and needs_review both land here.
		return Review
	}
}

// autoReady reports whether an unconfirmed draft is complete enough to show
// as Ready. High extraction confidence alone is not enough: types that book
// against a counterparty stay in Review until a contact is linked, and a
// document whose type could not be classified always needs a human.
func autoReady(draft *model.Draft) bool {
	dt := draft.Data.DocType
	if dt == model.DocTypeUnknown {
		return false
	}
	if draft.Confidence < ConfidenceThreshold {
		return false
	}
	if model.RequiresContact(dt) && draft.LinkedContactID == "" {
		return false
	}
	return true
}
