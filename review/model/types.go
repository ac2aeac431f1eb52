// Package model defines the document shapes the review flow operates on:
// record snapshots, typed editable payloads per document type, and the
// validation rules that gate confirmation.
package model

import "time"

// DocType classifies an extracted financial document.
type DocType string

const (
	DocTypeInvoice    DocType = "invoice"
	DocTypeBill       DocType = "bill"
	DocTypeReceipt    DocType = "receipt"
	DocTypeCreditNote DocType = "credit_note"
	DocTypeUnknown    DocType = "unknown"
)

// ParseDocType maps a stored string onto a DocType, defaulting to unknown.
func ParseDocType(s string) DocType {
	switch DocType(s) {
	case DocTypeInvoice, DocTypeBill, DocTypeReceipt, DocTypeCreditNote:
		return DocType(s)
	default:
		return DocTypeUnknown
	}
}

// RequiresContact reports whether a document type must be linked to a
// counterparty before it can be booked. Receipts are exempt: they are cash
// purchases where the counterparty is rarely a tracked relation.
func RequiresContact(dt DocType) bool {
	switch dt {
	case DocTypeInvoice, DocTypeBill, DocTypeCreditNote:
		return true
	default:
		return false
	}
}

// IngestionStatus is the lifecycle of one extraction run.
type IngestionStatus string

const (
	IngestionPending    IngestionStatus = "pending"
	IngestionProcessing IngestionStatus = "processing"
	IngestionSucceeded  IngestionStatus = "succeeded"
	IngestionFailed     IngestionStatus = "failed"
)

// DraftStatus is the review lifecycle of an extracted draft.
type DraftStatus string

const (
	DraftNeedsInput  DraftStatus = "needs_input"
	DraftNeedsReview DraftStatus = "needs_review"
	DraftReady       DraftStatus = "ready"
	DraftConfirmed   DraftStatus = "confirmed"
	DraftRejected    DraftStatus = "rejected"
)

// RejectReason is why a reviewer rejected a document.
type RejectReason string

const (
	RejectDuplicate      RejectReason = "duplicate"
	RejectNotBusinessDoc RejectReason = "not_a_business_document"
	RejectUnreadable     RejectReason = "unreadable"
	RejectOther          RejectReason = "other"
)

// ValidRejectReason reports whether the reason is one of the closed set.
func ValidRejectReason(r RejectReason) bool {
	switch r {
	case RejectDuplicate, RejectNotBusinessDoc, RejectUnreadable, RejectOther:
		return true
	default:
		return false
	}
}

// Document is the stored file a record is built around.
type Document struct {
	ID          string
	WorkspaceID string
	FileName    string
	ContentType string
	SizeBytes   int64
	PageCount   int
	CreatedAt   time.Time
}

// Ingestion is the latest extraction run attached to a document.
type Ingestion struct {
	ID           string
	Status       IngestionStatus
	ErrorMessage string
	StartedAt    time.Time
	CompletedAt  time.Time
}

// Suggestion is an automatic counterparty match produced during extraction.
type Suggestion struct {
	ContactID  string
	Name       string
	VATNumber  string
	Confidence float64
	Reason     string
}

// Draft is the editable extraction result awaiting human review.
type Draft struct {
	ID              string
	Version         int64
	Status          DraftStatus
	Data            Editable
	Confidence      float64
	LinkedContactID string
	Suggestion      *Suggestion
	RejectReason    string
	UpdatedAt       time.Time
}

// Record is the full snapshot the review flow loads: the document, its
// latest ingestion run if any, and its draft if extraction produced one.
type Record struct {
	Document  Document
	Ingestion *Ingestion
	Draft     *Draft
}

// Contact is a counterparty snapshot as shown during review.
type Contact struct {
	ID          string
	Name        string
	VATNumber   string
	Email       string
	IBAN        string
	CountryCode string
}

// Page is one rendered preview page of the source document.
type Page struct {
	Number int
	Text   string
	URL    string
}
