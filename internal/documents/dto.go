package documents

import (
	"time"

	"ledgerly-backend/review/model"
)

// RecordResponse is the outward-facing representation of a document record.
type RecordResponse struct {
	DocumentID  string             `json:"documentId"`
	FileName    string             `json:"fileName"`
	ContentType string             `json:"contentType"`
	SizeBytes   int64              `json:"sizeBytes"`
	PageCount   int                `json:"pageCount"`
	UploadedAt  time.Time          `json:"uploadedAt"`
	Status      string             `json:"status"`
	Ingestion   *IngestionResponse `json:"ingestion,omitempty"`
	Draft       *DraftResponse     `json:"draft,omitempty"`
}

// IngestionResponse describes the newest extraction run.
type IngestionResponse struct {
	ID           string     `json:"id"`
	Status       string     `json:"status"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

// DraftResponse describes the editable extraction result.
type DraftResponse struct {
	ID              string              `json:"id"`
	Version         int64               `json:"version"`
	DocType         string              `json:"docType"`
	Status          string              `json:"status"`
	Data            model.Editable      `json:"data"`
	Confidence      float64             `json:"confidence"`
	LinkedContactID string              `json:"linkedContactId,omitempty"`
	Suggestion      *SuggestionResponse `json:"suggestion,omitempty"`
	RejectReason    string              `json:"rejectReason,omitempty"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

// SuggestionResponse describes the extraction's counterparty match.
type SuggestionResponse struct {
	ContactID  string  `json:"contactId,omitempty"`
	Name       string  `json:"name"`
	VATNumber  string  `json:"vatNumber,omitempty"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason,omitempty"`
}

// PageResponse is one preview page.
type PageResponse struct {
	Number int    `json:"number"`
	Text   string `json:"text,omitempty"`
	URL    string `json:"url"`
}

// ToRecordResponse shapes a record for JSON responses. The uploads package
// uses it so both upload paths return the same body.
func ToRecordResponse(rec Record) RecordResponse {
	out := RecordResponse{
		DocumentID:  rec.Document.ID,
		FileName:    rec.Document.FileName,
		ContentType: rec.Document.ContentType,
		SizeBytes:   rec.Document.SizeBytes,
		PageCount:   rec.Document.PageCount,
		UploadedAt:  rec.Document.CreatedAt,
		Status:      string(rec.Status()),
	}
	if rec.Run != nil {
		out.Ingestion = &IngestionResponse{
			ID:           rec.Run.ID,
			Status:       string(rec.Run.Status),
			ErrorMessage: rec.Run.ErrorMessage,
			StartedAt:    rec.Run.StartedAt,
			CompletedAt:  rec.Run.CompletedAt,
		}
	}
	if rec.Draft != nil {
		draft := &DraftResponse{
			ID:              rec.Draft.ID,
			Version:         rec.Draft.Version,
			DocType:         string(rec.Draft.DocType),
			Status:          string(rec.Draft.Status),
			Data:            rec.Draft.Data,
			Confidence:      rec.Draft.Confidence,
			LinkedContactID: rec.Draft.LinkedContactID,
			RejectReason:    rec.Draft.RejectReason,
			UpdatedAt:       rec.Draft.UpdatedAt,
		}
		if s := rec.Draft.Suggestion; s != nil {
			draft.Suggestion = &SuggestionResponse{
				ContactID:  s.ContactID,
				Name:       s.Name,
				VATNumber:  s.VATNumber,
				Confidence: s.Confidence,
				Reason:     s.Reason,
			}
		}
		out.Draft = draft
	}
	return out
}

func toPageResponses(pages []model.Page) []PageResponse {
	out := make([]PageResponse, 0, len(pages))
	for _, page := range pages {
		out = append(out, PageResponse{Number: page.Number, Text: page.Text, URL: page.URL})
	}
	return out
}
