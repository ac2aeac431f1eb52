package status

import (
	"testing"

	"ledgerly-backend/review/model"
)

func record(ing *model.Ingestion, draft *model.Draft) model.Record {
	return model.Record{
		Document:  model.Document{ID: "doc-1", WorkspaceID: "ws-1", FileName: "scan.pdf"},
		Ingestion: ing,
		Draft:     draft,
	}
}

func draft(dt model.DocType, st model.DraftStatus, confidence float64, contactID string) *model.Draft {
	return &model.Draft{
		ID:              "draft-1",
		Status:          st,
		Data:            model.EmptyFor(dt),
		Confidence:      confidence,
		LinkedContactID: contactID,
	}
}

func TestDerive(t *testing.T) {
	tests := []struct {
		name string
		rec  model.Record
		want Status
	}{
		{
			name: "no ingestion yet",
			rec:  record(nil, nil),
			want: Queued,
		},
		{
			name: "ingestion pending",
			rec:  record(&model.Ingestion{Status: model.IngestionPending}, nil),
			want: Processing,
		},
		{
			name: "ingestion processing",
			rec:  record(&model.Ingestion{Status: model.IngestionProcessing}, nil),
			want: Processing,
		},
		{
			name: "ingestion failed",
			rec:  record(&model.Ingestion{Status: model.IngestionFailed, ErrorMessage: "model timeout"}, nil),
			want: Failed,
		},
		{
			name: "error message wins over succeeded state",
			rec:  record(&model.Ingestion{Status: model.IngestionSucceeded, ErrorMessage: "partial output"}, nil),
			want: Failed,
		},
		{
			name: "failure wins over an existing draft",
			rec: record(
				&model.Ingestion{Status: model.IngestionFailed},
				draft(model.DocTypeReceipt, model.DraftReady, 0.99, ""),
			),
			want: Failed,
		},
		{
			name: "succeeded without draft",
			rec:  record(&model.Ingestion{Status: model.IngestionSucceeded}, nil),
			want: Review,
		},
		{
			name: "draft confirmed",
			rec: record(
				&model.Ingestion{Status: model.IngestionSucceeded},
				draft(model.DocTypeInvoice, model.DraftConfirmed, 0.99, "c-1"),
			),
			want: Ready,
		},
		{
			name: "draft rejected",
			rec: record(
				&model.Ingestion{Status: model.IngestionSucceeded},
				draft(model.DocTypeInvoice, model.DraftRejected, 0.99, ""),
			),
			want: Ready,
		},
		{
			name: "draft needs input",
			rec: record(
				&model.Ingestion{Status: model.IngestionSucceeded},
				draft(model.DocTypeInvoice, model.DraftNeedsInput, 0.99, "c-1"),
			),
			want: Review,
		},
		{
			name: "draft needs review",
			rec: record(
				&model.Ingestion{Status: model.IngestionSucceeded},
				draft(model.DocTypeBill, model.DraftNeedsReview, 0.99, "c-1"),
			),
			want: Review,
		},
		{
			name: "ready invoice with contact and high confidence",
			rec: record(
				&model.Ingestion{Status: model.IngestionSucceeded},
				draft(model.DocTypeInvoice, model.DraftReady, 0.95, "c-1"),
			),
			want: Ready,
		},
		{
			name: "ready invoice without contact stays in review",
			rec: record(
				&model.Ingestion{Status: model.IngestionSucceeded},
				draft(model.DocTypeInvoice, model.DraftReady, 0.95, ""),
			),
			want: Review,
		},
		{
			name: "ready receipt needs no contact",
			rec: record(
				&model.Ingestion{Status: model.IngestionSucceeded},
				draft(model.DocTypeReceipt, model.DraftReady, 0.85, ""),
			),
			want: Ready,
		},
		{
			name: "confidence below threshold",
			rec: record(
				&model.Ingestion{Status: model.IngestionSucceeded},
				draft(model.DocTypeBill, model.DraftReady, 0.79, "c-1"),
			),
			want: Review,
		},
		{
			name: "confidence exactly at threshold",
			rec: record(
				&model.Ingestion{Status: model.IngestionSucceeded},
				draft(model.DocTypeBill, model.DraftReady, 0.80, "c-1"),
			),
			want: Ready,
		},
		{
			name: "unknown type is never ready",
			rec: record(
				&model.Ingestion{Status: model.IngestionSucceeded},
				draft(model.DocTypeUnknown, model.DraftReady, 0.99, "c-1"),
			),
			want: Review,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Derive(tt.rec); got != tt.want {
				t.Errorf("Derive() = %s, want %s", got, tt.want)
			}
		})
	}
}
