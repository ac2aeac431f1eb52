// Package ingest turns uploaded files into review drafts: it pulls the bytes
// from object storage, extracts per-page text for PDFs, asks a provider for
// structured fields, matches the counterparty against workspace contacts and
// settles the ingestion run.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
)

// Extractor asks a provider to classify a document and pull its fields.
// Implementations return the provider's raw JSON payload; decoding and
// mapping onto the draft shape happens in the pipeline.
type Extractor interface {
	Extract(ctx context.Context, input ExtractInput) (Result, error)
}

// ExtractInput is one document handed to a provider. Data carries the raw
// file bytes. Text, when set, carries pre-extracted page text and takes the
// place of Data for files too large to send inline.
type ExtractInput struct {
	MIMEType string
	FileName string
	Data     []byte
	Text     string
}

// Result is a provider response: the raw JSON plus the provider identity
// recorded on the ingestion run.
type Result struct {
	Raw      json.RawMessage
	Provider string
	Model    string
}

// Classification markers. Wrap one with %w so the run failure gets the
// matching kind; everything else classifies as internal.
var (
	errUnreadable = errors.New("document unreadable")
	errProvider   = errors.New("provider output unusable")
	errQuota      = errors.New("provider quota exhausted")
)
