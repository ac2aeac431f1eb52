package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"
)

// Stub is a deterministic extractor for local development and tests. It
// fabricates an invoice whose fields derive from a hash of the file bytes,
// so the same upload always yields the same draft.
type Stub struct{}

func (Stub) Extract(ctx context.Context, input ExtractInput) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	sum := sha256.Sum256(input.Data)
	serial := binary.BigEndian.Uint32(sum[:4])

	grossCents := int64(serial%90000) + 10000
	vatCents := grossCents * 21 / 121
	netCents := grossCents - vatCents
	issued := time.Date(2025, time.Month(1+serial%12), int(1+serial%28), 0, 0, 0, 0, time.UTC)

	ext := extraction{
		DocType:          "invoice",
		Number:           fmt.Sprintf("STUB-%04d", serial%10000),
		IssueDate:        issued.Format("2006-01-02"),
		DueDate:          issued.AddDate(0, 1, 0).Format("2006-01-02"),
		Currency:         "EUR",
		NetAmount:        formatCents(netCents),
		VATAmount:        formatCents(vatCents),
		GrossAmount:      formatCents(grossCents),
		CounterpartyName: "Stub Counterparty",
	}
	raw, err := json.Marshal(ext)
	if err != nil {
		return Result{}, err
	}
	return Result{Raw: raw, Provider: "stub", Model: "deterministic"}, nil
}

func formatCents(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
