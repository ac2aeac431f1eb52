package ingest

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"ledgerly-backend/internal/contacts"
	"ledgerly-backend/internal/shared/telemetry"
	"ledgerly-backend/review/model"
)

// Match confidences per source. An exact VAT number is near-certain; a name
// collision is only a hint.
const (
	vatMatchConfidence  = 0.95
	nameMatchConfidence = 0.70
)

// matchContact looks for a workspace contact matching the extracted
// counterparty: exact VAT number first, then normalized name equality.
// Lookup failures degrade to no suggestion; a draft without a hint beats a
// failed run.
func matchContact(ctx context.Context, svc *contacts.Service, workspaceID, name, vatNumber string) *model.Suggestion {
	if svc == nil {
		return nil
	}

	if strings.TrimSpace(vatNumber) != "" {
		contact, err := svc.FindByVAT(ctx, workspaceID, vatNumber)
		if err == nil {
			return &model.Suggestion{
				ContactID:  contact.ID,
				Name:       contact.Name,
				VATNumber:  contact.VATNumber,
				Confidence: vatMatchConfidence,
				Reason:     "vat_match",
			}
		}
		if !errors.Is(err, contacts.ErrNotFound) {
			telemetry.Warn("ingest.contact_match.failed", map[string]any{
				"workspace_id": workspaceID,
				"error":        err.Error(),
			})
			return nil
		}
	}

	wanted := normalizeName(name)
	if wanted == "" {
		return nil
	}
	list, err := svc.List(ctx, workspaceID, "")
	if err != nil {
		telemetry.Warn("ingest.contact_match.failed", map[string]any{
			"workspace_id": workspaceID,
			"error":        err.Error(),
		})
		return nil
	}
	for _, contact := range list {
		if normalizeName(contact.Name) == wanted {
			return &model.Suggestion{
				ContactID:  contact.ID,
				Name:       contact.Name,
				VATNumber:  contact.VATNumber,
				Confidence: nameMatchConfidence,
				Reason:     "name_match",
			}
		}
	}
	return nil
}

// normalizeName lowercases and strips everything but letters and digits, so
// "Acme B.V." and "acme bv" compare equal.
func normalizeName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
