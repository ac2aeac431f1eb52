// Package reviewgateway adapts the workspace-scoped document and contact
// services to the review session's use-case interface, so a session can run
// in the same process as the backend.
package reviewgateway

import (
	"context"

	"ledgerly-backend/internal/contacts"
	"ledgerly-backend/internal/documents"
	"ledgerly-backend/review/model"
	"ledgerly-backend/review/session"
)

// Gateway implements session.UseCases against in-process services. One
// gateway is bound to one workspace; the session itself never sees
// workspace IDs.
type Gateway struct {
	Docs        *documents.Service
	Contacts    *contacts.Service
	WorkspaceID string
}

// New binds the services to a workspace.
func New(docs *documents.Service, contactsSvc *contacts.Service, workspaceID string) *Gateway {
	return &Gateway{Docs: docs, Contacts: contactsSvc, WorkspaceID: workspaceID}
}

var _ session.UseCases = (*Gateway)(nil)

func (g *Gateway) GetDocumentRecord(ctx context.Context, documentID string) (model.Record, error) {
	rec, err := g.Docs.GetRecord(ctx, g.WorkspaceID, documentID)
	if err != nil {
		return model.Record{}, err
	}
	return rec.ReviewRecord(), nil
}

func (g *Gateway) UpdateDocumentDraft(ctx context.Context, documentID string, data model.Editable, version int64) (model.Record, error) {
	rec, err := g.Docs.UpdateDraft(ctx, g.WorkspaceID, documentID, data, version)
	if err != nil {
		return model.Record{}, err
	}
	return rec.ReviewRecord(), nil
}

func (g *Gateway) BindDocumentContact(ctx context.Context, documentID, contactID string) (model.Record, error) {
	rec, err := g.Docs.BindContact(ctx, g.WorkspaceID, documentID, contactID)
	if err != nil {
		return model.Record{}, err
	}
	return rec.ReviewRecord(), nil
}

func (g *Gateway) ClearDocumentContact(ctx context.Context, documentID string) (model.Record, error) {
	rec, err := g.Docs.ClearContact(ctx, g.WorkspaceID, documentID)
	if err != nil {
		return model.Record{}, err
	}
	return rec.ReviewRecord(), nil
}

func (g *Gateway) ConfirmDocument(ctx context.Context, documentID string) (string, error) {
	entryID, _, err := g.Docs.Confirm(ctx, g.WorkspaceID, documentID)
	return entryID, err
}

func (g *Gateway) RejectDocument(ctx context.Context, documentID string, reason session.RejectReason) error {
	_, err := g.Docs.Reject(ctx, g.WorkspaceID, documentID, reason)
	return err
}

func (g *Gateway) ReprocessDocument(ctx context.Context, documentID string) error {
	_, err := g.Docs.Reprocess(ctx, g.WorkspaceID, documentID)
	return err
}

func (g *Gateway) GetDocumentPages(ctx context.Context, documentID string, offset, limit int) ([]model.Page, error) {
	return g.Docs.Pages(ctx, g.WorkspaceID, documentID, offset, limit)
}

func (g *Gateway) GetContact(ctx context.Context, contactID string) (model.Contact, error) {
	contact, err := g.Contacts.Get(ctx, g.WorkspaceID, contactID)
	if err != nil {
		return model.Contact{}, err
	}
	return model.Contact{
		ID:          contact.ID,
		Name:        contact.Name,
		VATNumber:   contact.VATNumber,
		Email:       contact.Email,
		IBAN:        contact.IBAN,
		CountryCode: contact.CountryCode,
	}, nil
}
