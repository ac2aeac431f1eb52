package contacts

import "context"

var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "contact not found" }

type Repo interface {
	Create(ctx context.Context, contact Contact) error
	GetByID(ctx context.Context, workspaceID, contactID string) (Contact, error)
	// List returns the workspace's contacts, newest first, optionally
	// filtered by a case-insensitive name substring.
	List(ctx context.Context, workspaceID, nameQuery string) ([]Contact, error)
	Update(ctx context.Context, contact Contact) error
	Delete(ctx context.Context, workspaceID, contactID string) error
	// FindByVAT returns the contact with the exact normalized VAT number.
	FindByVAT(ctx context.Context, workspaceID, vatNumber string) (Contact, error)
}
