package peppol

import "context"

var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "peppol registration not found" }

type Repo interface {
	Get(ctx context.Context, workspaceID string) (Registration, error)
	Upsert(ctx context.Context, reg Registration) error
	Delete(ctx context.Context, workspaceID string) error
}
