package cashflow

import (
	"context"
	"time"
)

var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "cashflow entry not found" }

type Repo interface {
	// Create inserts the entry. An entry for the same document already in
	// place wins; the insert is then a no-op.
	Create(ctx context.Context, entry Entry) error
	GetByDocument(ctx context.Context, workspaceID, documentID string) (Entry, error)
	// List returns entries booked inside [from, to), all directions when
	// direction is empty.
	List(ctx context.Context, workspaceID string, from, to time.Time, direction string) ([]Entry, error)
	// Summarize groups booked amounts per calendar month inside [from, to).
	Summarize(ctx context.Context, workspaceID string, from, to time.Time) ([]MonthSummary, error)
}
