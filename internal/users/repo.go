package users

import "context"

var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "user not found" }

type Repo interface {
	// UpsertByGoogleSub creates or refreshes the user keyed by the Google
	// subject and returns the stored row, ID included.
	UpsertByGoogleSub(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, userID string) (User, error)
}
