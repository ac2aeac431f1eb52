package workspaces

import "context"

var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "workspace not found" }

type Repo interface {
	// Create inserts the workspace and its owner membership atomically.
	Create(ctx context.Context, ws Workspace, ownerID string) error
	GetByID(ctx context.Context, workspaceID string) (Workspace, error)
	ListForUser(ctx context.Context, userID string) ([]Workspace, error)
	Update(ctx context.Context, ws Workspace) error
	AddMember(ctx context.Context, member Member) error
	ListMembers(ctx context.Context, workspaceID string) ([]Member, error)
	IsMember(ctx context.Context, workspaceID, userID string) (bool, error)
}
