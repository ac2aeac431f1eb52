package workspaces

import (
	"context"
	"sort"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu         sync.RWMutex
	workspaces map[string]Workspace
	members    map[string][]Member
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		workspaces: make(map[string]Workspace),
		members:    make(map[string][]Member),
	}
}

func (r *MemoryRepo) Create(ctx context.Context, ws Workspace, ownerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	ws.CreatedAt = now
	r.workspaces[ws.ID] = ws
	r.members[ws.ID] = []Member{{
		WorkspaceID: ws.ID,
		UserID:      ownerID,
		Role:        RoleOwner,
		CreatedAt:   now,
	}}
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, workspaceID string) (Workspace, error) {
	if err := ctx.Err(); err != nil {
		return Workspace{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ws, ok := r.workspaces[workspaceID]
	if !ok {
		return Workspace{}, ErrNotFound
	}
	return ws, nil
}

func (r *MemoryRepo) ListForUser(ctx context.Context, userID string) ([]Workspace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Workspace, 0)
	for wsID, members := range r.members {
		for _, m := range members {
			if m.UserID == userID {
				if ws, ok := r.workspaces[wsID]; ok {
					out = append(out, ws)
				}
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepo) Update(ctx context.Context, ws Workspace) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.workspaces[ws.ID]
	if !ok {
		return ErrNotFound
	}
	ws.CreatedAt = existing.CreatedAt
	r.workspaces[ws.ID] = ws
	return nil
}

func (r *MemoryRepo) AddMember(ctx context.Context, member Member) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	member.CreatedAt = time.Now().UTC()
	members := r.members[member.WorkspaceID]
	for i, m := range members {
		if m.UserID == member.UserID {
			members[i].Role = member.Role
			return nil
		}
	}
	r.members[member.WorkspaceID] = append(members, member)
	return nil
}

func (r *MemoryRepo) ListMembers(ctx context.Context, workspaceID string) ([]Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := r.members[workspaceID]
	out := make([]Member, len(members))
	copy(out, members)
	return out, nil
}

func (r *MemoryRepo) IsMember(ctx context.Context, workspaceID, userID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.members[workspaceID] {
		if m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}
