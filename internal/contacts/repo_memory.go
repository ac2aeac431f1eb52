package contacts

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu       sync.RWMutex
	contacts map[string]Contact
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{contacts: make(map[string]Contact)}
}

func (r *MemoryRepo) Create(ctx context.Context, contact Contact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	contact.CreatedAt = now
	contact.UpdatedAt = now
	r.contacts[contact.ID] = contact
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, workspaceID, contactID string) (Contact, error) {
	if err := ctx.Err(); err != nil {
		return Contact{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	contact, ok := r.contacts[contactID]
	if !ok || contact.WorkspaceID != workspaceID {
		return Contact{}, ErrNotFound
	}
	return contact, nil
}

func (r *MemoryRepo) List(ctx context.Context, workspaceID, nameQuery string) ([]Contact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	needle := strings.ToLower(nameQuery)
	out := make([]Contact, 0)
	for _, contact := range r.contacts {
		if contact.WorkspaceID != workspaceID {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(contact.Name), needle) {
			continue
		}
		out = append(out, contact)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepo) Update(ctx context.Context, contact Contact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.contacts[contact.ID]
	if !ok || existing.WorkspaceID != contact.WorkspaceID {
		return ErrNotFound
	}
	contact.CreatedAt = existing.CreatedAt
	contact.UpdatedAt = time.Now().UTC()
	r.contacts[contact.ID] = contact
	return nil
}

func (r *MemoryRepo) Delete(ctx context.Context, workspaceID, contactID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	contact, ok := r.contacts[contactID]
	if !ok || contact.WorkspaceID != workspaceID {
		return ErrNotFound
	}
	delete(r.contacts, contactID)
	return nil
}

func (r *MemoryRepo) FindByVAT(ctx context.Context, workspaceID, vatNumber string) (Contact, error) {
	if err := ctx.Err(); err != nil {
		return Contact{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, contact := range r.contacts {
		if contact.WorkspaceID == workspaceID && contact.VATNumber == vatNumber && vatNumber != "" {
			return contact, nil
		}
	}
	return Contact{}, ErrNotFound
}
