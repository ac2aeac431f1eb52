package peppol

import (
	"context"
	"sync"
)

type MemoryRepo struct {
	mu   sync.RWMutex
	regs map[string]Registration
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{regs: make(map[string]Registration)}
}

func (r *MemoryRepo) Get(ctx context.Context, workspaceID string) (Registration, error) {
	if err := ctx.Err(); err != nil {
		return Registration{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.regs[workspaceID]
	if !ok {
		return Registration{}, ErrNotFound
	}
	return reg, nil
}

func (r *MemoryRepo) Upsert(ctx context.Context, reg Registration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.regs[reg.WorkspaceID] = reg
	return nil
}

func (r *MemoryRepo) Delete(ctx context.Context, workspaceID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.regs[workspaceID]; !ok {
		return ErrNotFound
	}
	delete(r.regs, workspaceID)
	return nil
}
