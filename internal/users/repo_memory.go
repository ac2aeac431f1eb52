package users

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type MemoryRepo struct {
	mu    sync.RWMutex
	users map[string]User
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{users: make(map[string]User)}
}

func (r *MemoryRepo) UpsertByGoogleSub(ctx context.Context, user User) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	for id, existing := range r.users {
		if existing.GoogleSub == user.GoogleSub {
			existing.Email = user.Email
			existing.Name = user.Name
			existing.Picture = user.Picture
			existing.UpdatedAt = now
			r.users[id] = existing
			return existing, nil
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = user
	return user, nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[userID]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}
