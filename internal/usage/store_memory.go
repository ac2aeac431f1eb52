package usage

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu        sync.Mutex
	freeLimit int
	quotas    map[string]Usage
}

func newMemoryStore(freeLimit int) *memoryStore {
	return &memoryStore{
		freeLimit: normalizeFreeLimit(freeLimit),
		quotas:    make(map[string]Usage),
	}
}

func (s *memoryStore) Get(ctx context.Context, workspaceID string) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLocked(workspaceID), nil
}

func (s *memoryStore) Consume(ctx context.Context, workspaceID string, n int) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.ensureLocked(workspaceID)
	if n <= 0 {
		return u, nil
	}
	if u.Used+n > u.Limit {
		return Usage{}, ErrLimitReached
	}
	u.Used += n
	s.quotas[workspaceID] = u
	return u, nil
}

func (s *memoryStore) SetPlan(ctx context.Context, workspaceID, plan string) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.ensureLocked(workspaceID)
	u.Plan = plan
	u.Limit = limitForPlan(plan, s.freeLimit)
	s.quotas[workspaceID] = u
	return u, nil
}

func (s *memoryStore) ensureLocked(workspaceID string) Usage {
	u, ok := s.quotas[workspaceID]
	if !ok {
		u = defaultUsage(s.freeLimit)
		s.quotas[workspaceID] = u
		return u
	}
	now := time.Now().UTC()
	if !now.Before(u.ResetsAt) {
		u.Used = 0
		u.ResetsAt = now.Add(periodLength)
		s.quotas[workspaceID] = u
	}
	return u
}
