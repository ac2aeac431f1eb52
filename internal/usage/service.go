package usage

import "context"

type store interface {
	Get(ctx context.Context, workspaceID string) (Usage, error)
	Consume(ctx context.Context, workspaceID string, n int) (Usage, error)
	SetPlan(ctx context.Context, workspaceID, plan string) (Usage, error)
}

// Service tracks per-workspace document quotas.
type Service struct {
	store store
}

// NewService constructs a Service with an in-memory store. freeLimit
// overrides the free plan allowance; zero keeps the default.
func NewService(freeLimit int) *Service {
	return &Service{store: newMemoryStore(freeLimit)}
}

// NewPostgresService constructs a Service backed by Postgres.
func NewPostgresService(pgStore store) *Service {
	return &Service{store: pgStore}
}

// Get returns the workspace's current quota, rolling the period over when
// it has lapsed.
func (s *Service) Get(ctx context.Context, workspaceID string) (Usage, error) {
	return s.store.Get(ctx, workspaceID)
}

// CanConsume reports whether the workspace can ingest n more documents.
func (s *Service) CanConsume(ctx context.Context, workspaceID string, n int) (bool, Usage, error) {
	u, err := s.store.Get(ctx, workspaceID)
	if err != nil {
		return false, Usage{}, err
	}
	if n <= 0 {
		return true, u, nil
	}
	if u.Used+n > u.Limit {
		return false, u, nil
	}
	return true, u, nil
}

// Consume counts n ingested documents against the quota.
func (s *Service) Consume(ctx context.Context, workspaceID string, n int) (Usage, error) {
	return s.store.Consume(ctx, workspaceID, n)
}

// SetPlan switches the workspace plan and adjusts the allowance.
func (s *Service) SetPlan(ctx context.Context, workspaceID, plan string) (Usage, error) {
	return s.store.SetPlan(ctx, workspaceID, plan)
}
