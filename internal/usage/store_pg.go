package usage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type pgStore struct {
	DB        *sql.DB
	freeLimit int
}

// NewPGStore constructs a Postgres-backed quota store. freeLimit overrides
// the free plan allowance for new quota rows; zero keeps the default.
func NewPGStore(db *sql.DB, freeLimit int) *pgStore {
	return &pgStore{DB: db, freeLimit: normalizeFreeLimit(freeLimit)}
}

func (s *pgStore) Get(ctx context.Context, workspaceID string) (Usage, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Usage{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()
	u, err := s.lockAndEnsure(ctx, tx, workspaceID)
	if err != nil {
		return Usage{}, err
	}
	if err = tx.Commit(); err != nil {
		return Usage{}, err
	}
	return u, nil
}

func (s *pgStore) Consume(ctx context.Context, workspaceID string, n int) (Usage, error) {
	if n <= 0 {
		return s.Get(ctx, workspaceID)
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Usage{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	u, err := s.lockAndEnsure(ctx, tx, workspaceID)
	if err != nil {
		return Usage{}, err
	}
	if u.Used+n > u.Limit {
		err = ErrLimitReached
		return Usage{}, err
	}
	u.Used += n
	if _, err = tx.ExecContext(ctx, `
UPDATE usage_quotas SET used = $1 WHERE workspace_id = $2`, u.Used, workspaceID); err != nil {
		return Usage{}, err
	}
	if err = tx.Commit(); err != nil {
		return Usage{}, err
	}
	return u, nil
}

func (s *pgStore) SetPlan(ctx context.Context, workspaceID, plan string) (Usage, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Usage{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()
	u, err := s.lockAndEnsure(ctx, tx, workspaceID)
	if err != nil {
		return Usage{}, err
	}
	u.Plan = plan
	u.Limit = limitForPlan(plan, s.freeLimit)
	if _, err = tx.ExecContext(ctx, `
UPDATE usage_quotas SET plan = $1, quota_limit = $2 WHERE workspace_id = $3`,
		u.Plan, u.Limit, workspaceID); err != nil {
		return Usage{}, err
	}
	if err = tx.Commit(); err != nil {
		return Usage{}, err
	}
	return u, nil
}

// lockAndEnsure loads the quota row under FOR UPDATE, creating it with the
// free plan defaults when missing and rolling the period over when lapsed.
func (s *pgStore) lockAndEnsure(ctx context.Context, tx *sql.Tx, workspaceID string) (Usage, error) {
	var u Usage
	row := tx.QueryRowContext(ctx, `
SELECT plan, quota_limit, used, resets_at FROM usage_quotas WHERE workspace_id = $1 FOR UPDATE`, workspaceID)
	err := row.Scan(&u.Plan, &u.Limit, &u.Used, &u.ResetsAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			u = defaultUsage(s.freeLimit)
			if _, err = tx.ExecContext(ctx, `
INSERT INTO usage_quotas (workspace_id, plan, quota_limit, used, resets_at) VALUES ($1, $2, $3, $4, $5)`,
				workspaceID, u.Plan, u.Limit, u.Used, u.ResetsAt); err != nil {
				return Usage{}, err
			}
			return u, nil
		}
		return Usage{}, err
	}

	now := time.Now().UTC()
	if !now.Before(u.ResetsAt) {
		u.Used = 0
		u.ResetsAt = now.Add(periodLength)
		if _, err = tx.ExecContext(ctx, `
UPDATE usage_quotas SET used = $1, resets_at = $2 WHERE workspace_id = $3`, u.Used, u.ResetsAt, workspaceID); err != nil {
			return Usage{}, err
		}
	}
	return u, nil
}
