package workspaces

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Create(ctx context.Context, ws Workspace, ownerID string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const insertWorkspace = `
INSERT INTO workspaces (id, name, country_code, currency, vat_number, created_at)
VALUES ($1, $2, $3, $4, $5, now())`
	if _, err := tx.ExecContext(ctx, insertWorkspace,
		ws.ID, ws.Name, ws.CountryCode, ws.Currency, ws.VATNumber,
	); err != nil {
		return fmt.Errorf("insert workspace: %w", err)
	}

	const insertOwner = `
INSERT INTO workspace_members (workspace_id, user_id, role, created_at)
VALUES ($1, $2, $3, now())`
	if _, err := tx.ExecContext(ctx, insertOwner, ws.ID, ownerID, RoleOwner); err != nil {
		return fmt.Errorf("insert owner membership: %w", err)
	}

	return tx.Commit()
}

func (r *PGRepo) GetByID(ctx context.Context, workspaceID string) (Workspace, error) {
	const query = `
SELECT id, name, country_code, currency, vat_number, created_at
FROM workspaces
WHERE id = $1
LIMIT 1`
	var ws Workspace
	err := r.DB.QueryRowContext(ctx, query, workspaceID).Scan(
		&ws.ID, &ws.Name, &ws.CountryCode, &ws.Currency, &ws.VATNumber, &ws.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Workspace{}, ErrNotFound
		}
		return Workspace{}, err
	}
	return ws, nil
}

func (r *PGRepo) ListForUser(ctx context.Context, userID string) ([]Workspace, error) {
	const query = `
SELECT w.id, w.name, w.country_code, w.currency, w.vat_number, w.created_at
FROM workspaces w
JOIN workspace_members m ON m.workspace_id = w.id
WHERE m.user_id = $1
ORDER BY w.created_at ASC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Workspace, 0)
	for rows.Next() {
		var ws Workspace
		if err := rows.Scan(&ws.ID, &ws.Name, &ws.CountryCode, &ws.Currency, &ws.VATNumber, &ws.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ws)
	}
	return out, rows.Err()
}

func (r *PGRepo) Update(ctx context.Context, ws Workspace) error {
	const query = `
UPDATE workspaces
SET name = $2, country_code = $3, currency = $4, vat_number = $5
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, ws.ID, ws.Name, ws.CountryCode, ws.Currency, ws.VATNumber)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) AddMember(ctx context.Context, member Member) error {
	const query = `
INSERT INTO workspace_members (workspace_id, user_id, role, created_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (workspace_id, user_id) DO UPDATE SET role = EXCLUDED.role`
	_, err := r.DB.ExecContext(ctx, query, member.WorkspaceID, member.UserID, member.Role)
	return err
}

func (r *PGRepo) ListMembers(ctx context.Context, workspaceID string) ([]Member, error) {
	const query = `
SELECT workspace_id, user_id, role, created_at
FROM workspace_members
WHERE workspace_id = $1
ORDER BY created_at ASC`
	rows, err := r.DB.QueryContext(ctx, query, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Member, 0)
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.WorkspaceID, &m.UserID, &m.Role, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PGRepo) IsMember(ctx context.Context, workspaceID, userID string) (bool, error) {
	const query = `
SELECT 1
FROM workspace_members
WHERE workspace_id = $1 AND user_id = $2
LIMIT 1`
	var one int
	err := r.DB.QueryRowContext(ctx, query, workspaceID, userID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
