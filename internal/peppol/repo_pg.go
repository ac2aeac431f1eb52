package peppol

import (
	"context"
	"database/sql"
	"errors"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Get(ctx context.Context, workspaceID string) (Registration, error) {
	const query = `
SELECT workspace_id, participant_id, scheme, status, last_error, updated_at
FROM peppol_registrations
WHERE workspace_id = $1`
	var reg Registration
	err := r.DB.QueryRowContext(ctx, query, workspaceID).Scan(
		&reg.WorkspaceID,
		&reg.ParticipantID,
		&reg.Scheme,
		&reg.Status,
		&reg.LastError,
		&reg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Registration{}, ErrNotFound
		}
		return Registration{}, err
	}
	return reg, nil
}

func (r *PGRepo) Upsert(ctx context.Context, reg Registration) error {
	const query = `
INSERT INTO peppol_registrations (workspace_id, participant_id, scheme, status, last_error, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (workspace_id) DO UPDATE SET
    participant_id = EXCLUDED.participant_id,
    scheme = EXCLUDED.scheme,
    status = EXCLUDED.status,
    last_error = EXCLUDED.last_error,
    updated_at = EXCLUDED.updated_at`
	_, err := r.DB.ExecContext(ctx, query,
		reg.WorkspaceID,
		reg.ParticipantID,
		reg.Scheme,
		reg.Status,
		reg.LastError,
		reg.UpdatedAt,
	)
	return err
}

func (r *PGRepo) Delete(ctx context.Context, workspaceID string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM peppol_registrations WHERE workspace_id = $1`, workspaceID)
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
