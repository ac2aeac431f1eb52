package contacts

import (
	"context"
	"database/sql"
	"errors"
)

type PGRepo struct {
	DB *sql.DB
}

const contactColumns = `id, workspace_id, name, vat_number, iban, email, country_code, created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, contact Contact) error {
	const query = `
INSERT INTO contacts (id, workspace_id, name, vat_number, iban, email, country_code, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())`
	_, err := r.DB.ExecContext(ctx, query,
		contact.ID,
		contact.WorkspaceID,
		contact.Name,
		contact.VATNumber,
		contact.IBAN,
		contact.Email,
		contact.CountryCode,
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, workspaceID, contactID string) (Contact, error) {
	const query = `
SELECT ` + contactColumns + `
FROM contacts
WHERE workspace_id = $1 AND id = $2
LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, workspaceID, contactID))
}

func (r *PGRepo) List(ctx context.Context, workspaceID, nameQuery string) ([]Contact, error) {
	query := `
SELECT ` + contactColumns + `
FROM contacts
WHERE workspace_id = $1`
	args := []any{workspaceID}
	if nameQuery != "" {
		query += ` AND name ILIKE '%' || $2 || '%'`
		args = append(args, nameQuery)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Contact, 0)
	for rows.Next() {
		var contact Contact
		if err := rows.Scan(
			&contact.ID,
			&contact.WorkspaceID,
			&contact.Name,
			&contact.VATNumber,
			&contact.IBAN,
			&contact.Email,
			&contact.CountryCode,
			&contact.CreatedAt,
			&contact.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, contact)
	}
	return out, rows.Err()
}

func (r *PGRepo) Update(ctx context.Context, contact Contact) error {
	const query = `
UPDATE contacts
SET name = $3, vat_number = $4, iban = $5, email = $6, country_code = $7, updated_at = now()
WHERE workspace_id = $1 AND id = $2`
	res, err := r.DB.ExecContext(ctx, query,
		contact.WorkspaceID,
		contact.ID,
		contact.Name,
		contact.VATNumber,
		contact.IBAN,
		contact.Email,
		contact.CountryCode,
	)
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

func (r *PGRepo) Delete(ctx context.Context, workspaceID, contactID string) error {
	const query = `DELETE FROM contacts WHERE workspace_id = $1 AND id = $2`
	res, err := r.DB.ExecContext(ctx, query, workspaceID, contactID)
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

func (r *PGRepo) FindByVAT(ctx context.Context, workspaceID, vatNumber string) (Contact, error) {
	const query = `
SELECT ` + contactColumns + `
FROM contacts
WHERE workspace_id = $1 AND vat_number = $2
LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, workspaceID, vatNumber))
}

func (r *PGRepo) scanOne(row *sql.Row) (Contact, error) {
	var contact Contact
	err := row.Scan(
		&contact.ID,
		&contact.WorkspaceID,
		&contact.Name,
		&contact.VATNumber,
		&contact.IBAN,
		&contact.Email,
		&contact.CountryCode,
		&contact.CreatedAt,
		&contact.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Contact{}, ErrNotFound
		}
		return Contact{}, err
	}
	return contact, nil
}
