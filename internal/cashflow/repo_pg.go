package cashflow

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Create(ctx context.Context, entry Entry) error {
	const query = `
INSERT INTO cashflow_entries (id, workspace_id, document_id, contact_id, direction, amount_cents, currency, booked_on, description, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
ON CONFLICT (document_id) WHERE document_id IS NOT NULL DO NOTHING`
	_, err := r.DB.ExecContext(ctx, query,
		entry.ID,
		entry.WorkspaceID,
		nullable(entry.DocumentID),
		nullable(entry.ContactID),
		entry.Direction,
		entry.AmountCents,
		entry.Currency,
		entry.BookedOn,
		entry.Description,
	)
	return err
}

func (r *PGRepo) GetByDocument(ctx context.Context, workspaceID, documentID string) (Entry, error) {
	const query = `
SELECT id, workspace_id, document_id, contact_id, direction, amount_cents, currency, booked_on, description, created_at
FROM cashflow_entries
WHERE workspace_id = $1 AND document_id = $2
LIMIT 1`
	var entry Entry
	var docID, contactID sql.NullString
	err := r.DB.QueryRowContext(ctx, query, workspaceID, documentID).Scan(
		&entry.ID,
		&entry.WorkspaceID,
		&docID,
		&contactID,
		&entry.Direction,
		&entry.AmountCents,
		&entry.Currency,
		&entry.BookedOn,
		&entry.Description,
		&entry.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, err
	}
	entry.DocumentID = docID.String
	entry.ContactID = contactID.String
	return entry, nil
}

func (r *PGRepo) List(ctx context.Context, workspaceID string, from, to time.Time, direction string) ([]Entry, error) {
	query := `
SELECT id, workspace_id, document_id, contact_id, direction, amount_cents, currency, booked_on, description, created_at
FROM cashflow_entries
WHERE workspace_id = $1 AND booked_on >= $2 AND booked_on < $3`
	args := []any{workspaceID, from, to}
	if direction != "" {
		query += ` AND direction = $4`
		args = append(args, direction)
	}
	query += `
ORDER BY booked_on DESC, created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Entry, 0)
	for rows.Next() {
		var entry Entry
		var docID, contactID sql.NullString
		if err := rows.Scan(
			&entry.ID,
			&entry.WorkspaceID,
			&docID,
			&contactID,
			&entry.Direction,
			&entry.AmountCents,
			&entry.Currency,
			&entry.BookedOn,
			&entry.Description,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entry.DocumentID = docID.String
		entry.ContactID = contactID.String
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (r *PGRepo) Summarize(ctx context.Context, workspaceID string, from, to time.Time) ([]MonthSummary, error) {
	const query = `
SELECT to_char(date_trunc('month', booked_on), 'YYYY-MM') AS month,
       COALESCE(SUM(amount_cents) FILTER (WHERE direction = 'in'), 0) AS in_cents,
       COALESCE(SUM(amount_cents) FILTER (WHERE direction = 'out'), 0) AS out_cents
FROM cashflow_entries
WHERE workspace_id = $1 AND booked_on >= $2 AND booked_on < $3
GROUP BY 1
ORDER BY 1`
	rows, err := r.DB.QueryContext(ctx, query, workspaceID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]MonthSummary, 0)
	for rows.Next() {
		var m MonthSummary
		if err := rows.Scan(&m.Month, &m.InCents, &m.OutCents); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}
