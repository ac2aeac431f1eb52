package users

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) UpsertByGoogleSub(ctx context.Context, user User) (User, error) {
	const query = `
INSERT INTO users (id, google_sub, email, name, picture, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, now(), now())
ON CONFLICT (google_sub) DO UPDATE SET
  email = EXCLUDED.email,
  name = EXCLUDED.name,
  picture = EXCLUDED.picture,
  updated_at = now()
RETURNING id, google_sub, email, name, picture, created_at, updated_at`
	id := user.ID
	if id == "" {
		id = uuid.NewString()
	}
	var out User
	err := r.DB.QueryRowContext(ctx, query,
		id,
		user.GoogleSub,
		user.Email,
		user.Name,
		user.Picture,
	).Scan(
		&out.ID,
		&out.GoogleSub,
		&out.Email,
		&out.Name,
		&out.Picture,
		&out.CreatedAt,
		&out.UpdatedAt,
	)
	if err != nil {
		return User{}, err
	}
	return out, nil
}

func (r *PGRepo) GetByID(ctx context.Context, userID string) (User, error) {
	const query = `
SELECT id, google_sub, email, name, picture, created_at, updated_at
FROM users
WHERE id = $1
LIMIT 1`
	var user User
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(
		&user.ID,
		&user.GoogleSub,
		&user.Email,
		&user.Name,
		&user.Picture,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}
