package users

import (
	"context"
	"database/sql"
	"errors"
)

const userColumns = `id, email, full_name, given_name, family_name, picture_url, sign_in_count, last_sign_in_at, created_at, updated_at`

// PGRepo stores users in the Postgres users table.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) RecordSignIn(ctx context.Context, profile User) (User, error) {
	// Empty profile fields arrive as NULL and keep the stored value.
	const query = `
INSERT INTO users (id, email, full_name, given_name, family_name, picture_url, sign_in_count, last_sign_in_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, 1, now(), now(), now())
ON CONFLICT (id) DO UPDATE SET
  email = EXCLUDED.email,
  full_name = COALESCE(EXCLUDED.full_name, users.full_name),
  given_name = COALESCE(EXCLUDED.given_name, users.given_name),
  family_name = COALESCE(EXCLUDED.family_name, users.family_name),
  picture_url = COALESCE(EXCLUDED.picture_url, users.picture_url),
  sign_in_count = users.sign_in_count + 1,
  last_sign_in_at = EXCLUDED.last_sign_in_at,
  updated_at = now()
RETURNING ` + userColumns
	row := r.DB.QueryRowContext(ctx, query,
		profile.ID,
		profile.Email,
		nullableString(profile.FullName),
		nullableString(profile.GivenName),
		nullableString(profile.FamilyName),
		nullableString(profile.PictureURL),
	)
	return scanUser(row)
}

func (r *PGRepo) GetByID(ctx context.Context, userID string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.DB.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return user, err
}

func scanUser(row *sql.Row) (User, error) {
	var user User
	var fullName, givenName, familyName, picture sql.NullString
	var lastSignIn sql.NullTime
	err := row.Scan(
		&user.ID,
		&user.Email,
		&fullName,
		&givenName,
		&familyName,
		&picture,
		&user.SignInCount,
		&lastSignIn,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return User{}, err
	}
	user.FullName = fullName.String
	user.GivenName = givenName.String
	user.FamilyName = familyName.String
	user.PictureURL = picture.String
	user.LastSignInAt = lastSignIn.Time
	return user, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
