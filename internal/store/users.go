package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// User is a row in the users table.
type User struct {
	ID           pgtype.UUID
	Name         string
	Email        string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const userColumns = `id, name, email, password_hash, is_admin, created_at, updated_at`

// CreateUser inserts a user and returns the stored row.
func (s *Store) CreateUser(ctx context.Context, name, email, passwordHash string, isAdmin bool) (User, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, is_admin)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		name, email, passwordHash, isAdmin)
	return scanUser(row)
}

// GetUserByEmail fetches a user by email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// GetUserByID fetches a user by identifier.
func (s *Store) GetUserByID(ctx context.Context, id pgtype.UUID) (User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// UserPatch captures a partial user update. Nil fields are left untouched;
// non-nil zero values are applied.
type UserPatch struct {
	Name         *string
	Email        *string
	PasswordHash *string
	IsAdmin      *bool
}

// UpdateUser applies the patch and returns the updated row.
func (s *Store) UpdateUser(ctx context.Context, id pgtype.UUID, patch UserPatch) (User, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE users SET
			name = COALESCE($2, name),
			email = COALESCE($3, email),
			password_hash = COALESCE($4, password_hash),
			is_admin = COALESCE($5, is_admin),
			updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns,
		id, patch.Name, patch.Email, patch.PasswordHash, patch.IsAdmin)
	return scanUser(row)
}

// DeleteUser removes a user row. It reports whether a row was deleted.
func (s *Store) DeleteUser(ctx context.Context, id pgtype.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListUsers returns users ordered by creation time.
func (s *Store) ListUsers(ctx context.Context, limit, offset int32) ([]User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+userColumns+` FROM users
		ORDER BY created_at ASC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CountUsers returns the total number of users.
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var total int64
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&total)
	return total, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
