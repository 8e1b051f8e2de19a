package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Category is a row in the categories table.
type Category struct {
	ID        pgtype.UUID
	Name      string
	CreatedAt time.Time
}

// ListCategories returns every category ordered by name.
func (s *Store) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, created_at FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var cats []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// CreateCategory inserts a category by name.
func (s *Store) CreateCategory(ctx context.Context, name string) (Category, error) {
	var c Category
	err := s.pool.QueryRow(ctx, `
		INSERT INTO categories (name) VALUES ($1)
		RETURNING id, name, created_at`, name).
		Scan(&c.ID, &c.Name, &c.CreatedAt)
	return c, err
}

// DeleteCategory removes a category. It reports whether a row was deleted.
func (s *Store) DeleteCategory(ctx context.Context, id pgtype.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
