package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// ErrDuplicateReview is returned when a user already has a review on the
// product.
var ErrDuplicateReview = errors.New("store: product already reviewed by user")

// Review is a row in the reviews table. Name is a display-name snapshot taken
// at submission time.
type Review struct {
	ID        pgtype.UUID
	ProductID pgtype.UUID
	UserID    pgtype.UUID
	Name      string
	Rating    int
	Comment   string
	CreatedAt time.Time
}

// ListReviewsByProduct returns a product's reviews, oldest first.
func (s *Store) ListReviewsByProduct(ctx context.Context, productID pgtype.UUID) ([]Review, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, product_id, user_id, name, rating, comment, created_at
		FROM reviews WHERE product_id = $1
		ORDER BY created_at ASC`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var reviews []Review
	for rows.Next() {
		var rv Review
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.Name, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

// AddReview appends a review and recomputes the product's aggregate rating
// and review count in one transaction. A row lock on the product serialises
// concurrent submissions so the duplicate check and the recompute see a
// consistent review list; the UNIQUE (product_id, user_id) constraint
// backstops the check. Returns pgx.ErrNoRows when the product does not exist
// and ErrDuplicateReview when the user already reviewed it.
func (s *Store) AddReview(ctx context.Context, productID, userID pgtype.UUID, name string, rating int, comment string) (Product, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Product{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var locked pgtype.UUID
	if err := tx.QueryRow(ctx, `SELECT id FROM products WHERE id = $1 FOR UPDATE`, productID).Scan(&locked); err != nil {
		return Product{}, err
	}

	var exists bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM reviews WHERE product_id = $1 AND user_id = $2)`,
		productID, userID).Scan(&exists); err != nil {
		return Product{}, err
	}
	if exists {
		return Product{}, ErrDuplicateReview
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO reviews (product_id, user_id, name, rating, comment)
		VALUES ($1, $2, $3, $4, $5)`,
		productID, userID, name, rating, comment); err != nil {
		if IsUniqueViolation(err) {
			return Product{}, ErrDuplicateReview
		}
		return Product{}, err
	}

	row := tx.QueryRow(ctx, `
		UPDATE products p SET
			num_reviews = agg.cnt,
			rating = agg.mean,
			updated_at = now()
		FROM (
			SELECT count(*) AS cnt, avg(rating)::float8 AS mean
			FROM reviews WHERE product_id = $1
		) agg
		WHERE p.id = $1
		RETURNING `+productColumns, productID)
	product, err := scanProduct(row)
	if err != nil {
		return Product{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Product{}, err
	}
	return product, nil
}

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
