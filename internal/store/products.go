package store

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralises LIKE wildcards so a keyword such as "100%" matches
// the literal text instead of acting as a pattern.
func escapeLike(keyword string) string {
	return likeEscaper.Replace(keyword)
}

// Product is a row in the products table. Rating and NumReviews are derived
// aggregates maintained by the review transaction, never edited directly.
type Product struct {
	ID           pgtype.UUID
	UserID       pgtype.UUID
	Name         string
	Image        string
	Brand        string
	Category     string
	Description  string
	Price        float64
	CountInStock int
	Rating       float64
	NumReviews   int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const productColumns = `id, user_id, name, image, brand, category, description,
	price, count_in_stock, rating, num_reviews, created_at, updated_at`

// ListProducts returns a page of products whose name contains the keyword
// (case-insensitive). An empty keyword matches everything.
func (s *Store) ListProducts(ctx context.Context, keyword string, limit, offset int32) ([]Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3`, escapeLike(keyword), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// CountProducts counts products matching the keyword filter.
func (s *Store) CountProducts(ctx context.Context, keyword string) (int64, error) {
	var total int64
	err := s.pool.QueryRow(ctx, `
		SELECT count(*) FROM products
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')`, escapeLike(keyword)).Scan(&total)
	return total, err
}

// GetProduct fetches a single product by id.
func (s *Store) GetProduct(ctx context.Context, id pgtype.UUID) (Product, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

// GetProductsByIDs fetches the products for the given identifiers. Missing
// ids are simply absent from the result.
func (s *Store) GetProductsByIDs(ctx context.Context, ids []pgtype.UUID) ([]Product, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// ProductInput carries the fields of a new product.
type ProductInput struct {
	UserID       pgtype.UUID
	Name         string
	Image        string
	Brand        string
	Category     string
	Description  string
	Price        float64
	CountInStock int
}

// CreateProduct inserts a product owned by the given admin user.
func (s *Store) CreateProduct(ctx context.Context, in ProductInput) (Product, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO products (user_id, name, image, brand, category, description, price, count_in_stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+productColumns,
		in.UserID, in.Name, in.Image, in.Brand, in.Category, in.Description, in.Price, in.CountInStock)
	return scanProduct(row)
}

// ProductPatch captures a partial product update. Nil fields keep the stored
// value; non-nil fields are applied even when they hold a zero value, so a
// stock count of 0 or an empty brand can be written.
type ProductPatch struct {
	Name         *string
	Image        *string
	Brand        *string
	Category     *string
	Description  *string
	Price        *float64
	CountInStock *int
}

// UpdateProduct applies the patch and returns the updated row.
func (s *Store) UpdateProduct(ctx context.Context, id pgtype.UUID, patch ProductPatch) (Product, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE products SET
			name = COALESCE($2, name),
			image = COALESCE($3, image),
			brand = COALESCE($4, brand),
			category = COALESCE($5, category),
			description = COALESCE($6, description),
			price = COALESCE($7, price),
			count_in_stock = COALESCE($8, count_in_stock),
			updated_at = now()
		WHERE id = $1
		RETURNING `+productColumns,
		id, patch.Name, patch.Image, patch.Brand, patch.Category,
		patch.Description, patch.Price, patch.CountInStock)
	return scanProduct(row)
}

// DeleteProduct removes a product and, via cascade, its reviews. It reports
// whether a row was deleted.
func (s *Store) DeleteProduct(ctx context.Context, id pgtype.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanProduct(row rowScanner) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Image, &p.Brand, &p.Category,
		&p.Description, &p.Price, &p.CountInStock, &p.Rating, &p.NumReviews,
		&p.CreatedAt, &p.UpdatedAt)
	return p, err
}
