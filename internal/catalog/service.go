package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/satriajanaka/backend-mart/internal/common"
	"github.com/satriajanaka/backend-mart/internal/store"
)

// DefaultPageSize is the storefront page size. The web client renders a
// fixed three-column grid, so the server pages in threes.
const DefaultPageSize = 3

type queryProvider interface {
	ListProducts(ctx context.Context, keyword string, limit, offset int32) ([]store.Product, error)
	CountProducts(ctx context.Context, keyword string) (int64, error)
	GetProduct(ctx context.Context, id pgtype.UUID) (store.Product, error)
	CreateProduct(ctx context.Context, in store.ProductInput) (store.Product, error)
	UpdateProduct(ctx context.Context, id pgtype.UUID, patch store.ProductPatch) (store.Product, error)
	DeleteProduct(ctx context.Context, id pgtype.UUID) (bool, error)
	ListReviewsByProduct(ctx context.Context, productID pgtype.UUID) ([]store.Review, error)
	ListCategories(ctx context.Context) ([]store.Category, error)
	CreateCategory(ctx context.Context, name string) (store.Category, error)
	DeleteCategory(ctx context.Context, id pgtype.UUID) (bool, error)
}

// Service orchestrates catalog queries, DTO assembly, and caching.
type Service struct {
	queries  queryProvider
	cache    *Cache
	pageSize int
	log      zerolog.Logger
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Queries  queryProvider
	Cache    *Cache
	PageSize int
	Logger   zerolog.Logger
}

// NewService constructs a catalog service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("catalog: queries are required")
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Service{
		queries:  cfg.Queries,
		cache:    cfg.Cache,
		pageSize: pageSize,
		log:      cfg.Logger,
	}, nil
}

// Product is the public product payload. Reviews is populated on detail
// responses only.
type Product struct {
	ID           string    `json:"id"`
	User         string    `json:"user"`
	Name         string    `json:"name"`
	Image        string    `json:"image"`
	Brand        string    `json:"brand"`
	Category     string    `json:"category"`
	Description  string    `json:"description"`
	Price        float64   `json:"price"`
	CountInStock int       `json:"countInStock"`
	Rating       float64   `json:"rating"`
	NumReviews   int       `json:"numReviews"`
	Reviews      []Review  `json:"reviews,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Review is the public review payload embedded in product detail.
type Review struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Name      string    `json:"name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListResult carries one storefront page of products.
type ListResult struct {
	Products []Product `json:"products"`
	Page     int       `json:"page"`
	Pages    int       `json:"pages"`
}

// List returns a page of products matching keyword. Results for a given
// keyword and page are cached until the catalog changes.
func (s *Service) List(ctx context.Context, keyword string, page int) (ListResult, error) {
	if page < 1 {
		page = 1
	}
	cacheKey := s.cache.Key(ctx, "list", keyword, page)
	var cached ListResult
	if hit, err := s.cache.GetJSON(ctx, cacheKey, &cached); err == nil && hit {
		return cached, nil
	} else if err != nil {
		s.log.Warn().Err(err).Msg("catalog cache read failed")
	}

	offset := int32((page - 1) * s.pageSize)
	rows, err := s.queries.ListProducts(ctx, keyword, int32(s.pageSize), offset)
	if err != nil {
		return ListResult{}, err
	}
	total, err := s.queries.CountProducts(ctx, keyword)
	if err != nil {
		return ListResult{}, err
	}
	result := ListResult{
		Products: make([]Product, 0, len(rows)),
		Page:     page,
		Pages:    common.PageCount(total, s.pageSize),
	}
	for _, row := range rows {
		result.Products = append(result.Products, toProduct(row))
	}
	if err := s.cache.SetJSON(ctx, cacheKey, result); err != nil {
		s.log.Warn().Err(err).Msg("catalog cache write failed")
	}
	return result, nil
}

// Get returns one product with its reviews attached.
func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	pid, err := store.ToUUID(id)
	if err != nil {
		return Product{}, common.NotFound("Product not found")
	}
	cacheKey := s.cache.Key(ctx, "product", id)
	var cached Product
	if hit, err := s.cache.GetJSON(ctx, cacheKey, &cached); err == nil && hit {
		return cached, nil
	}

	row, err := s.queries.GetProduct(ctx, pid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, common.NotFound("Product not found")
		}
		return Product{}, err
	}
	reviews, err := s.queries.ListReviewsByProduct(ctx, pid)
	if err != nil {
		return Product{}, err
	}
	product := toProduct(row)
	product.Reviews = make([]Review, 0, len(reviews))
	for _, rv := range reviews {
		product.Reviews = append(product.Reviews, toReview(rv))
	}
	if err := s.cache.SetJSON(ctx, cacheKey, product); err != nil {
		s.log.Warn().Err(err).Msg("catalog cache write failed")
	}
	return product, nil
}

// CreateInput carries the fields of a new product.
type CreateInput struct {
	Name         string
	Image        string
	Brand        string
	Category     string
	Description  string
	Price        float64
	CountInStock int
}

// Create inserts a product owned by the calling admin.
func (s *Service) Create(ctx context.Context, adminID string, in CreateInput) (Product, error) {
	uid, err := store.ToUUID(adminID)
	if err != nil {
		return Product{}, common.Unauthorized("unauthorized")
	}
	row, err := s.queries.CreateProduct(ctx, store.ProductInput{
		UserID:       uid,
		Name:         in.Name,
		Image:        in.Image,
		Brand:        in.Brand,
		Category:     in.Category,
		Description:  in.Description,
		Price:        in.Price,
		CountInStock: in.CountInStock,
	})
	if err != nil {
		return Product{}, err
	}
	s.cache.Invalidate(ctx)
	return toProduct(row), nil
}

// Patch carries a partial product update. Nil fields keep the stored value;
// present fields are applied even when zero, so stock can legitimately be
// set back to 0.
type Patch struct {
	Name         *string
	Image        *string
	Brand        *string
	Category     *string
	Description  *string
	Price        *float64
	CountInStock *int
}

// Update applies the patch to a product.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (Product, error) {
	pid, err := store.ToUUID(id)
	if err != nil {
		return Product{}, common.NotFound("Product not found")
	}
	row, err := s.queries.UpdateProduct(ctx, pid, store.ProductPatch{
		Name:         patch.Name,
		Image:        patch.Image,
		Brand:        patch.Brand,
		Category:     patch.Category,
		Description:  patch.Description,
		Price:        patch.Price,
		CountInStock: patch.CountInStock,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, common.NotFound("Product not found")
		}
		return Product{}, err
	}
	s.cache.Invalidate(ctx)
	return toProduct(row), nil
}

// Delete removes a product and its reviews.
func (s *Service) Delete(ctx context.Context, id string) error {
	pid, err := store.ToUUID(id)
	if err != nil {
		return common.NotFound("Product not found")
	}
	deleted, err := s.queries.DeleteProduct(ctx, pid)
	if err != nil {
		return err
	}
	if !deleted {
		return common.NotFound("Product not found")
	}
	s.cache.Invalidate(ctx)
	return nil
}

// Category is the public category payload.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Categories lists every category.
func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	rows, err := s.queries.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	categories := make([]Category, 0, len(rows))
	for _, row := range rows {
		categories = append(categories, Category{
			ID:   store.UUIDString(row.ID),
			Name: row.Name,
		})
	}
	return categories, nil
}

// AddCategory creates a category.
func (s *Service) AddCategory(ctx context.Context, name string) (Category, error) {
	if name == "" {
		return Category{}, common.BadRequest("category name is required")
	}
	row, err := s.queries.CreateCategory(ctx, name)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return Category{}, common.BadRequest("category already exists")
		}
		return Category{}, err
	}
	return Category{ID: store.UUIDString(row.ID), Name: row.Name}, nil
}

// DeleteCategory removes a category.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	cid, err := store.ToUUID(id)
	if err != nil {
		return common.NotFound("category not found")
	}
	deleted, err := s.queries.DeleteCategory(ctx, cid)
	if err != nil {
		return err
	}
	if !deleted {
		return common.NotFound("category not found")
	}
	return nil
}

func toProduct(row store.Product) Product {
	return Product{
		ID:           store.UUIDString(row.ID),
		User:         store.UUIDString(row.UserID),
		Name:         row.Name,
		Image:        row.Image,
		Brand:        row.Brand,
		Category:     row.Category,
		Description:  row.Description,
		Price:        row.Price,
		CountInStock: row.CountInStock,
		Rating:       row.Rating,
		NumReviews:   row.NumReviews,
		CreatedAt:    row.CreatedAt,
	}
}

func toReview(row store.Review) Review {
	return Review{
		ID:        store.UUIDString(row.ID),
		User:      store.UUIDString(row.UserID),
		Name:      row.Name,
		Rating:    row.Rating,
		Comment:   row.Comment,
		CreatedAt: row.CreatedAt,
	}
}
