package reviews

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/satriajanaka/backend-mart/internal/common"
	"github.com/satriajanaka/backend-mart/internal/obs"
	"github.com/satriajanaka/backend-mart/internal/store"
)

type queryProvider interface {
	AddReview(ctx context.Context, productID, userID pgtype.UUID, name string, rating int, comment string) (store.Product, error)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context)
}

// Service applies reviews to products. The store serialises concurrent
// submissions for the same product, so the stored rating is always the exact
// mean over the review rows.
type Service struct {
	queries queryProvider
	cache   cacheInvalidator
	metrics *obs.OrderMetrics
	log     zerolog.Logger
}

// NewService constructs a review service. The cache is invalidated after a
// committed review so cached product detail never serves stale aggregates; a
// nil cache disables that step.
func NewService(queries queryProvider, cache cacheInvalidator, metrics *obs.OrderMetrics, log zerolog.Logger) (*Service, error) {
	if queries == nil {
		return nil, errors.New("reviews: queries are required")
	}
	return &Service{queries: queries, cache: cache, metrics: metrics, log: log}, nil
}

// Input carries one review submission.
type Input struct {
	Rating  int
	Comment string
}

// Add records the caller's review and refreshes the product aggregates.
// A second review from the same user is rejected.
func (s *Service) Add(ctx context.Context, productID string, caller common.Identity, in Input) error {
	if in.Rating < 1 || in.Rating > 5 {
		return common.BadRequest("rating must be between 1 and 5")
	}
	pid, err := store.ToUUID(productID)
	if err != nil {
		return common.NotFound("Product not found")
	}
	uid, err := store.ToUUID(caller.ID)
	if err != nil {
		return common.Unauthorized("unauthorized")
	}
	product, err := s.queries.AddReview(ctx, pid, uid, caller.Name, in.Rating, in.Comment)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateReview) {
			return common.BadRequest("Product already reviewed")
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return common.NotFound("Product not found")
		}
		return err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	if s.metrics != nil {
		s.metrics.Reviewed.Inc()
	}
	s.log.Info().
		Str("product_id", productID).
		Str("user_id", caller.ID).
		Int("rating", in.Rating).
		Float64("product_rating", product.Rating).
		Int("num_reviews", product.NumReviews).
		Msg("review added")
	return nil
}
