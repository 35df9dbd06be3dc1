package services

import (
	"context"
	"time"

	"rempah/internal/metrics"
	"rempah/internal/models"
	"rempah/internal/repositories"

	"github.com/google/uuid"
)

// ReviewInput is the user-editable part of a review.
type ReviewInput struct {
	Rating  int
	Comment string
}

// LikeResult reports the like state of a review after a toggle.
type LikeResult struct {
	Liked bool     `json:"liked"`
	Likes []string `json:"likes"`
}

// ReviewService maintains product reviews together with the product's
// rating and review count.
type ReviewService struct {
	products repositories.ProductRepository
	now      func() time.Time
}

// NewReviewService creates a new ReviewService.
func NewReviewService(products repositories.ProductRepository) *ReviewService {
	return &ReviewService{products: products, now: time.Now}
}

// CreateReview adds actor's review to the product. A user reviews a product once.
func (s *ReviewService) CreateReview(ctx context.Context, productID string, actor *models.User, in ReviewInput) (*models.Product, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, ErrInvalidRating
	}
	p, err := s.mutate(ctx, productID, func(p *models.Product) error {
		if p.ReviewByUser(actor.ID) != nil {
			return ErrAlreadyReviewed
		}
		now := s.now()
		p.Reviews = append(p.Reviews, models.Review{
			ID:        uuid.New().String(),
			Name:      actor.Name,
			Rating:    in.Rating,
			Comment:   in.Comment,
			UserID:    actor.ID,
			Likes:     []string{},
			CreatedAt: now,
			UpdatedAt: now,
		})
		p.RecomputeRating()
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.ReviewMutations.WithLabelValues("create").Inc()
	return p, nil
}

// UpdateReview overwrites the rating and comment of actor's review.
func (s *ReviewService) UpdateReview(ctx context.Context, productID string, actor *models.User, in ReviewInput) (*models.Product, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, ErrInvalidRating
	}
	p, err := s.mutate(ctx, productID, func(p *models.Product) error {
		r := p.ReviewByUser(actor.ID)
		if r == nil {
			return ErrReviewNotFound
		}
		r.Rating = in.Rating
		r.Comment = in.Comment
		r.UpdatedAt = s.now()
		p.RecomputeRating()
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.ReviewMutations.WithLabelValues("update").Inc()
	return p, nil
}

// DeleteReview removes actor's review.
func (s *ReviewService) DeleteReview(ctx context.Context, productID string, actor *models.User) (*models.Product, error) {
	p, err := s.mutate(ctx, productID, func(p *models.Product) error {
		if !p.RemoveReviewsByUser(actor.ID) {
			return ErrReviewNotFound
		}
		p.RecomputeRating()
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.ReviewMutations.WithLabelValues("delete").Inc()
	return p, nil
}

// ToggleReviewLike likes the review for actor, or withdraws the like.
// Authors may like their own review.
func (s *ReviewService) ToggleReviewLike(ctx context.Context, productID, reviewID string, actor *models.User) (LikeResult, error) {
	var res LikeResult
	_, err := s.mutate(ctx, productID, func(p *models.Product) error {
		r := p.ReviewByID(reviewID)
		if r == nil {
			return ErrReviewNotFound
		}
		res.Liked = r.ToggleLike(actor.ID)
		res.Likes = append([]string{}, r.Likes...)
		return nil
	})
	if err != nil {
		return LikeResult{}, err
	}
	if res.Liked {
		metrics.ReviewMutations.WithLabelValues("like").Inc()
	} else {
		metrics.ReviewMutations.WithLabelValues("unlike").Inc()
	}
	return res, nil
}

// mutate loads the product, applies fn and saves it, retrying the whole
// cycle when another writer got there first.
func (s *ReviewService) mutate(ctx context.Context, productID string, fn func(*models.Product) error) (*models.Product, error) {
	var p *models.Product
	err := withRetry(ctx, "product", func() error {
		var err error
		p, err = s.products.GetByID(ctx, productID)
		if err != nil {
			return notFound(err, ErrProductNotFound)
		}
		if err := fn(p); err != nil {
			return err
		}
		return s.products.Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}
