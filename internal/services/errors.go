package services

import (
	"context"
	"errors"
	"fmt"

	"rempah/internal/metrics"
	"rempah/internal/repositories"
)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrProductNotFound      = errors.New("product not found")
	ErrReviewNotFound       = errors.New("review not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrAlreadyReviewed      = errors.New("product already reviewed")
	ErrInvalidStatus        = errors.New("invalid order status")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrInvalidOrExpiredCode = errors.New("invalid or expired code")
	ErrInvalidResetToken    = errors.New("invalid or expired reset token")
	ErrEmailTaken           = errors.New("user already exists with this email")
	ErrForbidden            = errors.New("not authorized")
	ErrEmptyOrder           = errors.New("no order items")
	ErrInvalidRating        = errors.New("rating must be between 1 and 5")
)

// maxWriteAttempts bounds the read-modify-write retries on version conflicts.
const maxWriteAttempts = 3

// withRetry runs fn until it succeeds, fails with something other than a
// version conflict, or runs out of attempts. fn must re-read the record.
func withRetry(ctx context.Context, entity string, fn func() error) error {
	var err error
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		if err = fn(); !errors.Is(err, repositories.ErrVersionConflict) {
			return err
		}
		metrics.OptimisticConflicts.WithLabelValues(entity).Inc()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	return fmt.Errorf("giving up after %d attempts: %w", maxWriteAttempts, err)
}

// notFound translates a repository miss into the domain error sentinel.
func notFound(err, sentinel error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return sentinel
	}
	return err
}
