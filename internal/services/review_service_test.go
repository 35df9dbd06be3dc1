package services_test

import (
	"context"
	"testing"

	"rempah/internal/models"
	"rempah/internal/repositories"
	"rempah/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReviewFixture(t *testing.T) (*services.ReviewService, *repositories.MockProductRepository, *models.Product) {
	t.Helper()
	products := repositories.NewMockProductRepository()
	p := seedProduct(products, &models.Product{Name: "Garam Masala", Price: 120})
	return services.NewReviewService(products), products, p
}

func TestReviewService_AggregateFollowsReviews(t *testing.T) {
	svc, _, p := newReviewFixture(t)
	ctx := context.Background()
	u1 := &models.User{ID: "u1", Name: "Asha"}
	u2 := &models.User{ID: "u2", Name: "Ravi"}
	u3 := &models.User{ID: "u3", Name: "Meera"}

	_, err := svc.CreateReview(ctx, p.ID, u1, services.ReviewInput{Rating: 4, Comment: "good"})
	require.NoError(t, err)
	_, err = svc.CreateReview(ctx, p.ID, u2, services.ReviewInput{Rating: 5})
	require.NoError(t, err)
	got, err := svc.CreateReview(ctx, p.ID, u3, services.ReviewInput{Rating: 3})
	require.NoError(t, err)
	assert.Equal(t, 4.0, got.Rating)
	assert.Equal(t, 3, got.NumReviews)
	assert.Equal(t, "Asha", got.Reviews[0].Name)

	got, err = svc.DeleteReview(ctx, p.ID, u2)
	require.NoError(t, err)
	assert.Equal(t, 3.5, got.Rating)
	assert.Equal(t, 2, got.NumReviews)

	got, err = svc.UpdateReview(ctx, p.ID, u3, services.ReviewInput{Rating: 1, Comment: "too hot"})
	require.NoError(t, err)
	assert.Equal(t, 2.5, got.Rating)
	assert.Equal(t, "too hot", got.ReviewByUser("u3").Comment)

	_, err = svc.DeleteReview(ctx, p.ID, u1)
	require.NoError(t, err)
	got, err = svc.DeleteReview(ctx, p.ID, u3)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.Rating)
	assert.Equal(t, 0, got.NumReviews)
}

func TestReviewService_OneReviewPerUser(t *testing.T) {
	svc, products, p := newReviewFixture(t)
	ctx := context.Background()
	u := &models.User{ID: "u1", Name: "Asha"}

	_, err := svc.CreateReview(ctx, p.ID, u, services.ReviewInput{Rating: 4})
	require.NoError(t, err)
	_, err = svc.CreateReview(ctx, p.ID, u, services.ReviewInput{Rating: 2})
	assert.ErrorIs(t, err, services.ErrAlreadyReviewed)

	stored, err := products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.NumReviews)
	assert.Equal(t, 4.0, stored.Rating)
}

func TestReviewService_Errors(t *testing.T) {
	svc, _, p := newReviewFixture(t)
	ctx := context.Background()
	u := &models.User{ID: "u1"}

	_, err := svc.CreateReview(ctx, "missing", u, services.ReviewInput{Rating: 3})
	assert.ErrorIs(t, err, services.ErrProductNotFound)

	_, err = svc.CreateReview(ctx, p.ID, u, services.ReviewInput{Rating: 6})
	assert.ErrorIs(t, err, services.ErrInvalidRating)

	_, err = svc.UpdateReview(ctx, p.ID, u, services.ReviewInput{Rating: 3})
	assert.ErrorIs(t, err, services.ErrReviewNotFound)

	_, err = svc.DeleteReview(ctx, p.ID, u)
	assert.ErrorIs(t, err, services.ErrReviewNotFound)

	_, err = svc.ToggleReviewLike(ctx, p.ID, "nope", u)
	assert.ErrorIs(t, err, services.ErrReviewNotFound)
}

func TestReviewService_ToggleReviewLike(t *testing.T) {
	svc, _, p := newReviewFixture(t)
	ctx := context.Background()
	author := &models.User{ID: "u1", Name: "Asha"}
	fan := &models.User{ID: "u2", Name: "Ravi"}

	got, err := svc.CreateReview(ctx, p.ID, author, services.ReviewInput{Rating: 5})
	require.NoError(t, err)
	reviewID := got.Reviews[0].ID

	res, err := svc.ToggleReviewLike(ctx, p.ID, reviewID, fan)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.Equal(t, []string{"u2"}, res.Likes)

	res, err = svc.ToggleReviewLike(ctx, p.ID, reviewID, author)
	require.NoError(t, err)
	assert.True(t, res.Liked, "authors may like their own review")
	assert.ElementsMatch(t, []string{"u1", "u2"}, res.Likes)

	res, err = svc.ToggleReviewLike(ctx, p.ID, reviewID, fan)
	require.NoError(t, err)
	assert.False(t, res.Liked)
	assert.Equal(t, []string{"u1"}, res.Likes)
}

func TestReviewService_RetriesLostRace(t *testing.T) {
	products := repositories.NewMockProductRepository()
	p := seedProduct(products, &models.Product{Name: "Hing"})
	svc := services.NewReviewService(&racingProductRepository{MockProductRepository: products})

	got, err := svc.CreateReview(context.Background(), p.ID, &models.User{ID: "u1", Name: "Asha"}, services.ReviewInput{Rating: 5})
	require.NoError(t, err)

	assert.Equal(t, 2, got.NumReviews, "concurrent review is not lost")
	assert.Equal(t, 3.0, got.Rating)
}
