package services_test

import (
	"context"
	"fmt"
	"testing"

	"rempah/internal/models"
	"rempah/internal/repositories"
	"rempah/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestUserService_UpdateProfile(t *testing.T) {
	users := repositories.NewMockUserRepository()
	svc := services.NewUserService(users, repositories.NewMockProductRepository())
	ctx := context.Background()
	u := seedUser(users, &models.User{Name: "Asha", Email: "asha@example.com", Password: "old"})
	seedUser(users, &models.User{Name: "Ravi", Email: "ravi@example.com"})

	got, err := svc.UpdateProfile(ctx, u.ID, services.ProfileUpdate{Name: "Asha K", Password: "new-password"})
	require.NoError(t, err)
	assert.Equal(t, "Asha K", got.Name)
	assert.Equal(t, "asha@example.com", got.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(got.Password), []byte("new-password")))

	_, err = svc.UpdateProfile(ctx, u.ID, services.ProfileUpdate{Email: "RAVI@example.com"})
	assert.ErrorIs(t, err, services.ErrEmailTaken)

	got, err = svc.UpdateProfile(ctx, u.ID, services.ProfileUpdate{Email: "asha@example.com"})
	require.NoError(t, err, "keeping one's own email is fine")
	assert.Equal(t, "Asha K", got.Name)

	_, err = svc.UpdateProfile(ctx, "missing", services.ProfileUpdate{Name: "x"})
	assert.ErrorIs(t, err, services.ErrUserNotFound)
}

func TestUserService_Wishlist(t *testing.T) {
	users := repositories.NewMockUserRepository()
	products := repositories.NewMockProductRepository()
	svc := services.NewUserService(users, products)
	ctx := context.Background()
	u := seedUser(users, &models.User{Email: "asha@example.com"})
	hing := seedProduct(products, &models.Product{Name: "Hing"})

	list, err := svc.GetWishlist(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	added, err := svc.ToggleWishlist(ctx, u.ID, hing.ID)
	require.NoError(t, err)
	assert.True(t, added)
	added, err = svc.ToggleWishlist(ctx, u.ID, "deleted-product")
	require.NoError(t, err)
	assert.True(t, added)

	list, err = svc.GetWishlist(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1, "missing products are skipped")
	assert.Equal(t, "Hing", list[0].Name)

	added, err = svc.ToggleWishlist(ctx, u.ID, hing.ID)
	require.NoError(t, err)
	assert.False(t, added)

	_, err = svc.ToggleWishlist(ctx, "missing", hing.ID)
	assert.ErrorIs(t, err, services.ErrUserNotFound)
}

func TestUserService_ListUsers(t *testing.T) {
	users := repositories.NewMockUserRepository()
	svc := services.NewUserService(users, repositories.NewMockProductRepository())
	seedUser(users, &models.User{Email: "a@example.com"})
	seedUser(users, &models.User{Email: "b@example.com"})

	list, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = svc.GetUser(context.Background(), "missing")
	assert.ErrorIs(t, err, services.ErrUserNotFound)
}

// staleEmailLookup misses every email lookup, as if the address was claimed
// after the check ran.
type staleEmailLookup struct {
	*repositories.MockUserRepository
}

func (staleEmailLookup) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return nil, fmt.Errorf("user %s: %w", email, repositories.ErrNotFound)
}

func TestUserService_UpdateProfile_EmailClaimedConcurrently(t *testing.T) {
	backing := repositories.NewMockUserRepository()
	svc := services.NewUserService(staleEmailLookup{backing}, repositories.NewMockProductRepository())
	ctx := context.Background()
	u := seedUser(backing, &models.User{Name: "Asha", Email: "asha@example.com"})
	seedUser(backing, &models.User{Name: "Ravi", Email: "ravi@example.com"})

	_, err := svc.UpdateProfile(ctx, u.ID, services.ProfileUpdate{Email: "ravi@example.com"})
	assert.ErrorIs(t, err, services.ErrEmailTaken)

	stored, err := backing.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", stored.Email)
}
