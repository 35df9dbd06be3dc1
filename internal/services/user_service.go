package services

import (
	"context"
	"errors"
	"strings"

	"rempah/internal/models"
	"rempah/internal/repositories"
)

// ProfileUpdate carries the fields a user may change on their account.
// Empty fields keep their stored value.
type ProfileUpdate struct {
	Name     string
	Email    string
	Password string
}

// UserService handles profiles, wishlists and the admin user listing.
type UserService struct {
	users    repositories.UserRepository
	products repositories.ProductRepository
}

// NewUserService creates a new UserService.
func NewUserService(users repositories.UserRepository, products repositories.ProductRepository) *UserService {
	return &UserService{users: users, products: products}
}

// GetUser returns the account with the given id.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return u, nil
}

// ListUsers returns every account.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

// UpdateProfile applies upd to the account. A new email must not belong to
// another account.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*models.User, error) {
	if upd.Email != "" {
		other, err := s.users.GetByEmail(ctx, upd.Email)
		switch {
		case err == nil && other.ID != userID:
			return nil, ErrEmailTaken
		case err != nil && !errors.Is(err, repositories.ErrNotFound):
			return nil, err
		}
	}

	var hash string
	if upd.Password != "" {
		var err error
		if hash, err = hashPassword(upd.Password); err != nil {
			return nil, err
		}
	}

	var user *models.User
	err := withRetry(ctx, "user", func() error {
		u, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return notFound(err, ErrUserNotFound)
		}
		if upd.Name != "" {
			u.Name = upd.Name
		}
		if upd.Email != "" {
			u.Email = strings.ToLower(upd.Email)
		}
		if hash != "" {
			u.Password = hash
		}
		if err := s.users.Update(ctx, u); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return ErrEmailTaken
			}
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ToggleWishlist adds productID to the user's wishlist or removes it, and
// reports whether it is on the list afterwards.
func (s *UserService) ToggleWishlist(ctx context.Context, userID, productID string) (bool, error) {
	var added bool
	err := withRetry(ctx, "user", func() error {
		u, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return notFound(err, ErrUserNotFound)
		}
		added = u.ToggleWishlist(productID)
		return s.users.Update(ctx, u)
	})
	return added, err
}

// GetWishlist returns the wishlisted products that still exist.
func (s *UserService) GetWishlist(ctx context.Context, userID string) ([]models.Product, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	if len(u.Wishlist) == 0 {
		return []models.Product{}, nil
	}
	products, err := s.products.GetByIDs(ctx, u.Wishlist)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}
