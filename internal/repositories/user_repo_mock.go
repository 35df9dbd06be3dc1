package repositories

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"rempah/internal/models"

	"github.com/google/uuid"
)

// MockUserRepository is an in-memory implementation of UserRepository.
type MockUserRepository struct {
	users map[string]models.User
	mu    sync.RWMutex
}

// NewMockUserRepository creates a new instance of MockUserRepository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]models.User),
	}
}

// Create adds a new user. Emails are unique.
func (r *MockUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user.Email = strings.ToLower(user.Email)
	for _, u := range r.users {
		if u.Email == user.Email {
			return fmt.Errorf("user %s: %w", user.Email, ErrDuplicate)
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = cloneUser(*user)
	return nil
}

// GetByEmail returns the user with the given email.
func (r *MockUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	email = strings.ToLower(email)
	return r.find(func(u models.User) bool { return u.Email == email }, email)
}

// GetByID returns the user with the given id.
func (r *MockUserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	user = cloneUser(user)
	return &user, nil
}

// GetByResetTokenHash returns the user holding the reset token hash.
func (r *MockUserRepository) GetByResetTokenHash(_ context.Context, hash string) (*models.User, error) {
	return r.find(func(u models.User) bool { return hash != "" && u.ResetTokenHash == hash }, "reset token")
}

func (r *MockUserRepository) find(match func(models.User) bool, what string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if match(u) {
			u = cloneUser(u)
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", what, ErrNotFound)
}

// Update replaces a user if its version is current.
func (r *MockUserRepository) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[user.ID]
	if !ok || stored.Version != user.Version {
		return fmt.Errorf("user %s: %w", user.ID, ErrVersionConflict)
	}
	user.Email = strings.ToLower(user.Email)
	for id, u := range r.users {
		if id != user.ID && u.Email == user.Email {
			return fmt.Errorf("user %s: %w", user.Email, ErrDuplicate)
		}
	}
	user.Version++
	user.UpdatedAt = time.Now()
	r.users[user.ID] = cloneUser(*user)
	return nil
}

// List returns every user, oldest first.
func (r *MockUserRepository) List(_ context.Context) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, cloneUser(u))
	}
	sort.SliceStable(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

// Count returns the number of users.
func (r *MockUserRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.users)), nil
}

func cloneUser(u models.User) models.User {
	u.Wishlist = append([]string(nil), u.Wishlist...)
	if u.TwoFactorCodeExpire != nil {
		t := *u.TwoFactorCodeExpire
		u.TwoFactorCodeExpire = &t
	}
	if u.ResetTokenExpire != nil {
		t := *u.ResetTokenExpire
		u.ResetTokenExpire = &t
	}
	return u
}
