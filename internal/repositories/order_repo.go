package repositories

import (
	"context"

	"rempah/internal/models"
)

// OrderStats is the admin dashboard summary.
type OrderStats struct {
	TotalOrders int64
	TotalSales  float64
}

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	List(ctx context.Context) ([]models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
	Create(ctx context.Context, order *models.Order) error
	// Update saves every field of order if its Version still matches the
	// stored one, and increments Version.
	Update(ctx context.Context, order *models.Order) error
	Stats(ctx context.Context) (OrderStats, error)
}
