package repositories

import (
	"context"
	"errors"
	"fmt"

	"rempah/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

// List returns every order, newest first.
func (r *GORMOrderRepository) List(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.WithContext(ctx).Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// ListByUser returns the orders placed by userID, newest first.
func (r *GORMOrderRepository) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc").Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders of user %s: %w", userID, err)
	}
	return orders, nil
}

// GetByID retrieves a single order by its ID.
func (r *GORMOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order %s: %w", id, err)
	}
	return &order, nil
}

// Create inserts a new order.
func (r *GORMOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// Update saves order guarded by its version.
func (r *GORMOrderRepository) Update(ctx context.Context, order *models.Order) error {
	return updateVersioned(r.db.WithContext(ctx), order, &order.Version, "order", order.ID)
}

// Stats sums the order count and the total of every order.
func (r *GORMOrderRepository) Stats(ctx context.Context) (OrderStats, error) {
	var stats OrderStats
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("COUNT(*) AS total_orders, COALESCE(SUM(total_price), 0) AS total_sales").
		Scan(&stats).Error
	if err != nil {
		return OrderStats{}, fmt.Errorf("failed to compute order stats: %w", err)
	}
	return stats, nil
}

// updateVersioned writes every column of model where the row still carries
// *version, then bumps *version. A miss is reported as ErrVersionConflict.
func updateVersioned(db *gorm.DB, model any, version *int, kind, id string) error {
	prev := *version
	*version = prev + 1
	res := db.Model(model).Where("version = ?", prev).Select("*").Updates(model)
	if res.Error != nil {
		*version = prev
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%s %s: %w", kind, id, ErrDuplicate)
		}
		return fmt.Errorf("failed to update %s %s: %w", kind, id, res.Error)
	}
	if res.RowsAffected == 0 {
		*version = prev
		return fmt.Errorf("%s %s: %w", kind, id, ErrVersionConflict)
	}
	return nil
}
