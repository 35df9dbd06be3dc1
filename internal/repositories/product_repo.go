package repositories

import (
	"context"

	"rempah/internal/models"
)

// ProductQuery filters and pages a product listing.
type ProductQuery struct {
	Keyword string // case-insensitive substring of the name
	Limit   int
	Offset  int
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	// List returns one page of matching products sorted by rating, and the
	// number of matches across all pages.
	List(ctx context.Context, q ProductQuery) ([]models.Product, int64, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	// Update saves every field of product if its Version still matches the
	// stored one, and increments Version.
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
}
