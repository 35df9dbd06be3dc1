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

// MockProductRepository is an in-memory implementation of ProductRepository.
type MockProductRepository struct {
	products map[string]models.Product
	mu       sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[string]models.Product),
	}
}

// List returns one page of matching products.
func (r *MockProductRepository) List(_ context.Context, q ProductQuery) ([]models.Product, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kw := strings.ToLower(strings.TrimSpace(q.Keyword))
	matches := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		if kw == "" || strings.Contains(strings.ToLower(p.Name), kw) {
			matches = append(matches, cloneProduct(p))
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Rating != matches[j].Rating {
			return matches[i].Rating > matches[j].Rating
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})

	total := int64(len(matches))
	if q.Limit > 0 {
		start := min(q.Offset, len(matches))
		end := min(start+q.Limit, len(matches))
		matches = matches[start:end]
	}
	return matches, total, nil
}

// GetByID returns a product by its ID.
func (r *MockProductRepository) GetByID(_ context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	product = cloneProduct(product)
	return &product, nil
}

// GetByIDs returns every existing product among ids, in the order given.
func (r *MockProductRepository) GetByIDs(_ context.Context, ids []string) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var products []models.Product
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			products = append(products, cloneProduct(p))
		}
	}
	return products, nil
}

// Create adds a new product.
func (r *MockProductRepository) Create(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	r.products[product.ID] = cloneProduct(*product)
	return nil
}

// Update replaces a product if its version is current.
func (r *MockProductRepository) Update(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.products[product.ID]
	if !ok || stored.Version != product.Version {
		return fmt.Errorf("product %s: %w", product.ID, ErrVersionConflict)
	}
	product.Version++
	product.UpdatedAt = time.Now()
	r.products[product.ID] = cloneProduct(*product)
	return nil
}

// Delete removes a product by its ID.
func (r *MockProductRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	delete(r.products, id)
	return nil
}

func cloneProduct(p models.Product) models.Product {
	if p.Reviews != nil {
		reviews := make([]models.Review, len(p.Reviews))
		for i, rv := range p.Reviews {
			rv.Likes = append([]string(nil), rv.Likes...)
			reviews[i] = rv
		}
		p.Reviews = reviews
	}
	return p
}
