package services

import (
	"context"
	"fmt"

	"rempah/internal/models"
	"rempah/internal/repositories"
)

// ProductPage is one page of a catalogue listing.
type ProductPage struct {
	Products      []models.Product `json:"products"`
	Page          int              `json:"page"`
	Pages         int              `json:"pages"`
	TotalProducts int64            `json:"totalProducts"`
}

// ProductUpdate carries the fields an administrator may change. Nil or empty
// fields keep their stored value.
type ProductUpdate struct {
	Name        string
	Description string
	Category    string
	ImageURL    string
	Price       *float64
	InStock     *bool
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo     repositories.ProductRepository
	pageSize int
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, pageSize int) *ProductService {
	if pageSize <= 0 {
		pageSize = 8
	}
	return &ProductService{
		repo:     repo,
		pageSize: pageSize,
	}
}

// ListProducts returns one page of products whose name contains keyword,
// highest rated first. Pages are numbered from 1.
func (s *ProductService) ListProducts(ctx context.Context, keyword string, page int) (*ProductPage, error) {
	if page < 1 {
		page = 1
	}
	products, total, err := s.repo.List(ctx, repositories.ProductQuery{
		Keyword: keyword,
		Limit:   s.pageSize,
		Offset:  s.pageSize * (page - 1),
	})
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}
	pages := int((total + int64(s.pageSize) - 1) / int64(s.pageSize))
	return &ProductPage{Products: products, Page: page, Pages: pages, TotalProducts: total}, nil
}

// GetProduct retrieves a single product by its ID.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrProductNotFound)
	}
	return p, nil
}

// CreateProduct stores a placeholder product owned by adminID, to be edited
// afterwards.
func (s *ProductService) CreateProduct(ctx context.Context, adminID string) (*models.Product, error) {
	p := &models.Product{
		Name:        "Sample Name",
		Description: "Sample description",
		ImageURL:    "/images/placeholder.jpg",
		Category:    "Sample Category",
		InStock:     true,
		UserID:      adminID,
		Reviews:     []models.Review{},
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return p, nil
}

// UpdateProduct applies upd to the product. Reviews and rating are untouched.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, upd ProductUpdate) (*models.Product, error) {
	var p *models.Product
	err := withRetry(ctx, "product", func() error {
		var err error
		p, err = s.repo.GetByID(ctx, id)
		if err != nil {
			return notFound(err, ErrProductNotFound)
		}
		if upd.Name != "" {
			p.Name = upd.Name
		}
		if upd.Description != "" {
			p.Description = upd.Description
		}
		if upd.Category != "" {
			p.Category = upd.Category
		}
		if upd.ImageURL != "" {
			p.ImageURL = upd.ImageURL
		}
		if upd.Price != nil {
			p.Price = *upd.Price
		}
		if upd.InStock != nil {
			p.InStock = *upd.InStock
		}
		return s.repo.Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	return notFound(s.repo.Delete(ctx, id), ErrProductNotFound)
}
