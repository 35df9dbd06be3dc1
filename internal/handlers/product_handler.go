package handlers

import (
	"rempah/internal/middleware"
	"rempah/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for the catalogue and its reviews.
type ProductHandler struct {
	products *services.ProductService
	reviews  *services.ReviewService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(products *services.ProductService, reviews *services.ReviewService) *ProductHandler {
	return &ProductHandler{
		products: products,
		reviews:  reviews,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, g Guards) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleListProducts)
	productRoutes.Get("/:id", h.HandleGetProduct)
	productRoutes.Post("/", g.Auth, g.Admin, h.HandleCreateProduct)
	productRoutes.Put("/:id", g.Auth, g.Admin, h.HandleUpdateProduct)
	productRoutes.Delete("/:id", g.Auth, g.Admin, h.HandleDeleteProduct)

	productRoutes.Post("/:id/reviews", g.Auth, h.HandleCreateReview)
	productRoutes.Put("/:id/reviews", g.Auth, h.HandleUpdateReview)
	productRoutes.Delete("/:id/reviews", g.Auth, h.HandleDeleteReview)
	productRoutes.Put("/:id/reviews/:reviewId/like", g.Auth, h.HandleToggleReviewLike)
}

// HandleListProducts serves one page of the catalogue.
// Query: keyword, pageNumber (from 1).
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	page, err := h.products.ListProducts(c.UserContext(), c.Query("keyword"), c.QueryInt("pageNumber", 1))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// HandleGetProduct retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	p, err := h.products.GetProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(p)
}

// HandleCreateProduct creates a placeholder product for the admin to edit.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	p, err := h.products.CreateProduct(c.UserContext(), middleware.CurrentUser(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

type updateProductRequest struct {
	Name        string   `json:"name" validate:"omitempty,max=200"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	ImageURL    string   `json:"imageUrl"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	InStock     *bool    `json:"inStock"`
}

// HandleUpdateProduct applies a partial update.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var req updateProductRequest
	if handled, err := parseAndValidate(c, h.validate, &req); handled {
		return err
	}
	p, err := h.products.UpdateProduct(c.UserContext(), c.Params("id"), services.ProductUpdate{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
		Price:       req.Price,
		InStock:     req.InStock,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(p)
}

// HandleDeleteProduct deletes a product by its ID.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.products.DeleteProduct(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product removed"})
}

type reviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

func (h *ProductHandler) HandleCreateReview(c *fiber.Ctx) error {
	var req reviewRequest
	if handled, err := parseAndValidate(c, h.validate, &req); handled {
		return err
	}
	p, err := h.reviews.CreateReview(c.UserContext(), c.Params("id"), middleware.CurrentUser(c),
		services.ReviewInput{Rating: req.Rating, Comment: req.Comment})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    "Review added",
		"rating":     p.Rating,
		"numReviews": p.NumReviews,
	})
}

func (h *ProductHandler) HandleUpdateReview(c *fiber.Ctx) error {
	var req reviewRequest
	if handled, err := parseAndValidate(c, h.validate, &req); handled {
		return err
	}
	p, err := h.reviews.UpdateReview(c.UserContext(), c.Params("id"), middleware.CurrentUser(c),
		services.ReviewInput{Rating: req.Rating, Comment: req.Comment})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":    "Review updated",
		"rating":     p.Rating,
		"numReviews": p.NumReviews,
	})
}

func (h *ProductHandler) HandleDeleteReview(c *fiber.Ctx) error {
	p, err := h.reviews.DeleteReview(c.UserContext(), c.Params("id"), middleware.CurrentUser(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":    "Review removed",
		"rating":     p.Rating,
		"numReviews": p.NumReviews,
	})
}

func (h *ProductHandler) HandleToggleReviewLike(c *fiber.Ctx) error {
	res, err := h.reviews.ToggleReviewLike(c.UserContext(), c.Params("id"), c.Params("reviewId"), middleware.CurrentUser(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}
