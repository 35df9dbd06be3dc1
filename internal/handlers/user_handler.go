package handlers

import (
	"rempah/internal/middleware"
	"rempah/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// UserHandler handles HTTP requests for profiles, wishlists and the user list.
type UserHandler struct {
	users    *services.UserService
	auth     *services.AuthService
	validate *validator.Validate
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *services.UserService, auth *services.AuthService) *UserHandler {
	return &UserHandler{
		users:    users,
		auth:     auth,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the user routes with the Fiber app.
func (h *UserHandler) RegisterRoutes(router fiber.Router, g Guards) {
	userRoutes := router.Group("/users")
	userRoutes.Get("/", g.Auth, g.Admin, h.HandleListUsers)
	userRoutes.Put("/profile", g.Auth, h.HandleUpdateProfile)
	userRoutes.Get("/wishlist", g.Auth, h.HandleGetWishlist)
	userRoutes.Put("/wishlist", g.Auth, h.HandleToggleWishlist)
}

type updateProfileRequest struct {
	Name     string `json:"name" validate:"omitempty,max=100"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"omitempty,min=6"`
}

// HandleUpdateProfile updates the signed-in user and issues a fresh token.
func (h *UserHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	var req updateProfileRequest
	if handled, err := parseAndValidate(c, h.validate, &req); handled {
		return err
	}

	user, err := h.users.UpdateProfile(c.UserContext(), middleware.CurrentUser(c).ID, services.ProfileUpdate{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return respondError(c, err)
	}
	token, err := h.auth.GenerateToken(user.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sessionResponse(user, token))
}

func (h *UserHandler) HandleListUsers(c *fiber.Ctx) error {
	users, err := h.users.ListUsers(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(nonNil(users))
}

type wishlistRequest struct {
	ProductID string `json:"productId" validate:"required"`
}

// HandleToggleWishlist adds or removes a product on the signed-in user's wishlist.
func (h *UserHandler) HandleToggleWishlist(c *fiber.Ctx) error {
	var req wishlistRequest
	if handled, err := parseAndValidate(c, h.validate, &req); handled {
		return err
	}

	added, err := h.users.ToggleWishlist(c.UserContext(), middleware.CurrentUser(c).ID, req.ProductID)
	if err != nil {
		return respondError(c, err)
	}
	msg := "Item removed from wishlist."
	if added {
		msg = "Item added to wishlist."
	}
	return c.JSON(fiber.Map{"message": msg, "isAdded": added})
}

func (h *UserHandler) HandleGetWishlist(c *fiber.Ctx) error {
	products, err := h.users.GetWishlist(c.UserContext(), middleware.CurrentUser(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(products)
}
