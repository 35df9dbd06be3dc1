package handlers

import (
	"rempah/internal/middleware"
	"rempah/internal/models"
	"rempah/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for registration, login and passwords.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, g Guards) {
	userRoutes := router.Group("/users")
	userRoutes.Post("/register", h.HandleRegister)
	userRoutes.Post("/login", h.HandleLogin)
	userRoutes.Post("/login/verify2fa", h.HandleVerifyTwoFactor)
	userRoutes.Post("/forgotpassword", h.HandleForgotPassword)
	userRoutes.Put("/resetpassword/:token", h.HandleResetPassword)
	userRoutes.Put("/2fa", g.Auth, h.HandleToggleTwoFactor)
}

// sessionResponse is the body returned whenever a session token is issued.
func sessionResponse(u *models.User, token string) fiber.Map {
	return fiber.Map{
		"id":                 u.ID,
		"name":               u.Name,
		"email":              u.Email,
		"isAdmin":            u.IsAdmin,
		"isTwoFactorEnabled": u.IsTwoFactorEnabled,
		"token":              token,
	}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if handled, err := parseAndValidate(c, h.validate, &req); handled {
		return err
	}

	user, token, err := h.authService.Register(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sessionResponse(user, token))
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin checks credentials. Accounts with two-factor login enabled get
// a pending-login id instead of a token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if handled, err := parseAndValidate(c, h.validate, &req); handled {
		return err
	}

	res, err := h.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	if res.TwoFactorRequired {
		return c.JSON(fiber.Map{
			"twoFactorRequired": true,
			"userId":            res.PendingUserID,
		})
	}
	return c.JSON(sessionResponse(res.User, res.Token))
}

type verifyTwoFactorRequest struct {
	UserID string `json:"userId" validate:"required"`
	Code   string `json:"code" validate:"required"`
}

// HandleVerifyTwoFactor completes a two-factor login.
func (h *AuthHandler) HandleVerifyTwoFactor(c *fiber.Ctx) error {
	var req verifyTwoFactorRequest
	if handled, err := parseAndValidate(c, h.validate, &req); handled {
		return err
	}

	user, token, err := h.authService.VerifyTwoFactor(c.UserContext(), req.UserID, req.Code)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sessionResponse(user, token))
}

// HandleToggleTwoFactor switches two-factor login on or off.
func (h *AuthHandler) HandleToggleTwoFactor(c *fiber.Ctx) error {
	enabled, err := h.authService.ToggleTwoFactor(c.UserContext(), middleware.CurrentUser(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	state := "OFF"
	if enabled {
		state = "ON"
	}
	return c.JSON(fiber.Map{
		"message":            "2FA turned " + state,
		"isTwoFactorEnabled": enabled,
	})
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// HandleForgotPassword answers the same way whether or not the account exists.
func (h *AuthHandler) HandleForgotPassword(c *fiber.Ctx) error {
	var req forgotPasswordRequest
	if handled, err := parseAndValidate(c, h.validate, &req); handled {
		return err
	}
	if err := h.authService.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "If a user exists, a password reset link has been sent to their email.",
	})
}

type resetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=6"`
}

func (h *AuthHandler) HandleResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if handled, err := parseAndValidate(c, h.validate, &req); handled {
		return err
	}
	if err := h.authService.ResetPassword(c.UserContext(), c.Params("token"), req.Password); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password reset successful. Please log in."})
}
