package middleware

import (
	"context"
	"strings"

	"rempah/internal/models"
	"rempah/pkg/logging"

	"github.com/gofiber/fiber/v2"
)

const userKey = "user"

// TokenValidator resolves a session token to a user id.
type TokenValidator interface {
	ValidateToken(token string) (string, error)
}

// UserLoader fetches the account a token belongs to.
type UserLoader interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// AuthRequired is a Fiber middleware to check for a valid JWT token. The
// token's account is stored in the context for subsequent handlers.
func AuthRequired(tokens TokenValidator, users UserLoader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Not authorized, no token",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		userID, err := tokens.ValidateToken(parts[1])
		if err != nil {
			logging.Debug().Err(err).Msg("JWT validation failed")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Not authorized, token failed",
				"error":   err.Error(),
			})
		}

		user, err := users.GetUser(c.UserContext(), userID)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Not authorized, user not found",
			})
		}

		c.Locals(userKey, user)
		return c.Next()
	}
}

// AdminRequired rejects non-admin users. It must run after AuthRequired.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil || !user.IsAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Not authorized as an admin",
			})
		}
		return c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil outside AuthRequired.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userKey).(*models.User)
	return user
}
