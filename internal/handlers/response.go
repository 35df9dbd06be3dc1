package handlers

import (
	"errors"
	"fmt"

	"rempah/internal/repositories"
	"rempah/internal/services"
	"rempah/pkg/logging"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Guards are the authentication middlewares applied to protected routes.
type Guards struct {
	Auth  fiber.Handler // any signed-in user
	Admin fiber.Handler // runs after Auth
}

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrProductNotFound),
		errors.Is(err, services.ErrReviewNotFound),
		errors.Is(err, services.ErrUserNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrAlreadyReviewed),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidRating),
		errors.Is(err, services.ErrInvalidOrExpiredCode),
		errors.Is(err, services.ErrInvalidResetToken),
		errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrEmptyOrder):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		return fiber.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, repositories.ErrVersionConflict):
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

// respondError writes err with the status it maps to. Unexpected errors are
// logged and reported with a generic message.
func respondError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		logging.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")
		return c.Status(status).JSON(fiber.Map{
			"message": "Internal server error",
			"error":   err.Error(),
		})
	}
	return c.Status(status).JSON(fiber.Map{
		"message": messageFor(err),
		"error":   err.Error(),
	})
}

// messageFor returns the sentinel's text without wrapping context.
func messageFor(err error) string {
	for _, sentinel := range []error{
		services.ErrOrderNotFound, services.ErrProductNotFound, services.ErrReviewNotFound,
		services.ErrUserNotFound, services.ErrAlreadyReviewed, services.ErrInvalidStatus,
		services.ErrInvalidRating, services.ErrInvalidOrExpiredCode, services.ErrInvalidResetToken,
		services.ErrEmailTaken, services.ErrEmptyOrder, services.ErrInvalidCredentials,
		services.ErrForbidden, repositories.ErrVersionConflict,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

// parseAndValidate decodes the request body into dst and validates it. On
// failure the 400 response has already been written and handled is true.
func parseAndValidate(c *fiber.Ctx, v *validator.Validate, dst any) (handled bool, err error) {
	if err := c.BodyParser(dst); err != nil {
		return true, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := v.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return true, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Validation failed",
				"error":   err.Error(),
			})
		}
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return true, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}
	return false, nil
}
