package handlers

import (
	"rempah/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// MessageHandler handles the public contact form.
type MessageHandler struct {
	service  *services.MessageService
	validate *validator.Validate
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(service *services.MessageService) *MessageHandler {
	return &MessageHandler{service: service, validate: validator.New()}
}

// RegisterRoutes registers the message routes with the Fiber app.
func (h *MessageHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/messages", h.HandleCreateMessage)
}

type messageRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"max=30"`
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

func (h *MessageHandler) HandleCreateMessage(c *fiber.Ctx) error {
	var req messageRequest
	if handled, err := parseAndValidate(c, h.validate, &req); handled {
		return err
	}

	msg, err := h.service.CreateMessage(c.UserContext(), services.MessageInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":      msg.ID,
		"name":    msg.Name,
		"message": "Message sent successfully!",
	})
}
