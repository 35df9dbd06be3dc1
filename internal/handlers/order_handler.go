package handlers

import (
	"rempah/internal/middleware"
	"rempah/internal/models"
	"rempah/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, g Guards) {
	orderRoutes := router.Group("/orders", g.Auth)
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Get("/", g.Admin, h.HandleListOrders)
	orderRoutes.Get("/myorders", h.HandleMyOrders)
	orderRoutes.Get("/stats", g.Admin, h.HandleDashboardStats)
	orderRoutes.Get("/:id", h.HandleGetOrder)
	orderRoutes.Put("/:id/status", g.Admin, h.HandleUpdateOrderStatus)
}

type orderItemRequest struct {
	ProductID string `json:"product" validate:"required"`
	Quantity  int    `json:"qty" validate:"required,min=1"`
}

type shippingAddressRequest struct {
	FullName     string `json:"fullName" validate:"required"`
	AddressLine1 string `json:"addressLine1" validate:"required"`
	AddressLine2 string `json:"addressLine2"`
	City         string `json:"city" validate:"required"`
	State        string `json:"state" validate:"required"`
	PostalCode   string `json:"postalCode" validate:"required,numeric"`
	Country      string `json:"country"`
}

type createOrderRequest struct {
	OrderItems      []orderItemRequest     `json:"orderItems" validate:"required,min=1,dive"`
	ShippingAddress shippingAddressRequest `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
	ShippingPrice   float64                `json:"shippingPrice" validate:"gte=0"`
}

// HandleCreateOrder places an order for the signed-in user.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req createOrderRequest
	if handled, err := parseAndValidate(c, h.validate, &req); handled {
		return err
	}

	items := make([]services.OrderItemInput, 0, len(req.OrderItems))
	for _, it := range req.OrderItems {
		items = append(items, services.OrderItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	a := req.ShippingAddress
	order, err := h.service.CreateOrder(c.UserContext(), middleware.CurrentUser(c).ID, services.CreateOrderInput{
		Items: items,
		ShippingAddress: models.ShippingAddress{
			FullName:     a.FullName,
			AddressLine1: a.AddressLine1,
			AddressLine2: a.AddressLine2,
			City:         a.City,
			State:        a.State,
			PostalCode:   a.PostalCode,
			Country:      a.Country,
		},
		PaymentMethod: req.PaymentMethod,
		ShippingPrice: req.ShippingPrice,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleMyOrders lists the signed-in user's orders, newest first.
func (h *OrderHandler) HandleMyOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListMyOrders(c.UserContext(), middleware.CurrentUser(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(nonNil(orders))
}

// HandleListOrders retrieves all orders.
func (h *OrderHandler) HandleListOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListOrders(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(nonNil(orders))
}

// HandleGetOrder retrieves a single order for its owner or an admin.
func (h *OrderHandler) HandleGetOrder(c *fiber.Ctx) error {
	order, err := h.service.GetOrder(c.UserContext(), c.Params("id"), middleware.CurrentUser(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

func (h *OrderHandler) HandleDashboardStats(c *fiber.Ctx) error {
	stats, err := h.service.DashboardStats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

type updateStatusRequest struct {
	Status      string `json:"status" validate:"required"`
	TrackingID  string `json:"trackingId"`
	CourierName string `json:"courierName"`
	TrackingURL string `json:"trackingUrl"`
}

// HandleUpdateOrderStatus moves an order to a new stage.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	var req updateStatusRequest
	if handled, err := parseAndValidate(c, h.validate, &req); handled {
		return err
	}

	order, err := h.service.UpdateOrderStatus(c.UserContext(), c.Params("id"), services.StatusUpdate{
		Status:      models.OrderStatus(req.Status),
		CourierName: req.CourierName,
		TrackingID:  req.TrackingID,
		TrackingURL: req.TrackingURL,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

// nonNil makes empty lists encode as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
