package services

import (
	"context"
	"fmt"
	"time"

	"rempah/internal/metrics"
	"rempah/internal/models"
	"rempah/internal/repositories"
	"rempah/pkg/mailer"
)

// StatusUpdate is an admin request to move an order to a new stage.
// The tracking fields are only used for Shipped.
type StatusUpdate struct {
	Status      models.OrderStatus
	CourierName string
	TrackingID  string
	TrackingURL string
}

// OrderItemInput is one requested line of a new order.
type OrderItemInput struct {
	ProductID string
	Quantity  int
}

// CreateOrderInput is a checkout request. Prices are looked up, never trusted.
type CreateOrderInput struct {
	Items           []OrderItemInput
	ShippingAddress models.ShippingAddress
	PaymentMethod   string
	ShippingPrice   float64
}

// DashboardStats summarises the store for administrators.
type DashboardStats struct {
	TotalOrders int64   `json:"totalOrders"`
	TotalUsers  int64   `json:"totalUsers"`
	TotalSales  float64 `json:"totalSales"`
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	userRepo    repositories.UserRepository
	mail        mailer.Sender
	events      EventPublisher
	now         func() time.Time
}

// NewOrderService creates a new OrderService. events may be nil.
func NewOrderService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository,
	userRepo repositories.UserRepository, mail mailer.Sender, events EventPublisher) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		mail:        mail,
		events:      events,
		now:         time.Now,
	}
}

// CreateOrder prices the requested items from the catalogue and stores a new
// Processing order for userID.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, in CreateOrderInput) (*models.Order, error) {
	if len(in.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	items := make([]models.OrderItem, 0, len(in.Items))
	var itemsPrice float64
	for _, it := range in.Items {
		product, err := s.productRepo.GetByID(ctx, it.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", it.ProductID, notFound(err, ErrProductNotFound))
		}
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  it.Quantity,
			Price:     product.Price,
			Image:     product.ImageURL,
		})
		itemsPrice += product.Price * float64(it.Quantity)
	}

	addr := in.ShippingAddress
	if addr.Country == "" {
		addr.Country = "India"
	}
	payment := in.PaymentMethod
	if payment == "" {
		payment = "DemoPayment"
	}

	order := &models.Order{
		UserID:          userID,
		Items:           items,
		ShippingAddress: addr,
		PaymentMethod:   payment,
		ItemsPrice:      itemsPrice,
		ShippingPrice:   in.ShippingPrice,
		TotalPrice:      itemsPrice + in.ShippingPrice,
		Status:          models.OrderStatusProcessing,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if user, err := s.userRepo.GetByID(ctx, userID); err == nil {
		notify(ctx, s.mail, mailer.Message{
			To:      user.Email,
			Subject: fmt.Sprintf("Order Confirmation #%s", shortID(order.ID)),
			Text:    fmt.Sprintf("Your order for ₹%.2f has been successfully placed.", order.TotalPrice),
			HTML:    fmt.Sprintf("<h2>Order Confirmation</h2><p>Thank you for your order! Your total is <b>₹%.2f</b> and will be shipped soon.</p>", order.TotalPrice),
		})
	}
	publish(s.events, EventOrderCreated, orderEvent(order, s.now()))
	return order, nil
}

// ListMyOrders returns the orders of userID, newest first.
func (s *OrderService) ListMyOrders(ctx context.Context, userID string) ([]models.Order, error) {
	return s.orderRepo.ListByUser(ctx, userID)
}

// GetOrder returns an order to its owner or to an administrator.
func (s *OrderService) GetOrder(ctx context.Context, id string, actor *models.User) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrOrderNotFound)
	}
	if !actor.IsAdmin && order.UserID != actor.ID {
		return nil, ErrForbidden
	}
	return order, nil
}

// ListOrders returns every order.
func (s *OrderService) ListOrders(ctx context.Context) ([]models.Order, error) {
	return s.orderRepo.List(ctx)
}

// DashboardStats counts orders and users and sums order totals.
func (s *OrderService) DashboardStats(ctx context.Context) (DashboardStats, error) {
	stats, err := s.orderRepo.Stats(ctx)
	if err != nil {
		return DashboardStats{}, err
	}
	users, err := s.userRepo.Count(ctx)
	if err != nil {
		return DashboardStats{}, err
	}
	return DashboardStats{TotalOrders: stats.TotalOrders, TotalUsers: users, TotalSales: stats.TotalSales}, nil
}

// UpdateOrderStatus moves an order to upd.Status. Shipped records tracking
// details and Delivered stamps the delivery time; both notify the customer.
// Any valid status may follow any other.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id string, upd StatusUpdate) (*models.Order, error) {
	if !upd.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, upd.Status)
	}

	var order *models.Order
	err := withRetry(ctx, "order", func() error {
		var err error
		order, err = s.orderRepo.GetByID(ctx, id)
		if err != nil {
			return notFound(err, ErrOrderNotFound)
		}

		order.Status = upd.Status
		switch upd.Status {
		case models.OrderStatusShipped:
			order.TrackingInfo = &models.TrackingInfo{
				TrackingID:  upd.TrackingID,
				CourierName: upd.CourierName,
				TrackingURL: upd.TrackingURL,
			}
		case models.OrderStatusDelivered:
			now := s.now()
			order.IsDelivered = true
			order.DeliveredAt = &now
		}
		return s.orderRepo.Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	metrics.OrderStatusTransitions.WithLabelValues(string(upd.Status)).Inc()

	switch upd.Status {
	case models.OrderStatusShipped:
		s.notifyOwner(ctx, order.UserID, mailer.Message{
			Subject: "Your Order has Shipped!",
			Text:    fmt.Sprintf("Your order is on its way via %s. Tracking ID: %s", upd.CourierName, upd.TrackingID),
			HTML:    renderHTML(shippedMail, upd),
		})
	case models.OrderStatusDelivered:
		s.notifyOwner(ctx, order.UserID, mailer.Message{
			Subject: "Order Delivered",
			Text:    "Your order has been delivered. Enjoy!",
			HTML:    "<h2>Delivered</h2><p>Your order has been delivered. We hope you enjoy your spices!</p>",
		})
	}
	publish(s.events, EventOrderStatusUpdated, orderEvent(order, s.now()))
	return order, nil
}

// notifyOwner mails msg to the order's user if the account still exists.
func (s *OrderService) notifyOwner(ctx context.Context, userID string, msg mailer.Message) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return
	}
	msg.To = user.Email
	notify(ctx, s.mail, msg)
}

func orderEvent(o *models.Order, at time.Time) OrderEvent {
	return OrderEvent{OrderID: o.ID, UserID: o.UserID, Status: string(o.Status), TotalPrice: o.TotalPrice, OccurredAt: at}
}

// shortID is the customer-facing order reference.
func shortID(id string) string {
	if len(id) <= 6 {
		return id
	}
	return id[len(id)-6:]
}
