package services

import (
	"time"

	"rempah/pkg/logging"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusUpdated = "order.status_updated"
)

// EventPublisher publishes domain events. *rabbitmq.Client implements it.
type EventPublisher interface {
	PublishOrderEvent(routingKey string, event any) error
}

// OrderEvent is the payload of every order.* event.
type OrderEvent struct {
	OrderID    string    `json:"orderId"`
	UserID     string    `json:"userId"`
	Status     string    `json:"status"`
	TotalPrice float64   `json:"totalPrice"`
	OccurredAt time.Time `json:"occurredAt"`
}

func publish(p EventPublisher, routingKey string, event OrderEvent) {
	if p == nil {
		return
	}
	if err := p.PublishOrderEvent(routingKey, event); err != nil {
		logging.Warn().Err(err).Str("event", routingKey).Str("order_id", event.OrderID).Msg("failed to publish order event")
		return
	}
	logging.Debug().Str("event", routingKey).Str("order_id", event.OrderID).Msg("order event published")
}
