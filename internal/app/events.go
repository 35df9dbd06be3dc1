package app

import (
	"encoding/json"
	"fmt"

	"rempah/internal/services"
	"rempah/pkg/logging"

	amqp "github.com/streadway/amqp"
)

// handleOrderEvent logs an order event from the queue. Malformed payloads
// are rejected so they are not redelivered.
func handleOrderEvent(msg amqp.Delivery) error {
	var event services.OrderEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		return fmt.Errorf("malformed %s event: %w", msg.RoutingKey, err)
	}
	logging.Info().
		Str("event", msg.RoutingKey).
		Str("order_id", event.OrderID).
		Str("user_id", event.UserID).
		Str("status", event.Status).
		Float64("total", event.TotalPrice).
		Msg("order event received")
	return nil
}
