package models

import "time"

// OrderStatus is the lifecycle stage of a placed order.
type OrderStatus string

const (
	OrderStatusProcessing     OrderStatus = "Processing"
	OrderStatusShipped        OrderStatus = "Shipped"
	OrderStatusOutForDelivery OrderStatus = "Out for Delivery"
	OrderStatusDelivered      OrderStatus = "Delivered"
)

// Valid reports whether s is one of the four known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusProcessing, OrderStatusShipped, OrderStatusOutForDelivery, OrderStatusDelivered:
		return true
	}
	return false
}

// OrderItem is a single line of an order, priced at checkout time.
type OrderItem struct {
	ProductID string  `json:"product"`
	Name      string  `json:"name"`
	Quantity  int     `json:"qty"`
	Price     float64 `json:"price"`
	Image     string  `json:"image"`
}

// ShippingAddress is where an order is delivered.
type ShippingAddress struct {
	FullName     string `json:"fullName"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postalCode"`
	Country      string `json:"country"`
}

// TrackingInfo identifies the carrier shipment of an order.
type TrackingInfo struct {
	TrackingID  string `json:"trackingId"`
	CourierName string `json:"courierName"`
	TrackingURL string `json:"trackingUrl"`
}

// Order represents a customer order. Orders are never deleted.
type Order struct {
	ID              string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID          string          `json:"user" gorm:"index;type:varchar(36)"`
	Items           []OrderItem     `json:"orderItems" gorm:"serializer:json"`
	ShippingAddress ShippingAddress `json:"shippingAddress" gorm:"embedded;embeddedPrefix:shipping_"`
	PaymentMethod   string          `json:"paymentMethod"`
	ItemsPrice      float64         `json:"itemsPrice"`
	ShippingPrice   float64         `json:"shippingPrice"`
	TotalPrice      float64         `json:"totalPrice"`
	IsPaid          bool            `json:"isPaid"`
	PaidAt          *time.Time      `json:"paidAt,omitempty"`
	Status          OrderStatus     `json:"orderStatus" gorm:"type:varchar(32);index"`
	TrackingInfo    *TrackingInfo   `json:"trackingInfo,omitempty" gorm:"serializer:json"`
	IsDelivered     bool            `json:"isDelivered"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
	Version         int             `json:"-"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}
