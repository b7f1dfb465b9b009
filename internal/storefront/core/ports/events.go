package ports

import (
	"context"
	"time"
)

type OrderPlacedEvent struct {
	PaymentID      string    `json:"payment_id"`
	GatewayOrderID string    `json:"gateway_order_id"`
	OrderID        int64     `json:"order_id"`
	OrderNumber    int64     `json:"order_number"`
	TotalPrice     string    `json:"total_price"`
	Currency       string    `json:"currency"`
	ItemCount      int       `json:"item_count"`
	PlacedAt       time.Time `json:"placed_at"`
}

type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event OrderPlacedEvent) error
}
