package httpx

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/graceseason/storefront/internal/storefront/core/domain/entity"
)

type CreateIntentRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

type FinalizeItemDTO struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type FinalizeOrderRequest struct {
	Name              string            `json:"name"`
	Phone             string            `json:"phone"`
	Address           string            `json:"address"`
	Items             []FinalizeItemDTO `json:"items"`
	RazorpayPaymentID string            `json:"razorpayPaymentId"`
	RazorpayOrderID   string            `json:"razorpayOrderId"`
	RazorpaySignature string            `json:"razorpaySignature"`
}

type FinalizeOrderResponse struct {
	Success     bool  `json:"success"`
	OrderID     int64 `json:"orderId"`
	OrderNumber int64 `json:"orderNumber"`
}

type CompleteCheckoutRequest struct {
	Name              string `json:"name"`
	Phone             string `json:"phone"`
	Address           string `json:"address"`
	RazorpayPaymentID string `json:"razorpayPaymentId"`
	RazorpayOrderID   string `json:"razorpayOrderId"`
	RazorpaySignature string `json:"razorpaySignature"`
}

type CompleteCheckoutResponse struct {
	Success         bool   `json:"success"`
	OrderID         int64  `json:"orderId"`
	OrderNumber     int64  `json:"orderNumber"`
	RedirectTo      string `json:"redirectTo"`
	RedirectAfterMs int64  `json:"redirectAfterMs"`
}

type CheckoutConfigResponse struct {
	Key         string `json:"key"`
	Currency    string `json:"currency"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type FinalizeStatusResponse struct {
	PaymentID string          `json:"paymentId"`
	Status    string          `json:"status"`
	Step      string          `json:"step,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Errors    []string        `json:"errors"`
	TraceID   string          `json:"traceId,omitempty"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type SessionResponse struct {
	ID        string                `json:"id"`
	Cart      []entity.CartLineItem `json:"cart"`
	Wishlist  []entity.WishlistItem `json:"wishlist"`
	ItemCount int                   `json:"itemCount"`
	Subtotal  string                `json:"subtotal"`
}

type AddCartItemRequest struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Size     string          `json:"size"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

type WishlistItemRequest struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Category string          `json:"category"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func mapSession(s *entity.Session) SessionResponse {
	count := 0
	for _, it := range s.Cart {
		count += it.Quantity
	}
	return SessionResponse{
		ID:        s.ID,
		Cart:      s.Cart,
		Wishlist:  s.Wishlist,
		ItemCount: count,
		Subtotal:  s.Subtotal().StringFixed(2),
	}
}
