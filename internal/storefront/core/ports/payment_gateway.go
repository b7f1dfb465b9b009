package ports

import (
	"context"

	"github.com/graceseason/storefront/internal/storefront/core/domain/entity"
)

type CreateIntentRequest struct {
	Amount   int64
	Currency string
	Receipt  string
}

// PaymentGateway creates order resources on the external payment gateway.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req CreateIntentRequest) (*entity.PaymentIntent, error)
}
