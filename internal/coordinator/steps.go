package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/graceseason/storefront/internal/storefront/core/domain/entity"
	"github.com/graceseason/storefront/internal/storefront/core/ports"
)

const (
	StepSubmitOrder  = "Submit_Commerce_Order"
	StepPublishEvent = "Publish_Order_Placed"
)

// --- SubmitOrderStep ---

type SubmitOrderStep struct {
	commerce  ports.CommercePlatform
	order     *entity.CommerceOrder
	paymentID string
	placed    *entity.PlacedOrder
}

func NewSubmitOrderStep(commerce ports.CommercePlatform, paymentID string, order *entity.CommerceOrder) *SubmitOrderStep {
	return &SubmitOrderStep{commerce: commerce, order: order, paymentID: paymentID}
}

func (s *SubmitOrderStep) Name() string { return StepSubmitOrder }

func (s *SubmitOrderStep) Execute(ctx context.Context) error {
	placed, err := s.commerce.CreateOrder(ctx, s.order)
	if err != nil {
		return fmt.Errorf("create commerce order: %w", err)
	}
	placed.PaymentID = s.paymentID
	s.placed = placed
	return nil
}

func (s *SubmitOrderStep) Output() string {
	if s.placed == nil {
		return ""
	}
	b, err := json.Marshal(s.placed)
	if err != nil {
		return ""
	}
	return string(b)
}

// Placed is nil until Execute succeeds.
func (s *SubmitOrderStep) Placed() *entity.PlacedOrder { return s.placed }

// --- PublishOrderPlacedStep ---

type PublishOrderPlacedStep struct {
	publisher ports.EventPublisher
	payload   *Payload
	submit    *SubmitOrderStep
	now       func() time.Time
}

func NewPublishOrderPlacedStep(publisher ports.EventPublisher, payload *Payload, submit *SubmitOrderStep) *PublishOrderPlacedStep {
	return &PublishOrderPlacedStep{publisher: publisher, payload: payload, submit: submit, now: time.Now}
}

func (s *PublishOrderPlacedStep) Name() string { return StepPublishEvent }

func (s *PublishOrderPlacedStep) BestEffort() bool { return true }

func (s *PublishOrderPlacedStep) Execute(ctx context.Context) error {
	placed := s.submit.Placed()
	if placed == nil {
		return fmt.Errorf("no placed order for payment %s", s.payload.PaymentID)
	}
	return s.publisher.PublishOrderPlaced(ctx, ports.OrderPlacedEvent{
		PaymentID:      s.payload.PaymentID,
		GatewayOrderID: s.payload.GatewayOrderID,
		OrderID:        placed.OrderID,
		OrderNumber:    placed.OrderNumber,
		TotalPrice:     s.payload.Order.TotalPrice,
		Currency:       s.payload.Order.Currency,
		ItemCount:      len(s.payload.Order.LineItems),
		PlacedAt:       s.now().UTC(),
	})
}
