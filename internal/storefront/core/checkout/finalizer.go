package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/graceseason/storefront/internal/coordinator"
	"github.com/graceseason/storefront/internal/storefront/core/domain/entity"
)

const (
	gatewayName      = "Razorpay"
	placeholderCity  = "Unknown"
	placeholderState = "Unknown"
	placeholderZip   = "000000"
)

type FinalizerConfig struct {
	// KeySecret is the payment gateway key secret used for signatures.
	KeySecret   string
	Currency    string
	CountryCode string
	Country     string
}

type FinalizeRequest struct {
	Name       string
	Phone      string
	Address    string
	Items      []FinalizeItem
	Completion entity.PaymentCompletion
}

// finalizeRunner is the part of coordinator.Pipeline the Finalizer uses.
type finalizeRunner interface {
	Lookup(ctx context.Context, paymentID string) (*entity.PlacedOrder, bool, error)
	Run(ctx context.Context, payload *coordinator.Payload) (*entity.PlacedOrder, error)
}

// Finalizer verifies a payment completion and turns it into a commerce order.
type Finalizer struct {
	cfg      FinalizerConfig
	pipeline finalizeRunner
	flight   singleflight.Group
	now      func() time.Time
}

func NewFinalizer(cfg FinalizerConfig, pipeline finalizeRunner) *Finalizer {
	return &Finalizer{cfg: cfg, pipeline: pipeline, now: time.Now}
}

// Finalize validates the request, verifies the payment signature and, only
// when it matches, submits the commerce order. A payment that already has
// a commerce order returns that order.
func (f *Finalizer) Finalize(ctx context.Context, req FinalizeRequest) (*entity.PlacedOrder, error) {
	c := req.Completion
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Phone) == "" || strings.TrimSpace(req.Address) == "" ||
		c.PaymentID == "" || c.OrderID == "" || c.Signature == "" {
		slog.WarnContext(ctx, "finalize rejected: missing fields",
			"name", req.Name != "",
			"phone", req.Phone != "",
			"address", req.Address != "",
			"payment_id", c.PaymentID != "",
			"order_id", c.OrderID != "",
			"signature", c.Signature != "",
		)
		return nil, ErrMissingFields
	}

	phone := NormalizePhone(req.Phone, f.cfg.CountryCode)
	if phone == "" {
		slog.WarnContext(ctx, "finalize rejected: invalid phone")
		return nil, ErrInvalidPhone
	}

	if !VerifySignature(f.cfg.KeySecret, c) {
		slog.WarnContext(ctx, "payment signature verification failed", "payment_id", c.PaymentID, "order_id", c.OrderID)
		return nil, ErrInvalidSignature
	}
	slog.InfoContext(ctx, "payment signature verified", "payment_id", c.PaymentID)

	v, err, _ := f.flight.Do(c.PaymentID, func() (any, error) {
		placed, found, err := f.pipeline.Lookup(ctx, c.PaymentID)
		if err != nil {
			return nil, err
		}
		if found {
			slog.InfoContext(ctx, "payment already finalized", "payment_id", c.PaymentID, "order_id", placed.OrderID)
			placed.Replayed = true
			return placed, nil
		}

		return f.pipeline.Run(ctx, &coordinator.Payload{
			PaymentID:      c.PaymentID,
			GatewayOrderID: c.OrderID,
			Order:          *f.BuildOrder(req, phone),
		})
	})
	if err != nil {
		return nil, err
	}

	placed := *v.(*entity.PlacedOrder)
	return &placed, nil
}

// BuildOrder composes the commerce order for a verified payment. phone must
// already be normalized.
func (f *Finalizer) BuildOrder(req FinalizeRequest, phone string) *entity.CommerceOrder {
	first, last := splitName(req.Name)
	total := Total(req.Items)
	c := req.Completion

	return &entity.CommerceOrder{
		LineItems: BuildLineItems(req.Items),
		Customer: entity.Customer{
			FirstName: first,
			LastName:  last,
			Phone:     phone,
			Email:     f.placeholderEmail(),
		},
		ShippingAddress: entity.ShippingAddress{
			FirstName: first,
			LastName:  last,
			Address1:  strings.TrimSpace(req.Address),
			Phone:     phone,
			City:      placeholderCity,
			Province:  placeholderState,
			Country:   f.cfg.Country,
			Zip:       placeholderZip,
		},
		FinancialStatus: "paid",
		Transactions: []entity.Transaction{{
			Kind:          "sale",
			Status:        "success",
			Amount:        total,
			Gateway:       gatewayName,
			Authorization: c.PaymentID,
		}},
		Note:       fmt.Sprintf("Razorpay Payment ID: %s, Order ID: %s", c.PaymentID, c.OrderID),
		Tags:       "razorpay-" + c.PaymentID,
		TotalPrice: total,
		Currency:   f.cfg.Currency,
	}
}

// placeholderEmail is unique per call; no email is collected at checkout.
func (f *Finalizer) placeholderEmail() string {
	return fmt.Sprintf("customer_%d_%s@example.com", f.now().UnixMilli(), uuid.NewString()[:8])
}

// splitName splits on the first space.
func splitName(name string) (first, last string) {
	first, last, _ = strings.Cut(strings.TrimSpace(name), " ")
	return first, strings.TrimSpace(last)
}
