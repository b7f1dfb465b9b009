package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/graceseason/storefront/internal/coordinator/finalizelog"
	"github.com/graceseason/storefront/internal/storefront/core/domain/entity"
	"github.com/graceseason/storefront/internal/storefront/core/ports"
)

// Payload is the finalize input stored on the STARTED record. It holds
// everything needed to replay the commerce submission.
type Payload struct {
	PaymentID      string               `json:"payment_id"`
	GatewayOrderID string               `json:"gateway_order_id"`
	Order          entity.CommerceOrder `json:"order"`
}

const defaultInFlightWindow = 30 * time.Second

// ErrInProgress is returned while another attempt for the same payment,
// possibly on another replica, may still be creating the commerce order.
var ErrInProgress = errors.New("finalize already in progress")

// Pipeline turns a verified payment into a commerce order. Callers must
// have verified the payment signature before calling Run.
type Pipeline struct {
	repo      finalizelog.Repository
	commerce  ports.CommercePlatform
	publisher ports.EventPublisher
	inFlight  time.Duration
	now       func() time.Time
}

type Option func(*Pipeline)

// WithInFlightWindow sets how long a STARTED record without an outcome
// blocks a new attempt. It should match the commerce call timeout; zero
// disables the check.
func WithInFlightWindow(d time.Duration) Option {
	return func(p *Pipeline) { p.inFlight = d }
}

func NewPipeline(repo finalizelog.Repository, commerce ports.CommercePlatform, publisher ports.EventPublisher, opts ...Option) *Pipeline {
	p := &Pipeline{
		repo:      repo,
		commerce:  commerce,
		publisher: publisher,
		inFlight:  defaultInFlightWindow,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Lookup returns the commerce order already placed for a payment. found is
// false when the payment has no log or no successful submission. A recent
// STARTED record with no outcome yields ErrInProgress.
func (p *Pipeline) Lookup(ctx context.Context, paymentID string) (*entity.PlacedOrder, bool, error) {
	history, err := p.repo.History(ctx, paymentID)
	if errors.Is(err, finalizelog.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load finalize history: %w", err)
	}

	placed := placedFromHistory(history)
	if placed == nil && p.inProgress(history) {
		return nil, false, ErrInProgress
	}
	return placed, placed != nil, nil
}

// Run records the pending finalize and submits the order.
func (p *Pipeline) Run(ctx context.Context, payload *Payload) (*entity.PlacedOrder, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal finalize payload: %w", err)
	}

	submit := NewSubmitOrderStep(p.commerce, payload.PaymentID, &payload.Order)
	steps := []Step{
		submit,
		NewPublishOrderPlacedStep(p.publisher, payload, submit),
	}

	if err := NewOrchestrator(payload.PaymentID, steps, p.repo).Start(ctx, string(raw)); err != nil {
		return nil, err
	}
	return submit.Placed(), nil
}

// Replay resumes a pending finalize from its stored payload. A payment that
// already has a commerce order is completed from the log without a new
// submission.
func (p *Pipeline) Replay(ctx context.Context, paymentID string) (*entity.PlacedOrder, error) {
	history, err := p.repo.History(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("load finalize history: %w", err)
	}

	if placed := placedFromHistory(history); placed != nil {
		latest := history[len(history)-1]
		if latest.Status != finalizelog.StatusCompleted {
			out, _ := json.Marshal(placed)
			rec := finalizelog.NewRecord(ctx, paymentID, finalizelog.StatusCompleted, StepSubmitOrder, "", string(out), nil)
			if err := p.repo.Save(ctx, rec); err != nil {
				return nil, err
			}
		}
		placed.Replayed = true
		return placed, nil
	}
	if p.inProgress(history) {
		return nil, ErrInProgress
	}

	var payload *Payload
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Status == finalizelog.StatusStarted && history[i].Payload != "" {
			payload = &Payload{}
			if err := json.Unmarshal([]byte(history[i].Payload), payload); err != nil {
				return nil, fmt.Errorf("decode finalize payload for %s: %w", paymentID, err)
			}
			break
		}
	}
	if payload == nil {
		return nil, fmt.Errorf("no stored payload for payment %s", paymentID)
	}

	slog.InfoContext(ctx, "replaying finalize", "payment_id", paymentID)
	return p.Run(ctx, payload)
}

func (p *Pipeline) inProgress(history []*finalizelog.Record) bool {
	if p.inFlight <= 0 || len(history) == 0 {
		return false
	}
	latest := history[len(history)-1]
	return latest.Status == finalizelog.StatusStarted && p.now().Sub(latest.UpdatedAt) < p.inFlight
}

// placedFromHistory finds the most recent successful commerce submission.
func placedFromHistory(history []*finalizelog.Record) *entity.PlacedOrder {
	for i := len(history) - 1; i >= 0; i-- {
		rec := history[i]
		succeeded := rec.Status == finalizelog.StatusCompleted ||
			(rec.Status == finalizelog.StatusStepDone && rec.CurrentStep == StepSubmitOrder)
		if !succeeded || rec.Result == "" {
			continue
		}
		var placed entity.PlacedOrder
		if err := json.Unmarshal([]byte(rec.Result), &placed); err != nil || placed.OrderID == 0 {
			continue
		}
		return &placed
	}
	return nil
}
