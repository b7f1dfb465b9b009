// Package finalizelog defines the durable record of order finalization.
//
// Every attempt to turn a verified payment into a commerce order is written
// here before the commerce platform is called, keyed by the gateway payment
// id. The log is append-only and serves two purposes:
//
//  1. Recovery: a payment whose latest record is not COMPLETED was captured
//     by the gateway but may have no commerce order. It can be replayed from
//     the payload stored on its STARTED record.
//
//  2. Idempotency: a resubmitted completion for a payment that already has a
//     commerce order returns that order instead of creating a second one.
package finalizelog

import (
	"context"
	"errors"
	"time"
)

// Status is the lifecycle state of a finalize attempt.
type Status string

const (
	// StatusStarted is written with the payload before the commerce call.
	StatusStarted Status = "STARTED"
	// StatusStepDone follows each step that succeeded.
	StatusStepDone Status = "STEP_DONE"
	// StatusCompleted carries the placed order and any best-effort errors.
	StatusCompleted Status = "COMPLETED"
	// StatusFailed marks a required step failure. The payment stays pending.
	StatusFailed Status = "FAILED"
)

// ErrNotFound is returned when a payment has no records.
var ErrNotFound = errors.New("finalizelog: payment not found")

// Record is a single row in the finalize_logs table.
type Record struct {
	// PaymentID is the gateway payment identifier. Every attempt for the same
	// payment shares it, so the latest row is the payment's current state.
	PaymentID string

	// Status is the lifecycle state this row records.
	Status Status

	// CurrentStep is the name of the step that was just executed or failed.
	CurrentStep string

	// Payload is the JSON-serialised finalize input. Written on STARTED only.
	Payload string

	// Result is the JSON output of the step that produced it, e.g. the
	// placed order after the commerce submission.
	Result string

	// ErrorMessages is a JSON array of failure details, one per failed step:
	// ["Submit_Commerce_Order failed: ..."]. "[]" when there are none.
	ErrorMessages string

	// TraceID is the W3C trace id of the span active when the row was
	// written, so a row can be followed to its distributed trace.
	TraceID string

	// SpanID is the span within that trace.
	SpanID string

	// UpdatedAt is the UTC wall-clock time of this row. A STARTED row younger
	// than the commerce timeout means the attempt may still be running.
	UpdatedAt time.Time
}

// Repository persists finalize records.
type Repository interface {
	// Save appends a new record.
	Save(ctx context.Context, rec *Record) error

	// History returns every record for a payment, oldest first. It returns
	// ErrNotFound when there is none.
	History(ctx context.Context, paymentID string) ([]*Record, error)

	// GetLatest returns the most recent record for a payment.
	GetLatest(ctx context.Context, paymentID string) (*Record, error)

	// ListPending returns the latest record of every payment whose latest
	// status is not COMPLETED, oldest first.
	ListPending(ctx context.Context, limit int) ([]*Record, error)
}
