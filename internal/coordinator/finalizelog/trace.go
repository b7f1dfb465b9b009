package finalizelog

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// TraceInfo holds the OTel identifiers extracted from a context.
type TraceInfo struct {
	TraceID string
	SpanID  string
}

// ExtractTraceInfo reads the active span from ctx. Both fields are empty
// when ctx carries no valid span.
func ExtractTraceInfo(ctx context.Context) TraceInfo {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return TraceInfo{}
	}
	return TraceInfo{
		TraceID: sc.TraceID().String(),
		SpanID:  sc.SpanID().String(),
	}
}

// NewRecord builds a Record with trace info taken from ctx.
//
//	rec := finalizelog.NewRecord(ctx, paymentID, finalizelog.StatusStepDone, "Submit_Commerce_Order", "", result, nil)
//	_ = repo.Save(ctx, rec)
func NewRecord(
	ctx context.Context,
	paymentID string,
	status Status,
	currentStep string,
	payload string,
	result string,
	errs []string,
) *Record {
	ti := ExtractTraceInfo(ctx)

	errJSON := "[]"
	if len(errs) > 0 {
		if b, err := json.Marshal(errs); err == nil {
			errJSON = string(b)
		}
	}

	return &Record{
		PaymentID:     paymentID,
		Status:        status,
		CurrentStep:   currentStep,
		Payload:       payload,
		Result:        result,
		ErrorMessages: errJSON,
		TraceID:       ti.TraceID,
		SpanID:        ti.SpanID,
		UpdatedAt:     time.Now().UTC(),
	}
}

// Errors decodes ErrorMessages. Malformed content yields nil.
func (r *Record) Errors() []string {
	var errs []string
	if err := json.Unmarshal([]byte(r.ErrorMessages), &errs); err != nil {
		return nil
	}
	return errs
}
