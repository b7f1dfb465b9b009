package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/graceseason/storefront/internal/storefront/core/checkout"
)

const (
	msgInvalidAmount    = "Valid amount is required"
	msgMissingFields    = "Missing required fields"
	msgInvalidPhone     = "Invalid phone number format"
	msgInvalidSignature = "Invalid payment signature"
	msgInProgress       = "Order is already being processed - please check again shortly"
	msgTimeout          = "Request timeout - please try again"
	msgUnavailable      = "Network error - please check your connection and try again"
	msgInternal         = "Internal server error"
	msgInvalidJSON      = "Invalid request body"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeRaw writes an upstream JSON document unchanged.
func writeRaw(w http.ResponseWriter, status int, raw []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// statusFor maps checkout errors to a status code and the message shown to
// the client. Upstream answers surface their detail; anything unknown is a
// generic 500.
func statusFor(err error) (int, string) {
	var upstream *checkout.UpstreamError
	switch {
	case errors.Is(err, checkout.ErrInvalidAmount):
		return http.StatusBadRequest, msgInvalidAmount
	case errors.Is(err, checkout.ErrMissingFields):
		return http.StatusBadRequest, msgMissingFields
	case errors.Is(err, checkout.ErrInvalidPhone):
		return http.StatusBadRequest, msgInvalidPhone
	case errors.Is(err, checkout.ErrInvalidSignature):
		return http.StatusBadRequest, msgInvalidSignature
	case errors.Is(err, checkout.ErrFinalizeInProgress):
		return http.StatusConflict, msgInProgress
	case errors.Is(err, checkout.ErrUpstreamTimeout):
		return http.StatusRequestTimeout, msgTimeout
	case errors.Is(err, checkout.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable, msgUnavailable
	case errors.As(err, &upstream):
		return http.StatusInternalServerError, upstream.Detail
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "status", status, "error", err)
	}
	writeError(w, status, msg)
}

// decode reads a JSON body of at most limit bytes.
func decode(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	return json.NewDecoder(r.Body).Decode(v)
}
