package checkout

import (
	"errors"
	"fmt"

	"github.com/graceseason/storefront/internal/coordinator"
)

var (
	ErrInvalidAmount    = errors.New("valid amount is required")
	ErrMissingFields    = errors.New("missing required fields")
	ErrInvalidPhone     = errors.New("invalid phone number format")
	ErrInvalidSignature = errors.New("invalid payment signature")

	// ErrFinalizeInProgress means an earlier attempt for the payment has not
	// recorded an outcome yet.
	ErrFinalizeInProgress = coordinator.ErrInProgress

	ErrUpstreamTimeout     = errors.New("upstream request timed out")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// UpstreamError is a non-success answer from the payment gateway or the
// commerce platform. Detail carries whatever could be extracted from the
// response body.
type UpstreamError struct {
	Service    string
	StatusCode int
	Detail     string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Service, e.Detail)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Service, e.StatusCode, e.Detail)
}
