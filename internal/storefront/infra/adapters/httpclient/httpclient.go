// Package httpclient holds the plumbing shared by the outbound API
// adapters: a traced HTTP client, a circuit breaker and transport error
// classification.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/graceseason/storefront/internal/pkg/circuitbreaker"
	"github.com/graceseason/storefront/internal/storefront/core/checkout"
)

const UserAgent = "graceseason-storefront/1.0"

// New returns a client whose transport emits client spans. Timeouts are
// applied per request through the context.
func New() *http.Client {
	return &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
}

// NewBreaker returns a breaker that ignores upstream 4xx answers: they mean
// the request was bad, not that the upstream is unhealthy.
func NewBreaker(name string) *circuitbreaker.Breaker[[]byte] {
	return circuitbreaker.New[[]byte](circuitbreaker.Settings{
		Name:         name,
		IsSuccessful: IsClientError,
	})
}

func IsClientError(err error) bool {
	var upstream *checkout.UpstreamError
	return errors.As(err, &upstream) && upstream.StatusCode >= 400 && upstream.StatusCode < 500
}

// TransportError classifies a failed round trip. Deadline errors become
// checkout.ErrUpstreamTimeout; everything else, including an open breaker,
// becomes checkout.ErrUpstreamUnavailable.
func TransportError(service string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%s: %w: %v", service, checkout.ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("%s: %w: %v", service, checkout.ErrUpstreamUnavailable, err)
}

// Classify passes upstream answers through and maps everything else with
// TransportError.
func Classify(service string, err error) error {
	var upstream *checkout.UpstreamError
	if errors.As(err, &upstream) {
		return err
	}
	return TransportError(service, err)
}
