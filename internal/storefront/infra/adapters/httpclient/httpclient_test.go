package httpclient

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/graceseason/storefront/internal/pkg/circuitbreaker"
	"github.com/graceseason/storefront/internal/storefront/core/checkout"
)

func TestClassify(t *testing.T) {
	upstream := &checkout.UpstreamError{Service: "razorpay", StatusCode: 400, Detail: "bad"}
	assert.Equal(t, error(upstream), Classify("razorpay", upstream))

	assert.ErrorIs(t, Classify("razorpay", fmt.Errorf("do: %w", context.DeadlineExceeded)), checkout.ErrUpstreamTimeout)
	assert.ErrorIs(t, Classify("razorpay", circuitbreaker.ErrOpen), checkout.ErrUpstreamUnavailable)
	assert.ErrorIs(t, Classify("razorpay", errors.New("connection refused")), checkout.ErrUpstreamUnavailable)
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(&checkout.UpstreamError{StatusCode: 422}))
	assert.False(t, IsClientError(&checkout.UpstreamError{StatusCode: 502}))
	assert.False(t, IsClientError(errors.New("boom")))
}
