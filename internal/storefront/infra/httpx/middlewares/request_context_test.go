package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"

	"github.com/graceseason/storefront/internal/pkg/reqctx"
)

func TestAttachRequestContext(t *testing.T) {
	var gotID, gotKey string
	h := middleware.RequestID(AttachRequestContext(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotID = reqctx.RequestID(r.Context())
		gotKey = reqctx.IdempotencyKey(r.Context())
	})))

	req := httptest.NewRequest(http.MethodPost, "/api/create-razorpay-order", nil)
	req.Header.Set("X-Request-Id", "req-123")
	req.Header.Set("X-Idempotency-Key", "checkout-abc")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", gotID)
	assert.Equal(t, "checkout-abc", gotKey)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-Id"))
}

func TestAttachRequestContext_NoIdempotencyKey(t *testing.T) {
	var gotKey = "unset"
	h := middleware.RequestID(AttachRequestContext(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotKey = reqctx.IdempotencyKey(r.Context())
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Empty(t, gotKey)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}
