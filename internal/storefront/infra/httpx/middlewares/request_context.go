package middlewares

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/graceseason/storefront/internal/pkg/reqctx"
)

// AttachRequestContext copies chi's request id and the client's
// idempotency key into the context, echoes the request id and tags the
// server span with it. Must run after middleware.RequestID.
func AttachRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())
		idempotencyKey := r.Header.Get(reqctx.HeaderIdempotencyKey)

		ctx := reqctx.WithRequestID(r.Context(), requestID)
		ctx = reqctx.WithIdempotencyKey(ctx, idempotencyKey)

		trace.SpanFromContext(ctx).SetAttributes(attribute.String("http.request_id", requestID))
		w.Header().Set(reqctx.HeaderRequestID, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
