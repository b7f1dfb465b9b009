package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/graceseason/storefront/internal/storefront/infra/httpx/middlewares"
)

func NewRouter(handler *Handler, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middlewares.AttachRequestContext)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if requestTimeout > 0 {
		r.Use(middleware.Timeout(requestTimeout))
	}

	r.Get("/healthz", handler.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/create-razorpay-order", handler.CreateIntent)
		r.Post("/create-shopify-order", handler.FinalizeOrder)
		r.Get("/checkout/config", handler.CheckoutConfig)
		r.Get("/finalize/{paymentId}", handler.FinalizeStatus)
		r.Get("/categories", handler.Categories)

		r.Post("/sessions", handler.CreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Post("/checkout/complete", handler.CompleteCheckout)

			r.Get("/cart", handler.GetSession)
			r.Delete("/cart", handler.ClearCart)
			r.Post("/cart/items", handler.AddCartItem)
			r.Patch("/cart/items/{itemID}", handler.UpdateCartItem)
			r.Delete("/cart/items/{itemID}", handler.RemoveCartItem)

			r.Get("/wishlist", handler.GetSession)
			r.Post("/wishlist", handler.AddWishlistItem)
			r.Delete("/wishlist", handler.ClearWishlist)
			r.Delete("/wishlist/{itemID}", handler.RemoveWishlistItem)
		})
	})
	return r
}
