package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Handlers struct {
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Payment  *PaymentHandler
}

// NewRouter mounts the shopper API behind UserMiddleware. The gateway
// callbacks are public: the signal is addressed by session id and the
// webhook is authenticated by its signature.
func NewRouter(h Handlers, requestTimeout time.Duration, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(UserMiddleware)
			r.Use(middleware.Timeout(requestTimeout))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.Cart.GetCart)
				r.Post("/items", h.Cart.AddItem)
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Post("/", h.Checkout.Begin)
				r.Get("/", h.Checkout.Get)
				r.Delete("/", h.Checkout.Cancel)
				r.Put("/address", h.Checkout.SetAddress)
				r.Post("/address/edit", h.Checkout.EditAddress)
				r.Post("/coupon", h.Checkout.ApplyCoupon)
				r.Delete("/coupon", h.Checkout.RemoveCoupon)
				r.Get("/summary", h.Checkout.Summary)
				r.Post("/pay", h.Checkout.Pay)
			})
		})

		r.Post("/payments/{session_id}/signal", h.Payment.Signal)
	})

	r.Post("/webhooks/gateway", h.Payment.Webhook)

	return r
}
