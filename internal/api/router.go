package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/safar/go-shop-checkout/internal/models"
	"github.com/safar/go-shop-checkout/internal/tracing"
)

func NewRouter(d Deps) http.Handler {
	h := newHandler(d)
	log := d.Log

	rps, burst := d.RateRPS, d.RateBurst
	if rps <= 0 {
		rps = 10
	}
	if burst < 1 {
		burst = 20
	}
	limiter := newIPLimiter(rps, burst)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(tracing.Middleware)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(limiter.middleware(log))
	r.Use(limitBody)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(log, w, http.StatusNotFound, CodeNotFound, "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(log, w, http.StatusMethodNotAllowed, CodeNotFound, "method not allowed", nil)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/users/register", h.handleRegister())
		r.Get("/products", h.handleListProducts())
		r.Get("/products/{id}", h.handleGetProduct())

		r.Group(func(r chi.Router) {
			r.Use(authenticate(log, d.Tokens))
			r.Use(requireRole(log, models.RoleUser, models.RoleModerator, models.RoleAdmin))

			r.Post("/checkout", h.handleCheckout())

			r.Get("/coupons/my", h.handleMyCoupons())
			r.Get("/coupons/validate/{code}", h.handleValidateCoupon())

			r.Get("/cart", h.handleGetCart())
			r.Put("/cart/items", h.handleReplaceCartItems())
			r.Delete("/cart/items/{itemId}", h.handleRemoveCartItem())
			r.Delete("/cart", h.handleClearCart())
			r.Post("/cart/merge", h.handleMergeCart())

			r.Get("/users/me", h.handleMe())

			r.Get("/orders", h.handleListOrders())
			r.Get("/orders/{id}", h.handleGetOrder())

			r.Group(func(r chi.Router) {
				r.Use(requireRole(log, models.RoleModerator, models.RoleAdmin))
				r.Patch("/orders/{id}/status", h.handleUpdateOrderStatus())
			})

			r.Group(func(r chi.Router) {
				r.Use(requireRole(log, models.RoleAdmin))
				r.Post("/coupons", h.handleCreateCoupon())
				r.Post("/products", h.handleCreateProduct())
				r.Patch("/products/{id}/stock", h.handleUpdateStock())
				r.Get("/users", h.handleListUsers())
			})
		})
	})

	return r
}
