// internal/app/features/network/routes.go
package network

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns a subrouter mounted under /network. mw wraps every route,
// typically with the write rate limiter.
func Routes(h *Handler, mw ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(mw...)
	r.Post("/signups", h.ServeSignup)
	r.Post("/purchases", h.ServePurchase)

	r.Route("/users/{id}", func(r chi.Router) {
		r.Post("/deposits", h.ServeDeposit)
		r.Post("/promotions", h.ServePromotions)
		r.Get("/upline", h.ServeUpline)
		r.Get("/downline", h.ServeDownline)
		r.Get("/direct", h.ServeDirect)
		r.Get("/level", h.ServeLevel)
	})
	return r
}
