// internal/app/features/ledger/routes.go
package ledger

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter mounted under /ledger.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/company", h.ServeCompany)
	r.Get("/stats", h.ServeStats)
	r.Get("/references/{ref}", h.ServeReference)
	r.Route("/users/{id}", func(r chi.Router) {
		r.Get("/summary", h.ServeSummary)
		r.Get("/levels", h.ServeLevelHistory)
		r.Get("/wallet", h.ServeWallet)
		r.Get("/transactions", h.ServeTransactions)
	})
	return r
}
