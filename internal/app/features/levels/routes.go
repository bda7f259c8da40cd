// internal/app/features/levels/routes.go
package levels

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter mounted under /levels.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Post("/", h.ServeCreate)
	r.Get("/{id}", h.ServeView)
	return r
}
