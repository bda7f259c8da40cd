// internal/app/features/levels/list.go
package levels

import (
	"context"
	"net/http"
	"strings"

	errorsfeature "github.com/dalemusser/uplinehub/internal/app/features/errors"
	"github.com/dalemusser/uplinehub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServeList handles GET /levels, ordered by hierarchy.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	levels, err := h.Levels.List(ctx)
	if err != nil {
		errorsfeature.Respond(w, h.Log, "list levels failed", err)
		return
	}
	errorsfeature.JSON(w, http.StatusOK, listResponse{Levels: levels})
}

// ServeView handles GET /levels/{id}.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		errorsfeature.Write(w, http.StatusBadRequest, "level id must be a valid id.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	l, err := h.Levels.GetByID(ctx, id)
	if err != nil {
		errorsfeature.Respond(w, h.Log, "get level failed", err)
		return
	}
	errorsfeature.JSON(w, http.StatusOK, l)
}
