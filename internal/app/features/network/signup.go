// internal/app/features/network/signup.go
package network

import (
	"context"
	"encoding/json"
	"net/http"

	errorsfeature "github.com/dalemusser/uplinehub/internal/app/features/errors"
	"github.com/dalemusser/uplinehub/internal/app/system/inputval"
	"github.com/dalemusser/uplinehub/internal/app/system/normalize"
	"github.com/dalemusser/uplinehub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServeSignup handles POST /network/signups.
//
//	{ "full_name": "Ada", "parent_id": "65f…" }
//
// The user, its wallet and its closure rows are created; 201 returns the user.
func (h *Handler) ServeSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorsfeature.Write(w, http.StatusBadRequest, "request body must be JSON.")
		return
	}
	req.FullName = normalize.Name(req.FullName)
	if res := inputval.Validate(req); res.HasErrors() {
		errorsfeature.Invalid(w, res)
		return
	}

	var parent *primitive.ObjectID
	if req.ParentID != "" {
		id, _ := primitive.ObjectIDFromHex(req.ParentID)
		parent = &id
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Service.Signup(ctx, req.FullName, parent)
	if err != nil {
		errorsfeature.Respond(w, h.Log, "signup failed", err)
		return
	}
	errorsfeature.JSON(w, http.StatusCreated, u)
}
