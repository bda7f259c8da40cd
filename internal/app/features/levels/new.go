// internal/app/features/levels/new.go
package levels

import (
	"context"
	"encoding/json"
	"net/http"

	errorsfeature "github.com/dalemusser/uplinehub/internal/app/features/errors"
	levelstore "github.com/dalemusser/uplinehub/internal/app/store/levels"
	"github.com/dalemusser/uplinehub/internal/app/system/inputval"
	"github.com/dalemusser/uplinehub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// ServeCreate handles POST /levels.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorsfeature.Write(w, http.StatusBadRequest, "request body must be JSON.")
		return
	}
	req.clean()
	if res := inputval.Validate(req); res.HasErrors() {
		errorsfeature.Invalid(w, res)
		return
	}

	l := req.level()
	if err := levelstore.Validate(l); err != nil {
		errorsfeature.Write(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	created, err := h.Levels.Create(ctx, l)
	if err != nil {
		errorsfeature.Respond(w, h.Log, "create level failed", err)
		return
	}

	h.Log.Info("level created",
		zap.String("level_id", created.ID.Hex()),
		zap.Int("hierarchy", created.Hierarchy))
	h.Audit.LevelCreated(ctx, created.ID, created.Hierarchy)
	errorsfeature.JSON(w, http.StatusCreated, created)
}
