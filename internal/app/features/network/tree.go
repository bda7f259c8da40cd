// internal/app/features/network/tree.go
package network

import (
	"context"
	"net/http"

	errorsfeature "github.com/dalemusser/uplinehub/internal/app/features/errors"
	userstore "github.com/dalemusser/uplinehub/internal/app/store/users"
	"github.com/dalemusser/uplinehub/internal/app/system/network"
	"github.com/dalemusser/uplinehub/internal/app/system/timeouts"
	"github.com/dalemusser/uplinehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServePromotions handles POST /network/users/{id}/promotions: the user and
// its upline are re-evaluated and promoted where eligible.
func (h *Handler) ServePromotions(w http.ResponseWriter, r *http.Request) {
	userID, ok := userParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if !h.userExists(ctx, w, userID) {
		return
	}

	promos, err := h.Service.CheckAndPromoteAncestors(ctx, userID)
	resp := promotionsResponse{UserID: userID, Promotions: promos}
	if resp.Promotions == nil {
		resp.Promotions = []network.Promotion{}
	}
	if err != nil {
		resp.Errors = err.Error()
	}
	errorsfeature.JSON(w, http.StatusOK, resp)
}

// ServeUpline handles GET /network/users/{id}/upline, closest ancestor first.
func (h *Handler) ServeUpline(w http.ResponseWriter, r *http.Request) {
	h.serveTree(w, r, h.Store.Ascendants, func(e models.ClosureEntry) primitive.ObjectID { return e.AncestorID })
}

// ServeDownline handles GET /network/users/{id}/downline.
func (h *Handler) ServeDownline(w http.ResponseWriter, r *http.Request) {
	h.serveTree(w, r, h.Store.Descendants, func(e models.ClosureEntry) primitive.ObjectID { return e.DescendantID })
}

// ServeDirect handles GET /network/users/{id}/direct.
func (h *Handler) ServeDirect(w http.ResponseWriter, r *http.Request) {
	h.serveTree(w, r, h.Store.DirectDescendants, func(e models.ClosureEntry) primitive.ObjectID { return e.DescendantID })
}

type treeQuery func(ctx context.Context, userID primitive.ObjectID) ([]models.ClosureEntry, error)

func (h *Handler) serveTree(w http.ResponseWriter, r *http.Request, query treeQuery, other func(models.ClosureEntry) primitive.ObjectID) {
	userID, ok := userParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if !h.userExists(ctx, w, userID) {
		return
	}

	rows, err := query(ctx, userID)
	if err != nil {
		errorsfeature.Respond(w, h.Log, "closure query failed", err)
		return
	}
	resp := treeResponse{UserID: userID, Rows: make([]treeRow, 0, len(rows))}
	for _, e := range rows {
		resp.Rows = append(resp.Rows, treeRow{UserID: other(e), Depth: e.Depth, RootChildID: e.RootChildID})
	}
	errorsfeature.JSON(w, http.StatusOK, resp)
}

// ServeLevel handles GET /network/users/{id}/level. level is null when the
// user holds none.
func (h *Handler) ServeLevel(w http.ResponseWriter, r *http.Request) {
	userID, ok := userParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if !h.userExists(ctx, w, userID) {
		return
	}

	lvl, err := h.Store.ActiveLevel(ctx, userID)
	if err != nil {
		errorsfeature.Respond(w, h.Log, "active level lookup failed", err)
		return
	}
	errorsfeature.JSON(w, http.StatusOK, levelResponse{UserID: userID, Level: lvl})
}

func (h *Handler) userExists(ctx context.Context, w http.ResponseWriter, userID primitive.ObjectID) bool {
	if _, err := h.Store.GetUser(ctx, userID); err != nil {
		if errorsfeature.Status(err) == http.StatusNotFound {
			errorsfeature.Write(w, http.StatusNotFound, userstore.ErrNotFound.Error())
			return false
		}
		errorsfeature.Respond(w, h.Log, "user lookup failed", err)
		return false
	}
	return true
}
