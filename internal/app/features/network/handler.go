// internal/app/features/network/handler.go
package network

import (
	"net/http"
	"strings"

	errorsfeature "github.com/dalemusser/uplinehub/internal/app/features/errors"
	"github.com/dalemusser/uplinehub/internal/app/system/network"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler exposes the referral engine over JSON.
type Handler struct {
	Service *network.Service
	Store   network.Store
	Log     *zap.Logger
}

// NewHandler constructs a network Handler. store serves the read-only tree
// projections; every write goes through svc.
func NewHandler(svc *network.Service, store network.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Service: svc,
		Store:   store,
		Log:     logger,
	}
}

// userParam parses the {id} URL parameter, writing a 400 when it is not an ObjectID.
func userParam(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		errorsfeature.Write(w, http.StatusBadRequest, "user id must be a valid id.")
		return primitive.NilObjectID, false
	}
	return id, true
}
