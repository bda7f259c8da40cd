// internal/app/features/ledger/handler.go
package ledger

import (
	"net/http"
	"strings"

	errorsfeature "github.com/dalemusser/uplinehub/internal/app/features/errors"
	closurestore "github.com/dalemusser/uplinehub/internal/app/store/closures"
	levelstore "github.com/dalemusser/uplinehub/internal/app/store/levels"
	transactionstore "github.com/dalemusser/uplinehub/internal/app/store/transactions"
	userlevelstore "github.com/dalemusser/uplinehub/internal/app/store/userlevels"
	userstore "github.com/dalemusser/uplinehub/internal/app/store/users"
	walletstore "github.com/dalemusser/uplinehub/internal/app/store/wallets"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves read-only views of wallets, ledger rows and rank history.
type Handler struct {
	Users      *userstore.Store
	Wallets    *walletstore.Store
	Txns       *transactionstore.Store
	Closures   *closurestore.Store
	Levels     *levelstore.Store
	UserLevels *userlevelstore.Store
	DB         *mongo.Database
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      userstore.New(db),
		Wallets:    walletstore.New(db),
		Txns:       transactionstore.New(db),
		Closures:   closurestore.New(db),
		Levels:     levelstore.New(db),
		UserLevels: userlevelstore.New(db),
		DB:         db,
		Log:        logger,
	}
}

func userParam(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		errorsfeature.Write(w, http.StatusBadRequest, "user id must be a valid id.")
		return primitive.NilObjectID, false
	}
	return id, true
}
