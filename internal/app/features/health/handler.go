package health

import (
	"context"
	"encoding/json"
	"net/http"

	walletstore "github.com/dalemusser/uplinehub/internal/app/store/wallets"
	"github.com/dalemusser/uplinehub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client  *mongo.Client
	Wallets *walletstore.Store
	Log     *zap.Logger
}

// NewHandler constructs a health Handler for db.
func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Client:  db.Client(),
		Wallets: walletstore.New(db),
		Log:     logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Ledger   string `json:"ledger,omitempty"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "ledger":"ready" }
//
// "ledger" is "missing_company_wallet" until startup has created the company
// wallet; purchases fail until then, but the service is still up.
//
// On DB failure: 503 and
//
//	{ "status":"error", "message":"Database unavailable", "error":"…"}
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
	}

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	if _, err := h.Wallets.Company(ctx); err != nil {
		h.Log.Warn("health-check: company wallet lookup failed", zap.Error(err))
		resp.Ledger = "missing_company_wallet"
	} else {
		resp.Ledger = "ready"
	}

	_ = json.NewEncoder(w).Encode(resp)
}
