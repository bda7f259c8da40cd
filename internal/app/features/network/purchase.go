// internal/app/features/network/purchase.go
package network

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	errorsfeature "github.com/dalemusser/uplinehub/internal/app/features/errors"
	"github.com/dalemusser/uplinehub/internal/app/system/inputval"
	"github.com/dalemusser/uplinehub/internal/app/system/timeouts"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServePurchase handles POST /network/purchases.
//
// A purchase whose settlement committed answers 200 even if the promotion
// cascade afterwards failed; the failure is reported in "cascade_error".
func (h *Handler) ServePurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorsfeature.Write(w, http.StatusBadRequest, "request body must be JSON.")
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		errorsfeature.Invalid(w, res)
		return
	}
	purchaser, _ := primitive.ObjectIDFromHex(strings.TrimSpace(req.PurchaserID))
	amount, _ := decimal.NewFromString(strings.TrimSpace(req.Amount.String()))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	result, err := h.Service.Purchase(ctx, purchaser, amount)
	if err != nil && result.Reference == "" {
		errorsfeature.Respond(w, h.Log, "purchase failed", err)
		return
	}

	resp := purchaseResponse{PurchaseResult: result}
	if err != nil {
		h.Log.Warn("promotion cascade failed after purchase",
			zap.String("user_id", purchaser.Hex()),
			zap.String("reference", result.Reference),
			zap.Error(err))
		resp.CascadeError = err.Error()
	}
	if req.PackageID != "" {
		h.Log.Debug("purchase package", zap.String("reference", result.Reference), zap.String("package_id", req.PackageID))
	}
	errorsfeature.JSON(w, http.StatusOK, resp)
}

// ServeDeposit handles POST /network/users/{id}/deposits.
func (h *Handler) ServeDeposit(w http.ResponseWriter, r *http.Request) {
	userID, ok := userParam(w, r)
	if !ok {
		return
	}
	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorsfeature.Write(w, http.StatusBadRequest, "request body must be JSON.")
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		errorsfeature.Invalid(w, res)
		return
	}
	amount, _ := decimal.NewFromString(strings.TrimSpace(req.Amount.String()))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ref, err := h.Service.Deposit(ctx, userID, amount)
	if err != nil {
		errorsfeature.Respond(w, h.Log, "deposit failed", err)
		return
	}
	errorsfeature.JSON(w, http.StatusOK, depositResponse{
		Reference: ref,
		Amount:    amount.Truncate(h.Service.Config().AmountScale),
	})
}
