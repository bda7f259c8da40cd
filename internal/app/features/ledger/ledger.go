// internal/app/features/ledger/ledger.go
package ledger

import (
	"context"
	"net/http"
	"strings"

	errorsfeature "github.com/dalemusser/uplinehub/internal/app/features/errors"
	metricsstore "github.com/dalemusser/uplinehub/internal/app/store/metrics"
	"github.com/dalemusser/uplinehub/internal/app/system/paging"
	"github.com/dalemusser/uplinehub/internal/app/system/timeouts"
	"github.com/dalemusser/uplinehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

type transactionsResponse struct {
	Transactions []models.Transaction `json:"transactions"`
	Paging       paging.Meta          `json:"paging"`
}

// ServeWallet handles GET /ledger/users/{id}/wallet.
func (h *Handler) ServeWallet(w http.ResponseWriter, r *http.Request) {
	id, ok := userParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	wallet, err := h.Wallets.GetByOwner(ctx, id)
	if err != nil {
		errorsfeature.Respond(w, h.Log, "get wallet failed", err)
		return
	}
	errorsfeature.JSON(w, http.StatusOK, wallet)
}

// ServeCompany handles GET /ledger/company.
func (h *Handler) ServeCompany(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	wallet, err := h.Wallets.Company(ctx)
	if err != nil {
		errorsfeature.Respond(w, h.Log, "get company wallet failed", err)
		return
	}
	errorsfeature.JSON(w, http.StatusOK, wallet)
}

// ServeTransactions handles GET /ledger/users/{id}/transactions: rows the
// user paid or received, newest first, paged with page and limit.
func (h *Handler) ServeTransactions(w http.ResponseWriter, r *http.Request) {
	id, ok := userParam(w, r)
	if !ok {
		return
	}
	page := paging.Parse(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Users.GetByID(ctx, id); err != nil {
		errorsfeature.Respond(w, h.Log, "get user failed", err)
		return
	}
	total, err := h.Txns.CountForUser(ctx, id)
	if err != nil {
		errorsfeature.Respond(w, h.Log, "count transactions failed", err)
		return
	}
	rows, err := h.Txns.ListForUser(ctx, id, page.Limit(), page.Offset())
	if err != nil {
		errorsfeature.Respond(w, h.Log, "list transactions failed", err)
		return
	}
	errorsfeature.JSON(w, http.StatusOK, transactionsResponse{Transactions: rows, Paging: page.Compute(total)})
}

// ServeReference handles GET /ledger/references/{ref}: every row written
// by one purchase, deposit or bonus.
func (h *Handler) ServeReference(w http.ResponseWriter, r *http.Request) {
	ref := strings.TrimSpace(chi.URLParam(r, "ref"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rows, err := h.Txns.ListByReference(ctx, ref)
	if err != nil {
		errorsfeature.Respond(w, h.Log, "list transactions by reference failed", err)
		return
	}
	if len(rows) == 0 {
		errorsfeature.Write(w, http.StatusNotFound, "no transactions for reference.")
		return
	}
	errorsfeature.JSON(w, http.StatusOK, map[string][]models.Transaction{"transactions": rows})
}

// ServeStats handles GET /ledger/stats: user, rank and ledger totals.
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	errorsfeature.JSON(w, http.StatusOK, metricsstore.FetchNetworkCounts(ctx, h.DB))
}
