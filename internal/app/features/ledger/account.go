// internal/app/features/ledger/account.go
package ledger

import (
	"context"
	"net/http"
	"time"

	errorsfeature "github.com/dalemusser/uplinehub/internal/app/features/errors"
	"github.com/dalemusser/uplinehub/internal/app/system/timeouts"
	"github.com/dalemusser/uplinehub/internal/domain/models"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type summaryResponse struct {
	UserID        primitive.ObjectID `json:"user_id"`
	FullName      string             `json:"full_name"`
	Business      decimal.Decimal    `json:"business"`
	Balance       decimal.Decimal    `json:"balance"`
	DownlineCount int64              `json:"downline_count"`
	Hierarchy     int                `json:"hierarchy"`
	LevelName     string             `json:"level_name,omitempty"`
}

type historyItem struct {
	LevelID   primitive.ObjectID `json:"level_id"`
	LevelName string             `json:"level_name,omitempty"`
	Hierarchy int                `json:"hierarchy"`
	Active    bool               `json:"active"`
	StartDate time.Time          `json:"start_date"`
	EndDate   *time.Time         `json:"end_date,omitempty"`
}

// ServeSummary handles GET /ledger/users/{id}/summary: balance, business
// volume, downline size and current rank in one response.
func (h *Handler) ServeSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := userParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		errorsfeature.Respond(w, h.Log, "get user failed", err)
		return
	}
	wallet, err := h.Wallets.GetByOwner(ctx, id)
	if err != nil {
		errorsfeature.Respond(w, h.Log, "get wallet failed", err)
		return
	}
	downline, err := h.Closures.CountDescendants(ctx, id)
	if err != nil {
		errorsfeature.Respond(w, h.Log, "count downline failed", err)
		return
	}

	resp := summaryResponse{
		UserID:        u.ID,
		FullName:      u.FullName,
		Business:      u.BusinessDone,
		Balance:       wallet.Balance,
		DownlineCount: downline,
	}
	active, err := h.UserLevels.Active(ctx, id)
	if err != nil {
		errorsfeature.Respond(w, h.Log, "get active level failed", err)
		return
	}
	if active != nil {
		resp.Hierarchy = active.Hierarchy
		if l, err := h.Levels.GetByID(ctx, active.LevelID); err == nil {
			resp.LevelName = l.Name
		}
	}
	errorsfeature.JSON(w, http.StatusOK, resp)
}

// ServeLevelHistory handles GET /ledger/users/{id}/levels: every rank the
// user has held, oldest first.
func (h *Handler) ServeLevelHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := userParam(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Users.GetByID(ctx, id); err != nil {
		errorsfeature.Respond(w, h.Log, "get user failed", err)
		return
	}
	rows, err := h.UserLevels.History(ctx, id)
	if err != nil {
		errorsfeature.Respond(w, h.Log, "level history failed", err)
		return
	}

	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.LevelID)
	}
	levels, err := h.Levels.ListByIDs(ctx, ids)
	if err != nil {
		errorsfeature.Respond(w, h.Log, "load levels failed", err)
		return
	}

	items := make([]historyItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, toHistoryItem(row, levels[row.LevelID]))
	}
	errorsfeature.JSON(w, http.StatusOK, map[string][]historyItem{"levels": items})
}

func toHistoryItem(row models.UserLevel, l models.Level) historyItem {
	return historyItem{
		LevelID:   row.LevelID,
		LevelName: l.Name,
		Hierarchy: row.Hierarchy,
		Active:    row.Active,
		StartDate: row.StartDate,
		EndDate:   row.EndDate,
	}
}
