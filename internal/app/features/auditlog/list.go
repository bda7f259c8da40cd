// internal/app/features/auditlog/list.go
package auditlog

import (
	"context"
	"net/http"
	"strings"
	"time"

	errorsfeature "github.com/dalemusser/uplinehub/internal/app/features/errors"
	"github.com/dalemusser/uplinehub/internal/app/store/audit"
	"github.com/dalemusser/uplinehub/internal/app/system/paging"
	"github.com/dalemusser/uplinehub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const dateLayout = "2006-01-02"

// ServeList handles GET /audit, newest first, with optional filters
// category, event_type, user_id, reference, start_date and end_date.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := paging.Parse(r)

	filter := audit.QueryFilter{
		Category:  strings.TrimSpace(q.Get("category")),
		EventType: strings.TrimSpace(q.Get("event_type")),
		Reference: strings.TrimSpace(q.Get("reference")),
		Limit:     page.Limit(),
		Offset:    page.Offset(),
	}
	if filter.Category != "" && eventTypesForCategory(filter.Category) == nil {
		errorsfeature.Write(w, http.StatusBadRequest, "category must be network or admin.")
		return
	}

	if s := strings.TrimSpace(q.Get("user_id")); s != "" {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			errorsfeature.Write(w, http.StatusBadRequest, "user_id must be a valid id.")
			return
		}
		filter.UserID = &id
	}
	if s := strings.TrimSpace(q.Get("start_date")); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			errorsfeature.Write(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD.")
			return
		}
		filter.StartTime = &t
	}
	if s := strings.TrimSpace(q.Get("end_date")); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			errorsfeature.Write(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD.")
			return
		}
		// End of day
		endOfDay := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndTime = &endOfDay
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		errorsfeature.Respond(w, h.Log, "query audit events failed", err)
		return
	}
	total, err := h.Events.CountByFilter(ctx, filter)
	if err != nil {
		errorsfeature.Respond(w, h.Log, "count audit events failed", err)
		return
	}

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		items = append(items, toItem(e))
	}
	errorsfeature.JSON(w, http.StatusOK, listResponse{Events: items, Paging: page.Compute(total)})
}

// ServeEventTypes handles GET /audit/event-types, optionally narrowed by category.
func (h *Handler) ServeEventTypes(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	types := eventTypesForCategory(category)
	if types == nil {
		errorsfeature.Write(w, http.StatusBadRequest, "category must be network or admin.")
		return
	}
	errorsfeature.JSON(w, http.StatusOK, map[string][]string{"event_types": types})
}
