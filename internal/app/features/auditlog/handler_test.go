package auditlog_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/uplinehub/internal/app/features/auditlog"
	"github.com/dalemusser/uplinehub/internal/app/store/audit"
	"github.com/dalemusser/uplinehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type listBody struct {
	Events []struct {
		EventType string `json:"event_type"`
		UserID    string `json:"user_id"`
		Reference string `json:"reference"`
	} `json:"events"`
	Paging struct {
		Page       int   `json:"page"`
		Total      int64 `json:"total"`
		TotalPages int   `json:"total_pages"`
		HasNext    bool  `json:"has_next"`
	} `json:"paging"`
}

func seed(t *testing.T) (http.Handler, primitive.ObjectID) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	store := audit.New(db)
	user := primitive.NewObjectID()
	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	events := []audit.Event{
		{Timestamp: base, Category: audit.CategoryAdmin, EventType: audit.EventUserSignedUp, UserID: &user, Success: true},
		{Timestamp: base.Add(time.Hour), Category: audit.CategoryNetwork, EventType: audit.EventPassiveIncomeDistributed, UserID: &user, Reference: "ref-1", Success: true},
		{Timestamp: base.Add(48 * time.Hour), Category: audit.CategoryNetwork, EventType: audit.EventLevelPromoted, Success: true},
	}
	for _, e := range events {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}
	return auditlog.Routes(auditlog.NewHandler(db, zap.NewNop())), user
}

func get(t *testing.T, h http.Handler, url string) (*httptest.ResponseRecorder, listBody) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	var body listBody
	if rec.Code == http.StatusOK {
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return rec, body
}

func TestServeList_Filters(t *testing.T) {
	h, user := seed(t)

	tests := []struct {
		name  string
		url   string
		want  int
		first string
	}{
		{"all newest first", "/", 3, audit.EventLevelPromoted},
		{"category", "/?category=network", 2, audit.EventLevelPromoted},
		{"event type", "/?event_type=user_signed_up", 1, audit.EventUserSignedUp},
		{"user", "/?user_id=" + user.Hex(), 2, audit.EventPassiveIncomeDistributed},
		{"reference", "/?reference=ref-1", 1, audit.EventPassiveIncomeDistributed},
		{"date range", "/?start_date=2024-03-10&end_date=2024-03-10", 2, audit.EventPassiveIncomeDistributed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := get(t, h, tt.url)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			if len(body.Events) != tt.want || body.Paging.Total != int64(tt.want) {
				t.Fatalf("got %d events (total %d), want %d", len(body.Events), body.Paging.Total, tt.want)
			}
			if body.Events[0].EventType != tt.first {
				t.Errorf("first event: got %q, want %q", body.Events[0].EventType, tt.first)
			}
		})
	}
}

func TestServeList_Paging(t *testing.T) {
	h, _ := seed(t)

	_, body := get(t, h, "/?limit=2")
	if len(body.Events) != 2 || !body.Paging.HasNext || body.Paging.TotalPages != 2 {
		t.Fatalf("page 1: got %d events, paging %+v", len(body.Events), body.Paging)
	}
	_, body = get(t, h, "/?limit=2&page=2")
	if len(body.Events) != 1 || body.Paging.HasNext {
		t.Fatalf("page 2: got %d events, paging %+v", len(body.Events), body.Paging)
	}
	if body.Events[0].EventType != audit.EventUserSignedUp {
		t.Errorf("page 2 should hold the oldest event, got %q", body.Events[0].EventType)
	}
}

func TestServeList_BadInput(t *testing.T) {
	h, _ := seed(t)
	for _, url := range []string{
		"/?user_id=nope",
		"/?start_date=03/10/2024",
		"/?end_date=tomorrow",
		"/?category=auth",
	} {
		if rec, _ := get(t, h, url); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", url, rec.Code)
		}
	}
}

func TestServeEventTypes(t *testing.T) {
	h, _ := seed(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/event-types?category=admin", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string][]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body["event_types"]) != 3 {
		t.Errorf("admin event types: got %v", body["event_types"])
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/event-types?category=bogus", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown category: expected 400, got %d", rec.Code)
	}
}
