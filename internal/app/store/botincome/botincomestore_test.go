package botincomestore_test

import (
	"testing"

	botincomestore "github.com/dalemusser/uplinehub/internal/app/store/botincome"
	"github.com/dalemusser/uplinehub/internal/testutil"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_NotifyAccumulates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := botincomestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := primitive.NewObjectID()
	got, err := store.Get(ctx, u)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.PassiveIncomeTotal.IsZero() {
		t.Errorf("expected zero before any notification, got %s", got.PassiveIncomeTotal)
	}

	for _, amt := range []string{"1.25", "3.75"} {
		if err := store.Notify(ctx, u, decimal.RequireFromString(amt)); err != nil {
			t.Fatalf("Notify: %v", err)
		}
	}

	got, err = store.Get(ctx, u)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.PassiveIncomeTotal.Equal(decimal.NewFromInt(5)) {
		t.Errorf("total: got %s, want 5", got.PassiveIncomeTotal)
	}
}
