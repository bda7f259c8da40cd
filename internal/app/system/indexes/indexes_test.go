package indexes_test

import (
	"context"
	"testing"

	"github.com/dalemusser/uplinehub/internal/app/system/indexes"
	"github.com/dalemusser/uplinehub/internal/testutil"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func indexNames(t *testing.T, ctx context.Context, db *mongo.Database, coll string) map[string]bool {
	t.Helper()
	cur, err := db.Collection(coll).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = true
		}
	}
	return names
}

func TestEnsureAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// EnsureAll should succeed on a clean database
	err := indexes.EnsureAll(ctx, db)
	if err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	// Second call should also succeed (idempotent)
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	tests := []struct {
		coll string
		want []string
	}{
		{"users", []string{"idx_users_referredby", "idx_users_status_fullnameci__id"}},
		{"user_closures", []string{
			"uniq_closures_ancestor_descendant",
			"idx_closures_descendant_depth",
			"idx_closures_ancestor_depth",
			"idx_closures_ancestor_rootchild",
		}},
		{"levels", []string{"uniq_levels_hierarchy"}},
		{"user_levels", []string{"uniq_userlevels_user_active", "idx_userlevels_user_start"}},
		{"wallets", []string{"uniq_wallets_owner_user", "uniq_wallets_company"}},
		{"transactions", []string{"idx_txns_reference", "idx_txns_touser_createdat", "idx_txns_fromuser_createdat"}},
		{"bot_incomes", []string{"uniq_botincomes_user"}},
		{"audit_events", []string{"idx_audit_user_ts", "idx_audit_reference", "idx_audit_category_ts"}},
	}

	for _, tt := range tests {
		t.Run(tt.coll, func(t *testing.T) {
			names := indexNames(t, ctx, db, tt.coll)
			for _, name := range tt.want {
				if !names[name] {
					t.Errorf("expected index %q to exist on %s collection", name, tt.coll)
				}
			}
		})
	}
}

func TestEnsureAll_UniqueClosurePair(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	a, d := primitive.NewObjectID(), primitive.NewObjectID()
	row := bson.M{"ancestor_id": a, "descendant_id": d, "depth": 1}
	if _, err := db.Collection("user_closures").InsertOne(ctx, row); err != nil {
		t.Fatalf("Insert closure failed: %v", err)
	}
	_, err := db.Collection("user_closures").InsertOne(ctx, bson.M{"ancestor_id": a, "descendant_id": d, "depth": 2})
	if !wafflemongo.IsDup(err) {
		t.Errorf("expected duplicate key error for (ancestor_id, descendant_id), got %v", err)
	}
}

func TestEnsureAll_OneActiveLevelPerUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	user := primitive.NewObjectID()
	coll := db.Collection("user_levels")

	// Any number of closed rows is fine.
	for i := 0; i < 2; i++ {
		if _, err := coll.InsertOne(ctx, bson.M{"user_id": user, "active": false, "hierarchy": i + 1}); err != nil {
			t.Fatalf("Insert inactive row %d failed: %v", i, err)
		}
	}
	if _, err := coll.InsertOne(ctx, bson.M{"user_id": user, "active": true, "hierarchy": 3}); err != nil {
		t.Fatalf("Insert active row failed: %v", err)
	}
	_, err := coll.InsertOne(ctx, bson.M{"user_id": user, "active": true, "hierarchy": 4})
	if !wafflemongo.IsDup(err) {
		t.Errorf("expected duplicate key error for second active row, got %v", err)
	}
}

func TestEnsureAll_SingleCompanyWallet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	coll := db.Collection("wallets")
	if _, err := coll.InsertOne(ctx, bson.M{"kind": "company"}); err != nil {
		t.Fatalf("Insert company wallet failed: %v", err)
	}
	if _, err := coll.InsertOne(ctx, bson.M{"kind": "company"}); !wafflemongo.IsDup(err) {
		t.Errorf("expected duplicate key error for second company wallet, got %v", err)
	}
}
