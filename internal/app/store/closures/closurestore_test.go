package closurestore_test

import (
	"errors"
	"testing"

	closurestore "github.com/dalemusser/uplinehub/internal/app/store/closures"
	"github.com/dalemusser/uplinehub/internal/app/system/indexes"
	"github.com/dalemusser/uplinehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_TreeQueries(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := closurestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}

	// a -> b -> c, a -> d
	a := fixtures.CreateUser(ctx, "A", nil)
	b := fixtures.CreateUser(ctx, "B", &a.ID)
	c := fixtures.CreateUser(ctx, "C", &b.ID)
	d := fixtures.CreateUser(ctx, "D", &a.ID)

	ups, err := store.Ascendants(ctx, c.ID)
	if err != nil {
		t.Fatalf("Ascendants: %v", err)
	}
	if len(ups) != 2 || ups[0].AncestorID != b.ID || ups[1].AncestorID != a.ID {
		t.Fatalf("Ascendants should be closest first, got %+v", ups)
	}

	down, err := store.Descendants(ctx, a.ID)
	if err != nil {
		t.Fatalf("Descendants: %v", err)
	}
	if len(down) != 3 {
		t.Fatalf("Descendants: got %d rows, want 3", len(down))
	}
	for _, r := range down {
		if r.Depth == 0 {
			t.Error("Descendants must exclude the self-row")
		}
		if r.DescendantID == c.ID && (r.RootChildID == nil || *r.RootChildID != b.ID) {
			t.Errorf("C should be in B's branch, got %+v", r.RootChildID)
		}
	}

	direct, err := store.DirectDescendants(ctx, a.ID)
	if err != nil {
		t.Fatalf("DirectDescendants: %v", err)
	}
	seen := map[primitive.ObjectID]bool{}
	for _, r := range direct {
		seen[r.DescendantID] = true
	}
	if len(direct) != 2 || !seen[b.ID] || !seen[d.ID] {
		t.Errorf("DirectDescendants: got %+v", direct)
	}

	n, err := store.CountDescendants(ctx, a.ID)
	if err != nil {
		t.Fatalf("CountDescendants: %v", err)
	}
	if n != 3 {
		t.Errorf("CountDescendants: got %d, want 3", n)
	}
}

func TestStore_CreateForUser_Duplicate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := closurestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}

	a := fixtures.CreateUser(ctx, "A", nil)
	_, err := store.CreateForUser(ctx, a.ID, nil)
	if !errors.Is(err, closurestore.ErrDuplicateClosure) {
		t.Fatalf("expected ErrDuplicateClosure, got %v", err)
	}
}
