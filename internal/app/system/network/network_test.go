package network_test

import (
	"context"
	"errors"
	"testing"

	closurestore "github.com/dalemusser/uplinehub/internal/app/store/closures"
	userlevelstore "github.com/dalemusser/uplinehub/internal/app/store/userlevels"
	walletstore "github.com/dalemusser/uplinehub/internal/app/store/wallets"
	"github.com/dalemusser/uplinehub/internal/app/system/network"
	"github.com/dalemusser/uplinehub/internal/domain/models"
	"github.com/dalemusser/uplinehub/internal/testutil"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func intp(n int) *int { return &n }

func newService(m *testutil.MemNetwork) *network.Service {
	return network.New(m, m, m, nil, zap.NewNop(), network.DefaultConfig())
}

// threeLevels configures hierarchy 1 (5%), 2 (3%), 3 (2%) with no conditions.
func threeLevels(m *testutil.MemNetwork) {
	m.AddLevel(models.Level{Name: "Bronze", Hierarchy: 1, PassiveIncomePercentage: d("5")})
	m.AddLevel(models.Level{Name: "Silver", Hierarchy: 2, PassiveIncomePercentage: d("3")})
	m.AddLevel(models.Level{Name: "Gold", Hierarchy: 3, PassiveIncomePercentage: d("2")})
}

func TestSignup_ClosureRows(t *testing.T) {
	m := testutil.NewMemNetwork()
	svc := newService(m)
	ctx := context.Background()

	root, err := svc.Signup(ctx, "Root", nil)
	if err != nil {
		t.Fatalf("Signup root: %v", err)
	}
	a, err := svc.Signup(ctx, "A", &root.ID)
	if err != nil {
		t.Fatalf("Signup a: %v", err)
	}
	b, err := svc.Signup(ctx, "B", &a.ID)
	if err != nil {
		t.Fatalf("Signup b: %v", err)
	}

	type key struct{ anc, desc primitive.ObjectID }
	got := map[key]models.ClosureEntry{}
	selfRows := map[primitive.ObjectID]int{}
	for _, c := range m.Closures() {
		got[key{c.AncestorID, c.DescendantID}] = c
		if c.AncestorID == c.DescendantID {
			selfRows[c.AncestorID]++
		}
	}

	for _, u := range []primitive.ObjectID{root.ID, a.ID, b.ID} {
		if selfRows[u] != 1 {
			t.Errorf("user %s: %d self rows, want 1", u.Hex(), selfRows[u])
		}
	}

	tests := []struct {
		name      string
		anc, desc primitive.ObjectID
		depth     int
		branch    primitive.ObjectID
	}{
		{"root->a", root.ID, a.ID, 1, a.ID},
		{"a->b", a.ID, b.ID, 1, b.ID},
		{"root->b", root.ID, b.ID, 2, a.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := got[key{tt.anc, tt.desc}]
			if !ok {
				t.Fatalf("missing closure row")
			}
			if c.Depth != tt.depth {
				t.Errorf("depth: got %d, want %d", c.Depth, tt.depth)
			}
			if c.RootChildID == nil || *c.RootChildID != tt.branch {
				t.Errorf("root_child_id: got %v, want %s", c.RootChildID, tt.branch.Hex())
			}
		})
	}
	if len(got) != 6 {
		t.Errorf("closure rows: got %d, want 6", len(got))
	}
}

func TestSignup_UnknownParent(t *testing.T) {
	m := testutil.NewMemNetwork()
	svc := newService(m)

	ghost := primitive.NewObjectID()
	if _, err := svc.Signup(context.Background(), "Orphan", &ghost); err == nil {
		t.Fatal("expected error for unknown parent")
	}
}

func TestOnUserSignupCompleted_ConflictIsFatal(t *testing.T) {
	m := testutil.NewMemNetwork()
	svc := newService(m)
	ctx := context.Background()

	root := m.AddUser("Root", nil)
	_, err := svc.OnUserSignupCompleted(ctx, root.ID, nil)
	if !errors.Is(err, closurestore.ErrDuplicateClosure) {
		t.Fatalf("expected ErrDuplicateClosure, got %v", err)
	}
}

func TestOnUserSignupCompleted_OtherErrorsSwallowed(t *testing.T) {
	m := testutil.NewMemNetwork()
	svc := newService(m)

	m.ClosuresErr = errors.New("connection reset")
	if _, err := svc.OnUserSignupCompleted(context.Background(), primitive.NewObjectID(), nil); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestOnUserSignupCompleted_FallbackEdge(t *testing.T) {
	m := testutil.NewMemNetwork()
	svc := newService(m)

	// parent exists as a user but has no closure rows
	parent, err := m.CreateUser(context.Background(), models.User{FullName: "Legacy"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	child := primitive.NewObjectID()
	res, err := svc.OnUserSignupCompleted(context.Background(), child, &parent.ID)
	if err != nil {
		t.Fatalf("OnUserSignupCompleted: %v", err)
	}
	if !res.FallbackEdge || len(res.Rows) != 2 {
		t.Fatalf("expected self row + direct edge fallback, got %+v", res)
	}
}

func TestDistribute_RangeCoverageScenario(t *testing.T) {
	m := testutil.NewMemNetwork()
	threeLevels(m)
	svc := newService(m)

	top := m.AddUser("Top", nil)
	near := m.AddUser("Near", &top.ID)
	buyer := m.AddUser("Buyer", &near.ID)
	m.SetHierarchy(near.ID, 1)
	m.SetHierarchy(top.ID, 3)
	m.Fund(buyer.ID, d("1000"))

	res, err := svc.DistributePassiveIncome(context.Background(), buyer.ID, d("1000"), decimal.Zero, decimal.Zero)
	if err != nil {
		t.Fatalf("DistributePassiveIncome: %v", err)
	}

	if len(res.PaidOut) != 2 {
		t.Fatalf("paid out: got %d, want 2", len(res.PaidOut))
	}
	if res.PaidOut[0].AncestorID != near.ID || !res.PaidOut[0].Amount.Equal(d("50")) {
		t.Errorf("near: got %+v", res.PaidOut[0])
	}
	if res.PaidOut[1].AncestorID != top.ID || !res.PaidOut[1].Amount.Equal(d("50")) {
		t.Errorf("top: got %+v", res.PaidOut[1])
	}
	if !res.UndistributedRemainder.Equal(d("900")) {
		t.Errorf("remainder: got %s, want 900", res.UndistributedRemainder)
	}

	if !m.Balance(buyer.ID).IsZero() {
		t.Errorf("buyer balance: got %s, want 0", m.Balance(buyer.ID))
	}
	if !m.Balance(near.ID).Equal(d("50")) || !m.Balance(top.ID).Equal(d("50")) {
		t.Errorf("ancestor balances: near %s top %s", m.Balance(near.ID), m.Balance(top.ID))
	}
	if !m.CompanyBalance().Equal(d("900")) {
		t.Errorf("company: got %s, want 900", m.CompanyBalance())
	}
	if !m.BotIncome(near.ID).Equal(d("50")) {
		t.Errorf("bot income near: got %s", m.BotIncome(near.ID))
	}

	kinds := map[string]int{}
	for _, tx := range m.Transactions() {
		if tx.Reference != res.Reference {
			t.Errorf("transaction %s has reference %q, want %q", tx.Kind, tx.Reference, res.Reference)
		}
		kinds[tx.Kind]++
	}
	if kinds[models.TxnPassiveIncome] != 2 || kinds[models.TxnUndistributedPassive] != 1 {
		t.Errorf("transaction kinds: %v", kinds)
	}
}

func TestDistribute_Boundaries(t *testing.T) {
	tests := []struct {
		name  string
		setup func(m *testutil.MemNetwork) primitive.ObjectID
	}{
		{"no ancestors", func(m *testutil.MemNetwork) primitive.ObjectID {
			return m.AddUser("Alone", nil).ID
		}},
		{"purchaser at max hierarchy", func(m *testutil.MemNetwork) primitive.ObjectID {
			top := m.AddUser("Top", nil)
			buyer := m.AddUser("Buyer", &top.ID)
			m.SetHierarchy(top.ID, 3)
			m.SetHierarchy(buyer.ID, 3)
			return buyer.ID
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testutil.NewMemNetwork()
			threeLevels(m)
			svc := newService(m)
			buyer := tt.setup(m)
			m.Fund(buyer, d("500"))

			res, err := svc.DistributePassiveIncome(context.Background(), buyer, d("500"), decimal.Zero, decimal.Zero)
			if err != nil {
				t.Fatalf("DistributePassiveIncome: %v", err)
			}
			if len(res.PaidOut) != 0 {
				t.Errorf("paid out: got %d, want 0", len(res.PaidOut))
			}
			if !res.UndistributedRemainder.Equal(d("500")) {
				t.Errorf("remainder: got %s, want 500", res.UndistributedRemainder)
			}
		})
	}
}

func TestDistribute_AbortsWithoutPartialPayout(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(m *testutil.MemNetwork, buyer, near primitive.ObjectID)
		wantErr error
	}{
		{"insufficient funds", func(m *testutil.MemNetwork, buyer, _ primitive.ObjectID) {
			m.Fund(buyer, d("10"))
		}, walletstore.ErrInsufficientFunds},
		{"ancestor wallet missing", func(m *testutil.MemNetwork, buyer, near primitive.ObjectID) {
			m.Fund(buyer, d("1000"))
			m.DropWallet(near)
		}, walletstore.ErrWalletNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testutil.NewMemNetwork()
			threeLevels(m)
			svc := newService(m)
			top := m.AddUser("Top", nil)
			near := m.AddUser("Near", &top.ID)
			buyer := m.AddUser("Buyer", &near.ID)
			m.SetHierarchy(near.ID, 1)
			m.SetHierarchy(top.ID, 3)
			tt.prepare(m, buyer.ID, near.ID)
			before := m.Balance(buyer.ID)

			_, err := svc.Purchase(context.Background(), buyer.ID, d("1000"))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if !m.Balance(buyer.ID).Equal(before) {
				t.Errorf("buyer balance changed: %s -> %s", before, m.Balance(buyer.ID))
			}
			if !m.Balance(top.ID).IsZero() || !m.CompanyBalance().IsZero() {
				t.Error("payout applied despite abort")
			}
			if len(m.Transactions()) != 0 {
				t.Errorf("transactions recorded: %d", len(m.Transactions()))
			}
			if !m.Business(buyer.ID).IsZero() {
				t.Errorf("business added despite abort: %s", m.Business(buyer.ID))
			}
		})
	}
}

func TestPurchase_SplitsAndAddsBusiness(t *testing.T) {
	m := testutil.NewMemNetwork()
	threeLevels(m)
	svc := newService(m)

	top := m.AddUser("Top", nil)
	buyer := m.AddUser("Buyer", &top.ID)
	m.SetHierarchy(top.ID, 3)
	m.Fund(buyer.ID, d("2000"))

	res, err := svc.Purchase(context.Background(), buyer.ID, d("1000"))
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	// pool 100, top covers all three steps = 10% of pool
	if !res.Pool.Equal(d("100")) || !res.CompanyBase.Equal(d("900")) {
		t.Errorf("split: pool %s company %s", res.Pool, res.CompanyBase)
	}
	if !m.Balance(top.ID).Equal(d("10")) {
		t.Errorf("top: got %s, want 10", m.Balance(top.ID))
	}
	if !m.CompanyBalance().Equal(d("990")) {
		t.Errorf("company: got %s, want 990", m.CompanyBalance())
	}
	if !m.Balance(buyer.ID).Equal(d("1000")) {
		t.Errorf("buyer: got %s, want 1000", m.Balance(buyer.ID))
	}
	if !m.Business(buyer.ID).Equal(d("1000")) {
		t.Errorf("business: got %s, want 1000", m.Business(buyer.ID))
	}
}

func TestPurchase_InvalidAmount(t *testing.T) {
	m := testutil.NewMemNetwork()
	svc := newService(m)
	buyer := m.AddUser("Buyer", nil)

	for _, amt := range []string{"0", "-5", "0.001"} {
		if _, err := svc.Purchase(context.Background(), buyer.ID, d(amt)); !errors.Is(err, network.ErrInvalidAmount) {
			t.Errorf("amount %s: expected ErrInvalidAmount, got %v", amt, err)
		}
	}
}

func TestPromoteUserIfEligible_Idempotent(t *testing.T) {
	m := testutil.NewMemNetwork()
	threeLevels(m)
	svc := newService(m)
	u := m.AddUser("U", nil)
	ctx := context.Background()

	p, ok, err := svc.PromoteUserIfEligible(ctx, u.ID)
	if err != nil || !ok {
		t.Fatalf("first promotion: ok=%v err=%v", ok, err)
	}
	// No conditions anywhere: greedy search jumps straight to the top.
	if p.FromHierarchy != 0 || p.ToHierarchy != 3 {
		t.Errorf("promotion: got %d->%d, want 0->3", p.FromHierarchy, p.ToHierarchy)
	}

	_, ok, err = svc.PromoteUserIfEligible(ctx, u.ID)
	if err != nil || ok {
		t.Fatalf("second promotion: ok=%v err=%v", ok, err)
	}
	if n := len(m.LevelHistory(u.ID)); n != 1 {
		t.Errorf("level rows: got %d, want 1", n)
	}
}

func TestPromoteUserIfEligible_ClosesPreviousRow(t *testing.T) {
	m := testutil.NewMemNetwork()
	m.AddLevel(models.Level{Name: "Bronze", Hierarchy: 1})
	m.AddLevel(models.Level{Name: "Silver", Hierarchy: 2, Conditions: []models.Condition{
		{Type: models.ConditionBusiness, Scope: models.ScopeDirect, Value: d("100")},
	}})
	svc := newService(m)
	ctx := context.Background()

	u := m.AddUser("U", nil)
	child := m.AddUser("C", &u.ID)
	if _, ok, _ := svc.PromoteUserIfEligible(ctx, u.ID); !ok {
		t.Fatal("expected promotion to Bronze")
	}

	m.SetBusiness(child.ID, d("100"))
	p, ok, err := svc.PromoteUserIfEligible(ctx, u.ID)
	if err != nil || !ok || p.ToHierarchy != 2 {
		t.Fatalf("expected promotion to Silver, got %+v ok=%v err=%v", p, ok, err)
	}

	hist := m.LevelHistory(u.ID)
	if len(hist) != 2 {
		t.Fatalf("history: got %d rows, want 2", len(hist))
	}
	if hist[0].Active || hist[0].EndDate == nil {
		t.Error("previous row not closed")
	}
	if !hist[1].Active || hist[1].EndDate != nil {
		t.Error("new row not active")
	}
}

func TestPromoteUserIfEligible_RetriesActiveLevelConflict(t *testing.T) {
	m := testutil.NewMemNetwork()
	threeLevels(m)
	svc := newService(m)
	u := m.AddUser("U", nil)
	m.AssignConflicts[u.ID] = 1

	p, ok, err := svc.PromoteUserIfEligible(context.Background(), u.ID)
	if err != nil || !ok {
		t.Fatalf("expected promotion after one conflict, got ok=%v err=%v", ok, err)
	}
	if p.ToHierarchy != 3 {
		t.Errorf("promotion: got %d, want 3", p.ToHierarchy)
	}

	hist := m.LevelHistory(u.ID)
	active := 0
	for _, ul := range hist {
		if ul.Active {
			active++
		}
	}
	if len(hist) != 1 || active != 1 {
		t.Errorf("level rows: got %d rows with %d active, want 1 and 1", len(hist), active)
	}
}

func TestPromoteUserIfEligible_GivesUpAfterRepeatedConflicts(t *testing.T) {
	m := testutil.NewMemNetwork()
	threeLevels(m)
	svc := newService(m)
	u := m.AddUser("U", nil)
	m.AssignConflicts[u.ID] = 5

	_, ok, err := svc.PromoteUserIfEligible(context.Background(), u.ID)
	if ok || !errors.Is(err, userlevelstore.ErrActiveLevelConflict) {
		t.Fatalf("expected ErrActiveLevelConflict, got ok=%v err=%v", ok, err)
	}
	if left := m.AssignConflicts[u.ID]; left != 2 {
		t.Errorf("attempts: %d conflicts left, want 2 (three attempts)", left)
	}
	if n := len(m.LevelHistory(u.ID)); n != 0 {
		t.Errorf("level rows: got %d, want 0", n)
	}
}

func TestPromoteUserIfEligible_UnknownConditionType(t *testing.T) {
	m := testutil.NewMemNetwork()
	m.AddLevel(models.Level{Name: "Odd", Hierarchy: 1, Conditions: []models.Condition{
		{Type: "KARMA", Scope: models.ScopeNetwork, Value: d("0")},
	}})
	svc := newService(m)
	u := m.AddUser("U", nil)

	_, ok, err := svc.PromoteUserIfEligible(context.Background(), u.ID)
	if err != nil || ok {
		t.Fatalf("expected no promotion, got ok=%v err=%v", ok, err)
	}
}

func TestPromoteUserIfEligible_AppraisalBonus(t *testing.T) {
	tests := []struct {
		name        string
		company     string
		wantBalance string
	}{
		{"funded company pays bonus", "100", "25"},
		{"short company keeps promotion", "10", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testutil.NewMemNetwork()
			m.AddLevel(models.Level{Name: "Bronze", Hierarchy: 1, AppraisalBonus: d("25")})
			svc := newService(m)
			m.FundCompany(d(tt.company))
			u := m.AddUser("U", nil)

			_, ok, err := svc.PromoteUserIfEligible(context.Background(), u.ID)
			if err != nil || !ok {
				t.Fatalf("expected promotion, got ok=%v err=%v", ok, err)
			}
			if !m.Balance(u.ID).Equal(d(tt.wantBalance)) {
				t.Errorf("balance: got %s, want %s", m.Balance(u.ID), tt.wantBalance)
			}
		})
	}
}

// networkLevels: Bronze needs 1000 direct business; Silver needs two
// distinct branches holding Bronze or better.
func networkLevels(m *testutil.MemNetwork) {
	m.AddLevel(models.Level{Name: "Bronze", Hierarchy: 1, PassiveIncomePercentage: d("5"), Conditions: []models.Condition{
		{Type: models.ConditionBusiness, Scope: models.ScopeDirect, Value: d("1000")},
	}})
	m.AddLevel(models.Level{Name: "Silver", Hierarchy: 2, PassiveIncomePercentage: d("5"), Conditions: []models.Condition{
		{Type: models.ConditionLevels, Scope: models.ScopeNetwork, Value: d("2"), Level: intp(1)},
	}})
}

func TestCheckAndPromoteAncestors_Cascade(t *testing.T) {
	m := testutil.NewMemNetwork()
	networkLevels(m)
	svc := newService(m)
	ctx := context.Background()

	root := m.AddUser("Root", nil)
	a := m.AddUser("A", &root.ID)
	c := m.AddUser("C", &root.ID)
	x := m.AddUser("X", &a.ID)
	y := m.AddUser("Y", &c.ID)
	m.Fund(x.ID, d("1000"))
	m.Fund(y.ID, d("1000"))

	res, err := svc.Purchase(ctx, x.ID, d("1000"))
	if err != nil {
		t.Fatalf("Purchase x: %v", err)
	}
	if len(res.Promotions) != 1 || res.Promotions[0].UserID != a.ID {
		t.Fatalf("after x: promotions %+v, want only A", res.Promotions)
	}
	if ul, _ := m.ActiveLevel(ctx, root.ID); ul != nil {
		t.Fatalf("root promoted with one qualifying branch: %+v", ul)
	}

	res, err = svc.Purchase(ctx, y.ID, d("1000"))
	if err != nil {
		t.Fatalf("Purchase y: %v", err)
	}
	promoted := map[primitive.ObjectID]int{}
	for _, p := range res.Promotions {
		promoted[p.UserID] = p.ToHierarchy
	}
	if promoted[c.ID] != 1 {
		t.Errorf("C: got hierarchy %d, want 1", promoted[c.ID])
	}
	if promoted[root.ID] != 2 {
		t.Errorf("root: got hierarchy %d, want 2 (two qualifying branches)", promoted[root.ID])
	}
}

func TestCheckAndPromoteAncestors_SameBranchCountsOnce(t *testing.T) {
	m := testutil.NewMemNetwork()
	networkLevels(m)
	svc := newService(m)
	ctx := context.Background()

	root := m.AddUser("Root", nil)
	a := m.AddUser("A", &root.ID)
	b := m.AddUser("B", &a.ID)
	m.SetHierarchy(a.ID, 1)
	m.SetHierarchy(b.ID, 1)

	if _, err := svc.CheckAndPromoteAncestors(ctx, b.ID); err != nil {
		t.Fatalf("CheckAndPromoteAncestors: %v", err)
	}
	if ul, _ := m.ActiveLevel(ctx, root.ID); ul != nil {
		t.Errorf("root promoted with two qualifiers in one branch: hierarchy %d", ul.Hierarchy)
	}
}

func TestCheckAndPromoteAncestors_IsolatesFaults(t *testing.T) {
	m := testutil.NewMemNetwork()
	m.AddLevel(models.Level{Name: "Bronze", Hierarchy: 1})
	svc := newService(m)
	ctx := context.Background()

	root := m.AddUser("Root", nil)
	mid := m.AddUser("Mid", &root.ID)
	leaf := m.AddUser("Leaf", &mid.ID)
	boom := errors.New("write conflict")
	m.AssignErr[mid.ID] = boom

	promos, err := svc.CheckAndPromoteAncestors(ctx, leaf.ID)
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error to wrap %v, got %v", boom, err)
	}
	got := map[primitive.ObjectID]bool{}
	for _, p := range promos {
		got[p.UserID] = true
	}
	if !got[leaf.ID] || !got[root.ID] {
		t.Errorf("leaf and root should still be promoted, got %+v", promos)
	}
	if got[mid.ID] {
		t.Error("mid should not be promoted")
	}
}

func TestOnPurchaseCompleted_ReportsCascadeErrorAfterSettlement(t *testing.T) {
	m := testutil.NewMemNetwork()
	m.AddLevel(models.Level{Name: "Bronze", Hierarchy: 1, PassiveIncomePercentage: d("10")})
	svc := newService(m)
	ctx := context.Background()

	top := m.AddUser("Top", nil)
	buyer := m.AddUser("Buyer", &top.ID)
	m.SetHierarchy(top.ID, 1)
	m.Fund(buyer.ID, d("100"))
	boom := errors.New("level write failed")
	m.AssignErr[buyer.ID] = boom

	res, err := svc.OnPurchaseCompleted(ctx, buyer.ID, d("100"))
	if !errors.Is(err, boom) {
		t.Fatalf("expected cascade error, got %v", err)
	}
	if res.Reference == "" || !m.Balance(top.ID).Equal(d("10")) {
		t.Errorf("settlement should stand: ref=%q top=%s", res.Reference, m.Balance(top.ID))
	}
}

func TestOnPurchaseCompleted_NegativePool(t *testing.T) {
	m := testutil.NewMemNetwork()
	m.AddLevel(models.Level{Name: "Bronze", Hierarchy: 1, PassiveIncomePercentage: d("10")})
	svc := newService(m)

	top := m.AddUser("Top", nil)
	buyer := m.AddUser("Buyer", &top.ID)
	m.SetHierarchy(top.ID, 1)
	m.Fund(buyer.ID, d("100"))
	m.FundCompany(d("1000"))

	if _, err := svc.OnPurchaseCompleted(context.Background(), buyer.ID, d("-100")); !errors.Is(err, network.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if !m.Balance(top.ID).IsZero() || !m.Balance(buyer.ID).Equal(d("100")) || !m.CompanyBalance().Equal(d("1000")) {
		t.Errorf("balances changed: top=%s buyer=%s company=%s", m.Balance(top.ID), m.Balance(buyer.ID), m.CompanyBalance())
	}
	if n := len(m.Transactions()); n != 0 {
		t.Errorf("transactions: got %d, want 0", n)
	}
}

func TestDeposit(t *testing.T) {
	m := testutil.NewMemNetwork()
	svc := newService(m)
	u := m.AddUser("U", nil)

	ref, err := svc.Deposit(context.Background(), u.ID, d("12.345"))
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if ref == "" {
		t.Error("expected a reference")
	}
	if !m.Balance(u.ID).Equal(d("12.34")) {
		t.Errorf("balance: got %s, want 12.34", m.Balance(u.ID))
	}
	if _, err := svc.Deposit(context.Background(), primitive.NewObjectID(), d("1")); !errors.Is(err, walletstore.ErrWalletNotFound) {
		t.Errorf("expected ErrWalletNotFound, got %v", err)
	}
}

func TestCheckAndPromoteAncestors_UplineUnavailable(t *testing.T) {
	m := testutil.NewMemNetwork()
	m.AddLevel(models.Level{Name: "Bronze", Hierarchy: 1})
	svc := newService(m)

	root := m.AddUser("Root", nil)
	leaf := m.AddUser("Leaf", &root.ID)
	boom := errors.New("closures unavailable")
	m.AscendantsErr[leaf.ID] = boom

	promos, err := svc.CheckAndPromoteAncestors(context.Background(), leaf.ID)
	if !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
	if len(promos) != 1 || promos[0].UserID != leaf.ID {
		t.Errorf("leaf itself should still be promoted, got %+v", promos)
	}
}
