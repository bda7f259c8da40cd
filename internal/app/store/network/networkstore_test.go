package networkstore_test

import (
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/uplinehub/internal/app/policy/payoutpolicy"
	botincomestore "github.com/dalemusser/uplinehub/internal/app/store/botincome"
	networkstore "github.com/dalemusser/uplinehub/internal/app/store/network"
	transactionstore "github.com/dalemusser/uplinehub/internal/app/store/transactions"
	userstore "github.com/dalemusser/uplinehub/internal/app/store/users"
	walletstore "github.com/dalemusser/uplinehub/internal/app/store/wallets"
	"github.com/dalemusser/uplinehub/internal/app/system/indexes"
	"github.com/dalemusser/uplinehub/internal/app/system/network"
	"github.com/dalemusser/uplinehub/internal/domain/models"
	"github.com/dalemusser/uplinehub/internal/testutil"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestStore_CreateUserOpensWallet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := networkstore.New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}

	u, err := store.CreateUser(ctx, models.User{FullName: "Root"})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := walletstore.New(db).GetByOwner(ctx, u.ID); err != nil {
		t.Errorf("expected a wallet for the new user: %v", err)
	}

	res, err := store.CreateClosures(ctx, u.ID, nil)
	if err != nil {
		t.Fatalf("CreateClosures: %v", err)
	}
	if len(res.Rows) != 1 || res.FallbackEdge {
		t.Errorf("root closures: got %+v", res)
	}
}

func TestStore_Settle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := networkstore.New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	fixtures.CompanyWallet(ctx)

	top := fixtures.CreateUser(ctx, "Top", nil)
	buyer := fixtures.CreateUser(ctx, "Buyer", &top.ID)
	fixtures.Fund(ctx, buyer.ID, "200")

	st := network.Settlement{
		Reference:   "ref-settle",
		PurchaserID: buyer.ID,
		Business:    dec("100"),
		CompanyBase: dec("90"),
		Pool:        dec("10"),
		Shares: []payoutpolicy.Share{
			{AncestorID: top.ID, Hierarchy: 1, From: 1, To: 1, Percentage: dec("5"), Amount: dec("5")},
		},
		Remainder: dec("5"),
		At:        time.Now().UTC(),
	}
	if err := store.Settle(ctx, st); err != nil {
		t.Fatalf("Settle: %v", err)
	}

	if got := fixtures.Balance(ctx, buyer.ID); !got.Equal(dec("100")) {
		t.Errorf("buyer balance: got %s, want 100", got)
	}
	if got := fixtures.Balance(ctx, top.ID); !got.Equal(dec("5")) {
		t.Errorf("ancestor balance: got %s, want 5", got)
	}
	company, err := walletstore.New(db).Company(ctx)
	if err != nil {
		t.Fatalf("Company: %v", err)
	}
	if !company.Balance.Equal(dec("95")) {
		t.Errorf("company balance: got %s, want 95", company.Balance)
	}

	u, err := userstore.New(db).GetByID(ctx, buyer.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !u.BusinessDone.Equal(dec("100")) {
		t.Errorf("business volume: got %s, want 100", u.BusinessDone)
	}

	rows, err := transactionstore.New(db).ListByReference(ctx, "ref-settle")
	if err != nil {
		t.Fatalf("ListByReference: %v", err)
	}
	kinds := map[string]int{}
	for _, r := range rows {
		kinds[r.Kind]++
	}
	if kinds[models.TxnPassiveIncome] != 1 || kinds[models.TxnCompanyShare] != 1 || kinds[models.TxnUndistributedPassive] != 1 {
		t.Errorf("ledger rows: got %v", kinds)
	}

	if err := store.BotIncomeReceived(ctx, top.ID, dec("5")); err != nil {
		t.Fatalf("BotIncomeReceived: %v", err)
	}
	in, err := botincomestore.New(db).Get(ctx, top.ID)
	if err != nil || !in.PassiveIncomeTotal.Equal(dec("5")) {
		t.Errorf("bot income: got %+v, %v", in, err)
	}
}

func TestStore_Settle_AbortsBeforeWriting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := networkstore.New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	fixtures.CompanyWallet(ctx)

	top := fixtures.CreateUser(ctx, "Top", nil)
	buyer := fixtures.CreateUser(ctx, "Buyer", &top.ID)
	fixtures.Fund(ctx, buyer.ID, "50")

	tests := []struct {
		name    string
		shareTo primitive.ObjectID
		debit   string
		wantErr error
	}{
		{"insufficient funds", top.ID, "60", walletstore.ErrInsufficientFunds},
		{"ancestor without wallet", primitive.NewObjectID(), "10", walletstore.ErrWalletNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.Settle(ctx, network.Settlement{
				Reference:   "ref-" + tt.name,
				PurchaserID: buyer.ID,
				CompanyBase: dec(tt.debit).Sub(dec("2")),
				Pool:        dec("2"),
				Shares:      []payoutpolicy.Share{{AncestorID: tt.shareTo, Amount: dec("2")}},
				At:          time.Now().UTC(),
			})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if got := fixtures.Balance(ctx, buyer.ID); !got.Equal(dec("50")) {
				t.Errorf("buyer balance changed: %s", got)
			}
			rows, _ := transactionstore.New(db).ListByReference(ctx, "ref-"+tt.name)
			if len(rows) != 0 {
				t.Errorf("expected no ledger rows, got %d", len(rows))
			}
		})
	}
}

func TestStore_BonusAndDeposit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := networkstore.New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	company := fixtures.CompanyWallet(ctx)
	if err := walletstore.New(db).Credit(ctx, company.ID, dec("20")); err != nil {
		t.Fatalf("Credit company: %v", err)
	}

	u := fixtures.CreateUser(ctx, "U", nil)
	if err := store.Deposit(ctx, u.ID, dec("7"), "dep-1"); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if err := store.CreditBonus(ctx, u.ID, dec("15"), "bonus-1"); err != nil {
		t.Fatalf("CreditBonus: %v", err)
	}
	if got := fixtures.Balance(ctx, u.ID); !got.Equal(dec("22")) {
		t.Errorf("balance: got %s, want 22", got)
	}
	if err := store.CreditBonus(ctx, u.ID, dec("15"), "bonus-2"); !errors.Is(err, walletstore.ErrInsufficientFunds) {
		t.Errorf("bonus beyond company funds: expected ErrInsufficientFunds, got %v", err)
	}

	rows, err := transactionstore.New(db).ListForUser(ctx, u.ID, 10, 0)
	if err != nil {
		t.Fatalf("ListReceived: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("expected deposit and bonus rows, got %d", len(rows))
	}
}
