package walletstore_test

import (
	"errors"
	"testing"

	walletstore "github.com/dalemusser/uplinehub/internal/app/store/wallets"
	"github.com/dalemusser/uplinehub/internal/app/system/indexes"
	"github.com/dalemusser/uplinehub/internal/testutil"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_CreditDebit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := walletstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}

	u := fixtures.CreateUser(ctx, "U", nil)
	w, err := store.GetByOwner(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByOwner: %v", err)
	}

	if err := store.Credit(ctx, w.ID, decimal.RequireFromString("10.50")); err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if err := store.Debit(ctx, w.ID, decimal.RequireFromString("10.51")); !errors.Is(err, walletstore.ErrInsufficientFunds) {
		t.Errorf("overdraw: expected ErrInsufficientFunds, got %v", err)
	}
	if err := store.Debit(ctx, w.ID, decimal.RequireFromString("0.50")); err != nil {
		t.Fatalf("Debit: %v", err)
	}
	if err := store.Credit(ctx, w.ID, decimal.Zero); err == nil {
		t.Error("zero credit: expected error")
	}
	if err := store.Credit(ctx, primitive.NewObjectID(), decimal.NewFromInt(1)); !errors.Is(err, walletstore.ErrWalletNotFound) {
		t.Errorf("unknown wallet: expected ErrWalletNotFound, got %v", err)
	}
	if err := store.Debit(ctx, primitive.NewObjectID(), decimal.NewFromInt(1)); !errors.Is(err, walletstore.ErrWalletNotFound) {
		t.Errorf("unknown wallet: expected ErrWalletNotFound, got %v", err)
	}

	if got := fixtures.Balance(ctx, u.ID); !got.Equal(decimal.NewFromInt(10)) {
		t.Errorf("balance: got %s, want 10", got)
	}

	if _, err := store.CreateForUser(ctx, u.ID); !errors.Is(err, walletstore.ErrWalletExists) {
		t.Errorf("second wallet: expected ErrWalletExists, got %v", err)
	}
}

func TestStore_CompanyAndTransfer(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := walletstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}

	if _, err := store.Company(ctx); !errors.Is(err, walletstore.ErrWalletNotFound) {
		t.Fatalf("Company before EnsureCompany: got %v", err)
	}
	first := fixtures.CompanyWallet(ctx)
	second := fixtures.CompanyWallet(ctx)
	if first.ID != second.ID {
		t.Fatal("EnsureCompany should be idempotent")
	}

	u := fixtures.CreateUser(ctx, "U", nil)
	w, _ := store.GetByOwner(ctx, u.ID)
	if err := store.Credit(ctx, first.ID, decimal.NewFromInt(30)); err != nil {
		t.Fatalf("Credit company: %v", err)
	}
	if err := store.Transfer(ctx, first.ID, w.ID, decimal.NewFromInt(12)); err != nil {
		t.Fatalf("Transfer: %v", err)
	}

	company, err := store.Company(ctx)
	if err != nil {
		t.Fatalf("Company: %v", err)
	}
	if !company.Balance.Equal(decimal.NewFromInt(18)) {
		t.Errorf("company balance: got %s, want 18", company.Balance)
	}

	owners, err := store.ListByOwners(ctx, []primitive.ObjectID{u.ID})
	if err != nil {
		t.Fatalf("ListByOwners: %v", err)
	}
	if !owners[u.ID].Balance.Equal(decimal.NewFromInt(12)) {
		t.Errorf("user balance: got %s, want 12", owners[u.ID].Balance)
	}
}
