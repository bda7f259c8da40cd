package testutil

import (
	"context"
	"net/http"
	"testing"

	closurestore "github.com/dalemusser/uplinehub/internal/app/store/closures"
	levelstore "github.com/dalemusser/uplinehub/internal/app/store/levels"
	userlevelstore "github.com/dalemusser/uplinehub/internal/app/store/userlevels"
	userstore "github.com/dalemusser/uplinehub/internal/app/store/users"
	walletstore "github.com/dalemusser/uplinehub/internal/app/store/wallets"
	"github.com/dalemusser/uplinehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser stores a user with a wallet and its closure rows under parent.
func (f *Fixtures) CreateUser(ctx context.Context, fullName string, parent *primitive.ObjectID) models.User {
	f.t.Helper()

	u, err := userstore.New(f.db).Create(ctx, models.User{FullName: fullName, ReferredByUserID: parent})
	if err != nil {
		f.t.Fatalf("CreateUser %q: %v", fullName, err)
	}
	if _, err := walletstore.New(f.db).CreateForUser(ctx, u.ID); err != nil {
		f.t.Fatalf("CreateUser %q wallet: %v", fullName, err)
	}
	if _, err := closurestore.New(f.db).CreateForUser(ctx, u.ID, parent); err != nil {
		f.t.Fatalf("CreateUser %q closures: %v", fullName, err)
	}
	return u
}

// CreateLevel stores a level with the given hierarchy and pool percentage.
func (f *Fixtures) CreateLevel(ctx context.Context, name string, hierarchy int, percent string, conds ...models.Condition) models.Level {
	f.t.Helper()

	l, err := levelstore.New(f.db).Create(ctx, models.Level{
		Name:                    name,
		Hierarchy:               hierarchy,
		PassiveIncomePercentage: decimal.RequireFromString(percent),
		Conditions:              conds,
	})
	if err != nil {
		f.t.Fatalf("CreateLevel %q: %v", name, err)
	}
	return l
}

// AssignLevel makes level the user's active level.
func (f *Fixtures) AssignLevel(ctx context.Context, userID primitive.ObjectID, level models.Level) models.UserLevel {
	f.t.Helper()

	row, _, err := userlevelstore.New(f.db).Assign(ctx, userID, level)
	if err != nil {
		f.t.Fatalf("AssignLevel: %v", err)
	}
	return row
}

// Fund credits the user's wallet.
func (f *Fixtures) Fund(ctx context.Context, userID primitive.ObjectID, amount string) {
	f.t.Helper()

	ws := walletstore.New(f.db)
	w, err := ws.GetByOwner(ctx, userID)
	if err != nil {
		f.t.Fatalf("Fund: %v", err)
	}
	if err := ws.Credit(ctx, w.ID, decimal.RequireFromString(amount)); err != nil {
		f.t.Fatalf("Fund: %v", err)
	}
}

// CompanyWallet ensures the company wallet exists and returns it.
func (f *Fixtures) CompanyWallet(ctx context.Context) models.Wallet {
	f.t.Helper()

	w, err := walletstore.New(f.db).EnsureCompany(ctx)
	if err != nil {
		f.t.Fatalf("CompanyWallet: %v", err)
	}
	return w
}

// Balance returns the user's wallet balance.
func (f *Fixtures) Balance(ctx context.Context, userID primitive.ObjectID) decimal.Decimal {
	f.t.Helper()

	w, err := walletstore.New(f.db).GetByOwner(ctx, userID)
	if err != nil {
		f.t.Fatalf("Balance: %v", err)
	}
	return w.Balance
}
