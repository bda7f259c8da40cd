// internal/app/store/wallets/walletstore.go
package walletstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/uplinehub/internal/app/system/money"
	"github.com/dalemusser/uplinehub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the name of the wallets collection.
const Collection = "wallets"

var (
	// ErrWalletNotFound is returned when a user (or the company) has no wallet.
	ErrWalletNotFound = errors.New("wallet not found")
	// ErrInsufficientFunds is returned when a debit would take a balance below zero.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrWalletExists is returned when a user already has a wallet.
	ErrWalletExists = errors.New("wallet already exists")

	errNonPositive = errors.New("amount must be positive")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// CreateForUser opens an empty wallet for userID.
func (s *Store) CreateForUser(ctx context.Context, userID primitive.ObjectID) (models.Wallet, error) {
	owner := userID
	w := models.Wallet{
		ID:        primitive.NewObjectID(),
		OwnerID:   &owner,
		Kind:      models.WalletKindUser,
		Balance:   decimal.Zero,
		UpdatedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, w); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Wallet{}, ErrWalletExists
		}
		return models.Wallet{}, err
	}
	return w, nil
}

// EnsureCompany returns the company wallet, creating it on first use.
func (s *Store) EnsureCompany(ctx context.Context) (models.Wallet, error) {
	zero, err := money.ToDecimal128(decimal.Zero)
	if err != nil {
		return models.Wallet{}, err
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var w models.Wallet
	err = s.c.FindOneAndUpdate(ctx,
		bson.M{"kind": models.WalletKindCompany},
		bson.M{"$setOnInsert": bson.M{"balance": zero, "updated_at": time.Now().UTC()}},
		opts,
	).Decode(&w)
	if err != nil {
		return models.Wallet{}, err
	}
	return w, nil
}

// Company returns the company wallet.
func (s *Store) Company(ctx context.Context) (*models.Wallet, error) {
	return s.findOne(ctx, bson.M{"kind": models.WalletKindCompany})
}

// GetByOwner returns the wallet owned by userID.
func (s *Store) GetByOwner(ctx context.Context, userID primitive.ObjectID) (*models.Wallet, error) {
	return s.findOne(ctx, bson.M{"owner_id": userID, "kind": models.WalletKindUser})
}

// ListByOwners returns the wallets of the given users keyed by owner id.
func (s *Store) ListByOwners(ctx context.Context, userIDs []primitive.ObjectID) (map[primitive.ObjectID]models.Wallet, error) {
	out := make(map[primitive.ObjectID]models.Wallet, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"owner_id": bson.M{"$in": userIDs}, "kind": models.WalletKindUser})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var w models.Wallet
		if err := cur.Decode(&w); err != nil {
			return nil, err
		}
		if w.OwnerID != nil {
			out[*w.OwnerID] = w
		}
	}
	return out, cur.Err()
}

// Credit adds amount to a wallet.
func (s *Store) Credit(ctx context.Context, walletID primitive.ObjectID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return errNonPositive
	}
	inc, err := money.ToDecimal128(amount)
	if err != nil {
		return err
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": walletID}, bson.M{
		"$inc": bson.M{"balance": inc},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrWalletNotFound
	}
	return nil
}

// Debit removes amount from a wallet. The balance check and the decrement
// are a single conditional update, so the balance never goes negative.
func (s *Store) Debit(ctx context.Context, walletID primitive.ObjectID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return errNonPositive
	}
	d128, err := money.ToDecimal128(amount)
	if err != nil {
		return err
	}
	neg, err := money.ToDecimal128(amount.Neg())
	if err != nil {
		return err
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": walletID, "balance": bson.M{"$gte": d128}},
		bson.M{
			"$inc": bson.M{"balance": neg},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if err := s.c.FindOne(ctx, bson.M{"_id": walletID}).Err(); err == mongo.ErrNoDocuments {
			return ErrWalletNotFound
		} else if err != nil {
			return err
		}
		return ErrInsufficientFunds
	}
	return nil
}

// Transfer moves amount between two wallets. Run it inside txn.Run.
func (s *Store) Transfer(ctx context.Context, fromID, toID primitive.ObjectID, amount decimal.Decimal) error {
	if err := s.Debit(ctx, fromID, amount); err != nil {
		return err
	}
	return s.Credit(ctx, toID, amount)
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*models.Wallet, error) {
	var w models.Wallet
	if err := s.c.FindOne(ctx, filter).Decode(&w); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return &w, nil
}
