// internal/app/store/botincome/botincomestore.go
package botincomestore

import (
	"context"
	"time"

	"github.com/dalemusser/uplinehub/internal/app/system/money"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the name of the income-cap tracker collection.
const Collection = "bot_incomes"

// Income is the running passive-income total used by the income cap.
type Income struct {
	UserID             primitive.ObjectID `bson:"user_id" json:"user_id"`
	PassiveIncomeTotal decimal.Decimal    `bson:"passive_income_total" json:"passive_income_total"`
	UpdatedAt          time.Time          `bson:"updated_at" json:"updated_at"`
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Notify records that userID received amount of passive income.
func (s *Store) Notify(ctx context.Context, userID primitive.ObjectID, amount decimal.Decimal) error {
	inc, err := money.ToDecimal128(amount)
	if err != nil {
		return err
	}
	_, err = s.c.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{
			"$inc": bson.M{"passive_income_total": inc},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

// Get returns the tracked total for userID (zero when nothing was recorded).
func (s *Store) Get(ctx context.Context, userID primitive.ObjectID) (Income, error) {
	var in Income
	err := s.c.FindOne(ctx, bson.M{"user_id": userID}).Decode(&in)
	if err == mongo.ErrNoDocuments {
		return Income{UserID: userID}, nil
	}
	if err != nil {
		return Income{}, err
	}
	return in, nil
}
