// internal/app/store/transactions/transactionstore.go
package transactionstore

import (
	"context"
	"time"

	"github.com/dalemusser/uplinehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the name of the ledger collection.
const Collection = "transactions"

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Record appends one ledger row.
func (s *Store) Record(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Transaction{}, err
	}
	return t, nil
}

// ListByReference returns every row written under reference, oldest first.
func (s *Store) ListByReference(ctx context.Context, reference string) ([]models.Transaction, error) {
	return s.find(ctx, bson.M{"reference": reference}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
}

// ListForUser returns one page of rows where userID is payer or payee,
// newest first.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID, limit, offset int64) ([]models.Transaction, error) {
	return s.find(ctx, userFilter(userID), options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset))
}

// CountForUser returns how many rows ListForUser can page through.
func (s *Store) CountForUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, userFilter(userID))
}

func userFilter(userID primitive.ObjectID) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"from_user_id": userID},
		bson.M{"to_user_id": userID},
	}}
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Transaction, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	rows := make([]models.Transaction, 0)
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
