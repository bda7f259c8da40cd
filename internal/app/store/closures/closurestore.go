// internal/app/store/closures/closurestore.go
package closurestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/uplinehub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the name of the closure collection.
const Collection = "user_closures"

// ErrDuplicateClosure means an (ancestor, descendant) row already exists.
// The tree is already inconsistent for that user; it is never overwritten.
var ErrDuplicateClosure = errors.New("closure row already exists")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// CreateResult describes the rows written for a new user.
type CreateResult struct {
	Rows []models.ClosureEntry
	// FallbackEdge is true when the parent had no stored chain and only a
	// direct parent edge was written.
	FallbackEdge bool
}

// CreateForUser writes the self-row for userID and, when parentID is set,
// one row per ancestor of the parent (the parent included).
func (s *Store) CreateForUser(ctx context.Context, userID primitive.ObjectID, parentID *primitive.ObjectID) (CreateResult, error) {
	var chain []models.ClosureEntry
	if parentID != nil {
		var err error
		chain, err = s.Chain(ctx, *parentID)
		if err != nil {
			return CreateResult{}, err
		}
	}

	rows, fellBack := DeriveClosures(chain, userID, parentID, time.Now().UTC())

	docs := make([]interface{}, 0, len(rows))
	for _, r := range rows {
		docs = append(docs, r)
	}
	if _, err := s.c.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		if wafflemongo.IsDup(err) {
			return CreateResult{}, ErrDuplicateClosure
		}
		return CreateResult{}, err
	}
	return CreateResult{Rows: rows, FallbackEdge: fellBack}, nil
}

// Chain returns every row whose descendant is userID, self-row first.
func (s *Store) Chain(ctx context.Context, userID primitive.ObjectID) ([]models.ClosureEntry, error) {
	return s.find(ctx, bson.M{"descendant_id": userID})
}

// Ascendants returns the ancestors of userID (depth > 0), closest first.
func (s *Store) Ascendants(ctx context.Context, userID primitive.ObjectID) ([]models.ClosureEntry, error) {
	return s.find(ctx, bson.M{"descendant_id": userID, "depth": bson.M{"$gt": 0}})
}

// Descendants returns every descendant of userID (depth > 0), nearest first.
func (s *Store) Descendants(ctx context.Context, userID primitive.ObjectID) ([]models.ClosureEntry, error) {
	return s.find(ctx, bson.M{"ancestor_id": userID, "depth": bson.M{"$gt": 0}})
}

// DirectDescendants returns the depth-1 rows under userID.
func (s *Store) DirectDescendants(ctx context.Context, userID primitive.ObjectID) ([]models.ClosureEntry, error) {
	return s.find(ctx, bson.M{"ancestor_id": userID, "depth": 1})
}

// CountDescendants returns the downline size of userID.
func (s *Store) CountDescendants(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"ancestor_id": userID, "depth": bson.M{"$gt": 0}})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.ClosureEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "depth", Value: 1}, {Key: "descendant_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	rows := make([]models.ClosureEntry, 0)
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
