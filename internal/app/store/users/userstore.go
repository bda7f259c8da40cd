package userstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/uplinehub/internal/app/system/money"
	"github.com/dalemusser/uplinehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Collection is the name of the users collection.
const Collection = "users"

const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

var (
	// ErrNotFound is returned when a referenced user does not exist.
	ErrNotFound = errors.New("user not found")

	errBadStatus    = errors.New(`status must be "active"|"disabled"`)
	errEmptyName    = errors.New("full name is required")
	errNegativeVol  = errors.New("business volume increase must not be negative")
	errSelfReferral = errors.New("a user cannot refer themselves")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Exists reports whether a user with id exists.
func (s *Store) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Create inserts a new user. The referrer, when given, must already exist.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.FullName = strings.Join(strings.Fields(u.FullName), " ")
	if u.FullName == "" {
		return models.User{}, errEmptyName
	}
	u.FullNameCI = text.Fold(u.FullName)
	if u.Status == "" {
		u.Status = StatusActive
	}
	if u.Status != StatusActive && u.Status != StatusDisabled {
		return models.User{}, errBadStatus
	}
	if u.ReferredByUserID != nil {
		if *u.ReferredByUserID == u.ID {
			return models.User{}, errSelfReferral
		}
		ok, err := s.Exists(ctx, *u.ReferredByUserID)
		if err != nil {
			return models.User{}, err
		}
		if !ok {
			return models.User{}, ErrNotFound
		}
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// AddBusiness increases a user's accumulated business volume.
func (s *Store) AddBusiness(ctx context.Context, id primitive.ObjectID, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return errNegativeVol
	}
	inc, err := money.ToDecimal128(amount)
	if err != nil {
		return err
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"business_done": inc},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SumBusiness returns the total business_done over ids. Unknown ids add nothing.
func (s *Store) SumBusiness(ctx context.Context, ids []primitive.ObjectID) (decimal.Decimal, error) {
	if len(ids) == 0 {
		return decimal.Zero, nil
	}

	cur, err := s.c.Aggregate(ctx, []bson.M{
		{"$match": bson.M{"_id": bson.M{"$in": ids}}},
		{"$group": bson.M{"_id": nil, "total": bson.M{"$sum": "$business_done"}}},
	})
	if err != nil {
		return decimal.Zero, err
	}
	defer cur.Close(ctx)

	var row struct {
		Total decimal.Decimal `bson:"total"`
	}
	if cur.Next(ctx) {
		if err := cur.Decode(&row); err != nil {
			return decimal.Zero, err
		}
	}
	if err := cur.Err(); err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}
