// internal/app/store/levels/levelstore.go
package levelstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/uplinehub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the name of the levels collection.
const Collection = "levels"

var (
	// ErrNotFound is returned when a referenced level does not exist.
	ErrNotFound = errors.New("level not found")
	// ErrDuplicateHierarchy is returned when another level already uses the hierarchy value.
	ErrDuplicateHierarchy = errors.New("a level with this hierarchy already exists")
)

var hundred = decimal.NewFromInt(100)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Validate checks the shape of a level definition.
func Validate(l models.Level) error {
	if strings.TrimSpace(l.Name) == "" {
		return errors.New("level name is required")
	}
	if l.Hierarchy < 1 {
		return errors.New("hierarchy must be a positive integer")
	}
	if l.PassiveIncomePercentage.IsNegative() || l.PassiveIncomePercentage.GreaterThan(hundred) {
		return errors.New("passive income percentage must be between 0 and 100")
	}
	if l.AppraisalBonus.IsNegative() {
		return errors.New("appraisal bonus must not be negative")
	}
	for i, c := range l.Conditions {
		if err := validateCondition(c); err != nil {
			return fmt.Errorf("condition %d: %w", i+1, err)
		}
	}
	return nil
}

func validateCondition(c models.Condition) error {
	switch c.Type {
	case models.ConditionBusiness, models.ConditionLevels:
	default:
		return fmt.Errorf("unknown condition type %q", c.Type)
	}
	switch c.Scope {
	case models.ScopeDirect, models.ScopeNetwork:
	default:
		return fmt.Errorf("unknown condition scope %q", c.Scope)
	}
	if c.Value.IsNegative() {
		return errors.New("condition value must not be negative")
	}
	if c.Type == models.ConditionLevels && (c.Level == nil || *c.Level < 1) {
		return errors.New("LEVELS condition needs a target level hierarchy")
	}
	return nil
}

// Create validates and inserts a level.
func (s *Store) Create(ctx context.Context, l models.Level) (models.Level, error) {
	if err := Validate(l); err != nil {
		return models.Level{}, err
	}
	now := time.Now().UTC()
	l.ID = primitive.NewObjectID()
	l.NameCI = text.Fold(l.Name)
	if l.Conditions == nil {
		l.Conditions = []models.Condition{}
	}
	l.CreatedAt = now
	l.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, l); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Level{}, ErrDuplicateHierarchy
		}
		return models.Level{}, err
	}
	return l, nil
}

// GetByID loads a level by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Level, error) {
	var l models.Level
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&l); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// List returns every level ordered by hierarchy ascending.
func (s *Store) List(ctx context.Context) ([]models.Level, error) {
	return s.find(ctx, bson.M{})
}

// ListByIDs returns the levels with the given ids, keyed by id.
func (s *Store) ListByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Level, error) {
	out := make(map[primitive.ObjectID]models.Level, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	levels, err := s.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	for _, l := range levels {
		out[l.ID] = l
	}
	return out, nil
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Level, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "hierarchy", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	levels := make([]models.Level, 0)
	if err := cur.All(ctx, &levels); err != nil {
		return nil, err
	}
	return levels, nil
}
