// internal/app/store/userlevels/userlevelstore.go
package userlevelstore

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

// Collection is the name of the rank history collection.
const Collection = "user_levels"

// ErrActiveLevelConflict means another writer changed the user's active level
// between our read and our write. The at-most-one-active-row index rejected
// the second write; re-running the promotion check is safe.
var ErrActiveLevelConflict = errors.New("active level changed concurrently")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Active returns the user's active row, or nil when the user holds no level.
func (s *Store) Active(ctx context.Context, userID primitive.ObjectID) (*models.UserLevel, error) {
	var ul models.UserLevel
	err := s.c.FindOne(ctx, bson.M{"user_id": userID, "active": true}).Decode(&ul)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ul, nil
}

// ActiveForUsers returns the active rows of the given users keyed by user id.
// Users without a level are absent from the map.
func (s *Store) ActiveForUsers(ctx context.Context, userIDs []primitive.ObjectID) (map[primitive.ObjectID]models.UserLevel, error) {
	out := make(map[primitive.ObjectID]models.UserLevel, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	cur, err := s.c.Find(ctx, bson.M{"user_id": bson.M{"$in": userIDs}, "active": true})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var ul models.UserLevel
		if err := cur.Decode(&ul); err != nil {
			return nil, err
		}
		out[ul.UserID] = ul
	}
	return out, cur.Err()
}

// History returns a user's rank history, oldest first.
func (s *Store) History(ctx context.Context, userID primitive.ObjectID) ([]models.UserLevel, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	rows := make([]models.UserLevel, 0)
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Assign closes the user's active row (if any) and opens one for level.
// If the user already holds level, the existing row is returned and changed
// is false.
//
// Callers run Assign inside txn.Run so the close and the open commit
// together. Without transactions the unique partial index on the active
// row still keeps at most one open row per user.
func (s *Store) Assign(ctx context.Context, userID primitive.ObjectID, level models.Level) (row models.UserLevel, changed bool, err error) {
	current, err := s.Active(ctx, userID)
	if err != nil {
		return models.UserLevel{}, false, err
	}
	if current != nil && current.LevelID == level.ID {
		return *current, false, nil
	}
	row, err = s.Replace(ctx, userID, current, level)
	if err != nil {
		return models.UserLevel{}, false, err
	}
	return row, true, nil
}

// Replace closes current (nil when the user held no level) and opens a row
// for level. It returns ErrActiveLevelConflict when current is no longer the
// user's active row.
func (s *Store) Replace(ctx context.Context, userID primitive.ObjectID, current *models.UserLevel, level models.Level) (models.UserLevel, error) {
	now := time.Now().UTC()
	if current != nil {
		res, err := s.c.UpdateOne(ctx,
			bson.M{"_id": current.ID, "active": true},
			bson.M{"$set": bson.M{"active": false, "end_date": now}},
		)
		if err != nil {
			return models.UserLevel{}, err
		}
		if res.MatchedCount == 0 {
			return models.UserLevel{}, ErrActiveLevelConflict
		}
	}

	row := models.UserLevel{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		LevelID:   level.ID,
		Hierarchy: level.Hierarchy,
		Active:    true,
		StartDate: now,
	}
	if _, err := s.c.InsertOne(ctx, row); err != nil {
		if wafflemongo.IsDup(err) {
			return models.UserLevel{}, ErrActiveLevelConflict
		}
		return models.UserLevel{}, err
	}
	return row, nil
}
