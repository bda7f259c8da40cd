// internal/domain/models/userlevel.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserLevel is one entry in a user's append-only rank history.
// At most one row per user has Active=true (and EndDate=nil); a unique
// partial index on user_id enforces it.
type UserLevel struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	LevelID   primitive.ObjectID `bson:"level_id" json:"level_id"`
	Hierarchy int                `bson:"hierarchy" json:"hierarchy"` // copied from the level at promotion time
	Active    bool               `bson:"active" json:"active"`
	StartDate time.Time          `bson:"start_date" json:"start_date"`
	EndDate   *time.Time         `bson:"end_date,omitempty" json:"end_date,omitempty"`
}
