// internal/domain/models/closure.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ClosureEntry is one row of the referral tree's transitive closure.
// Exactly one row exists per (ancestor_id, descendant_id); depth 0 is the self-row.
// RootChildID is the immediate child of AncestorID on the path to DescendantID
// and is nil only on self-rows.
type ClosureEntry struct {
	AncestorID   primitive.ObjectID  `bson:"ancestor_id" json:"ancestor_id"`
	DescendantID primitive.ObjectID  `bson:"descendant_id" json:"descendant_id"`
	Depth        int                 `bson:"depth" json:"depth"`
	RootChildID  *primitive.ObjectID `bson:"root_child_id,omitempty" json:"root_child_id,omitempty"`
	CreatedAt    time.Time           `bson:"created_at" json:"created_at"`
}

// IsSelf reports whether the entry is the depth-0 self-row.
func (c ClosureEntry) IsSelf() bool {
	return c.Depth == 0
}
