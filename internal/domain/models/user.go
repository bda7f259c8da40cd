// internal/domain/models/user.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a node of the referral forest.
//
// NOTE:
//   - ReferredByUserID is the single parent pointer; nil for roots.
//   - Ancestry is never walked through this pointer at query time.
//     Use the user_closures collection instead.
type User struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	FullName         string              `bson:"full_name" json:"full_name"`
	FullNameCI       string              `bson:"full_name_ci" json:"full_name_ci"` // lowercase, diacritics-stripped
	ReferredByUserID *primitive.ObjectID `bson:"referred_by_user_id,omitempty" json:"referred_by_user_id,omitempty"`
	BusinessDone     decimal.Decimal     `bson:"business_done" json:"business_done"` // accumulated purchase volume
	Status           string              `bson:"status,omitempty" json:"status,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
