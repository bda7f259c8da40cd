// internal/domain/models/wallet.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Wallet kinds.
const (
	WalletKindUser    = "user"
	WalletKindCompany = "company"
)

// Wallet holds a spendable balance. Exactly one company wallet exists;
// it has no owner user.
type Wallet struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OwnerID   *primitive.ObjectID `bson:"owner_id,omitempty" json:"owner_id,omitempty"`
	Kind      string              `bson:"kind" json:"kind"` // user | company
	Balance   decimal.Decimal     `bson:"balance" json:"balance"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updated_at"`
}
