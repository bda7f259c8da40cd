// internal/domain/models/transaction.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Transaction kinds recorded in the ledger.
const (
	TxnDeposit              = "deposit"
	TxnPassiveIncome        = "passive_income"
	TxnCompanyShare         = "company_share"
	TxnUndistributedPassive = "undistributed_passive_share"
	TxnAppraisalBonus       = "appraisal_bonus"
)

// Transaction is an immutable ledger row. Rows written by one purchase
// settlement share the same Reference.
type Transaction struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Reference   string              `bson:"reference" json:"reference"`
	Kind        string              `bson:"kind" json:"kind"`
	FromUserID  *primitive.ObjectID `bson:"from_user_id,omitempty" json:"from_user_id,omitempty"` // nil = company
	ToUserID    *primitive.ObjectID `bson:"to_user_id,omitempty" json:"to_user_id,omitempty"`     // nil = company
	Amount      decimal.Decimal     `bson:"amount" json:"amount"`
	Description string              `bson:"description" json:"description"`
	CreatedAt   time.Time           `bson:"created_at" json:"created_at"`
}
