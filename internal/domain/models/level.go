// internal/domain/models/level.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ConditionType selects the evaluator for a level condition.
type ConditionType string

const (
	ConditionBusiness ConditionType = "BUSINESS"
	ConditionLevels   ConditionType = "LEVELS"
)

// ConditionScope restricts which part of the downline a condition looks at.
type ConditionScope string

const (
	ScopeDirect  ConditionScope = "DIRECT"  // direct children (LEVELS counts their subtrees)
	ScopeNetwork ConditionScope = "NETWORK" // every descendant
)

// Condition is one eligibility predicate of a level.
// For BUSINESS, Value is a volume threshold. For LEVELS, Value is the number
// of distinct branches that must hold a level at or above Level (a hierarchy).
type Condition struct {
	Type  ConditionType   `bson:"type" json:"type" validate:"required,oneof=BUSINESS LEVELS"`
	Scope ConditionScope  `bson:"scope" json:"scope" validate:"required,oneof=DIRECT NETWORK"`
	Value decimal.Decimal `bson:"value" json:"value"`
	Level *int            `bson:"level,omitempty" json:"level,omitempty" validate:"omitempty,min=1"`
}

// Level is a rank. Hierarchy values are distinct; a higher value is a higher rank.
// Conditions are ANDed; a level without conditions is always reachable.
type Level struct {
	ID                      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name                    string             `bson:"name" json:"name"`
	NameCI                  string             `bson:"name_ci" json:"-"`
	Description             string             `bson:"description,omitempty" json:"description,omitempty"`
	Hierarchy               int                `bson:"hierarchy" json:"hierarchy"`
	AppraisalBonus          decimal.Decimal    `bson:"appraisal_bonus" json:"appraisal_bonus"`
	PassiveIncomePercentage decimal.Decimal    `bson:"passive_income_percentage" json:"passive_income_percentage"`
	Conditions              []Condition        `bson:"conditions" json:"conditions"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
