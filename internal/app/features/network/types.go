// internal/app/features/network/types.go
package network

import (
	"encoding/json"

	"github.com/dalemusser/uplinehub/internal/app/system/network"
	"github.com/dalemusser/uplinehub/internal/domain/models"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Amounts are accepted as JSON numbers or numeric strings.

type signupRequest struct {
	FullName string `json:"full_name" validate:"required,max=200" label:"Full name"`
	ParentID string `json:"parent_id" validate:"omitempty,objectid" label:"Parent"`
}

type depositRequest struct {
	Amount json.Number `json:"amount" validate:"required,posdecimal" label:"Amount"`
}

type purchaseRequest struct {
	PurchaserID string      `json:"purchaser_id" validate:"required,objectid" label:"Purchaser"`
	Amount      json.Number `json:"amount" validate:"required,posdecimal" label:"Amount"`
	PackageID   string      `json:"package_id,omitempty" validate:"omitempty,max=64" label:"Package"`
}

type depositResponse struct {
	Reference string          `json:"reference"`
	Amount    decimal.Decimal `json:"amount"`
}

type purchaseResponse struct {
	network.PurchaseResult
	CascadeError string `json:"cascade_error,omitempty"`
}

type promotionsResponse struct {
	UserID     primitive.ObjectID  `json:"user_id"`
	Promotions []network.Promotion `json:"promotions"`
	Errors     string              `json:"errors,omitempty"`
}

// treeRow is one closure row seen from the requested user.
type treeRow struct {
	UserID      primitive.ObjectID  `json:"user_id"`
	Depth       int                 `json:"depth"`
	RootChildID *primitive.ObjectID `json:"root_child_id,omitempty"`
}

type treeResponse struct {
	UserID primitive.ObjectID `json:"user_id"`
	Rows   []treeRow          `json:"rows"`
}

type levelResponse struct {
	UserID primitive.ObjectID `json:"user_id"`
	Level  *models.UserLevel  `json:"level"`
}
