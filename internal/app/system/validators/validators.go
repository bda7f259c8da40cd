// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/uplinehub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	// Referral forest
	ensure("users", usersSchema())
	ensure("user_closures", closuresSchema())

	// Ranks
	ensure("levels", levelsSchema())
	ensure("user_levels", userLevelsSchema())

	// Money
	ensure("wallets", walletsSchema())
	ensure("transactions", transactionsSchema())

	// These don't strictly need validators; we still ensure the collections exist.
	ensure("bot_incomes", nil)
	ensure("audit_events", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

// Money fields are Decimal128; ints are accepted for hand-seeded rows.
var money = bson.M{"bsonType": bson.A{"decimal", "int", "long", "double"}}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"full_name", "status", "business_done"},
			"properties": bson.M{
				"full_name":           bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"full_name_ci":        bson.M{"bsonType": "string"},
				"referred_by_user_id": bson.M{"bsonType": "objectId"},
				"business_done":       money,
				"status":              bson.M{"enum": bson.A{"active", "disabled"}},
			},
		},
	}
}

func closuresSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"ancestor_id", "descendant_id", "depth"},
			"properties": bson.M{
				"ancestor_id":   bson.M{"bsonType": "objectId"},
				"descendant_id": bson.M{"bsonType": "objectId"},
				"depth":         bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
				"root_child_id": bson.M{"bsonType": "objectId"},
				"created_at":    bson.M{"bsonType": "date"},
			},
		},
	}
}

func levelsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "hierarchy", "passive_income_percentage"},
			"properties": bson.M{
				"name":                      bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"hierarchy":                 bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 1},
				"appraisal_bonus":           money,
				"passive_income_percentage": money,
				"conditions": bson.M{
					"bsonType": bson.A{"array", "null"},
					"items": bson.M{
						"bsonType": "object",
						"required": bson.A{"type", "scope"},
						"properties": bson.M{
							"type":  bson.M{"enum": bson.A{string(models.ConditionBusiness), string(models.ConditionLevels)}},
							"scope": bson.M{"enum": bson.A{string(models.ScopeDirect), string(models.ScopeNetwork)}},
							"value": money,
							"level": bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 1},
						},
					},
				},
			},
		},
	}
}

func userLevelsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"user_id", "level_id", "hierarchy", "active", "start_date"},
			"properties": bson.M{
				"user_id":    bson.M{"bsonType": "objectId"},
				"level_id":   bson.M{"bsonType": "objectId"},
				"hierarchy":  bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 1},
				"active":     bson.M{"bsonType": "bool"},
				"start_date": bson.M{"bsonType": "date"},
				"end_date":   bson.M{"bsonType": "date"},
			},
		},
	}
}

func walletsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"kind", "balance"},
			"properties": bson.M{
				"owner_id": bson.M{"bsonType": "objectId"},
				"kind":     bson.M{"enum": bson.A{models.WalletKindUser, models.WalletKindCompany}},
				"balance":  money,
			},
		},
	}
}

func transactionsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"reference", "kind", "amount", "created_at"},
			"properties": bson.M{
				"reference": bson.M{"bsonType": "string", "minLength": 1},
				"kind": bson.M{"enum": bson.A{
					models.TxnDeposit,
					models.TxnPassiveIncome,
					models.TxnCompanyShare,
					models.TxnUndistributedPassive,
					models.TxnAppraisalBonus,
				}},
				"from_user_id": bson.M{"bsonType": "objectId"},
				"to_user_id":   bson.M{"bsonType": "objectId"},
				"amount":       money,
				"description":  bson.M{"bsonType": "string"},
				"created_at":   bson.M{"bsonType": "date"},
			},
		},
	}
}
