// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	sets := []struct {
		name string
		fn   func(context.Context, *mongo.Database) error
	}{
		{"users", ensureUsers},
		{"user_closures", ensureUserClosures},
		{"levels", ensureLevels},
		{"user_levels", ensureUserLevels},
		{"wallets", ensureWallets},
		{"transactions", ensureTransactions},
		{"bot_incomes", ensureBotIncomes},
		{"audit_events", ensureAuditEvents},
	}
	for _, s := range sets {
		if err := s.fn(ctx, db); err != nil {
			problems = append(problems, s.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	av := false
	bv := false
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return av == bv
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 { // E11000 duplicate key error index
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// Mongo/DocDB sometimes returns IndexOptionsConflict when an index with the
// same keys already exists under a different name (or options differ).
func isOptionsConflictErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "IndexOptionsConflict")
}

// listExisting returns the collection's indexes keyed by key signature.
func listExisting(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	existing := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing
}

// createErr formats a CreateOne failure, calling out unique violations.
func createErr(coll *mongo.Collection, name string, unique bool, err error) string {
	if unique && isDuplicateKeyErr(err) {
		return fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), name)
	}
	return fmt.Sprintf("%s(%s): %v", coll.Name(), name, err)
}

// replaceIndex drops ex and creates m in its place.
func replaceIndex(ctx context.Context, coll *mongo.Collection, ex existingIndex, m mongo.IndexModel, name string, unique bool) error {
	if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
		zap.L().Warn("drop existing index failed",
			zap.String("collection", coll.Name()),
			zap.String("name", ex.Name),
			zap.Error(err))
		return fmt.Errorf("%s(%s): drop failed: %v", coll.Name(), name, err)
	}
	if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
		return errors.New(createErr(coll, name, unique, err))
	}
	return nil
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			if m.Options.Unique != nil {
				desiredUnique = m.Options.Unique
			}
		}
		unique := desiredUnique != nil && *desiredUnique
		desiredSig := keySig(m.Keys.(bson.D))

		start := time.Now()
		log := zap.L().With(
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", desiredSig),
			zap.Bool("unique", unique))
		log.Info("ensuring index")

		if ex, ok := listExisting(ctx, coll)[desiredSig]; ok {
			switch {
			case sameBoolPtr(desiredUnique, ex.Unique) && (desiredName == "" || ex.Name == desiredName):
				log.Info("reusing existing index", zap.String("took", time.Since(start).String()))
			case sameBoolPtr(desiredUnique, ex.Unique):
				// Same keys and options under another name: align the name.
				if err := replaceIndex(ctx, coll, ex, m, desiredName, unique); err != nil {
					errs = append(errs, err.Error())
					continue
				}
				log.Info("index renamed", zap.String("from", ex.Name), zap.String("took", time.Since(start).String()))
			default:
				if err := replaceIndex(ctx, coll, ex, m, desiredName, unique); err != nil {
					errs = append(errs, err.Error())
					continue
				}
				log.Info("index dropped and recreated", zap.String("took", time.Since(start).String()))
			}
			continue
		}

		created, err := coll.Indexes().CreateOne(ctx, m)
		if err == nil {
			log.Info("index ensured",
				zap.String("created_name", created),
				zap.String("took", time.Since(start).String()))
			continue
		}

		if isOptionsConflictErr(err) {
			if ex, ok := listExisting(ctx, coll)[desiredSig]; ok {
				if sameBoolPtr(desiredUnique, ex.Unique) {
					log.Info("reusing existing index (post-conflict)", zap.String("took", time.Since(start).String()))
					continue
				}
				if e3 := replaceIndex(ctx, coll, ex, m, desiredName, unique); e3 != nil {
					errs = append(errs, e3.Error())
					continue
				}
				log.Info("index dropped and recreated (post-conflict)", zap.String("took", time.Since(start).String()))
				continue
			}
		}

		log.Warn("index ensure failed", zap.String("took", time.Since(start).String()), zap.Error(err))
		errs = append(errs, createErr(coll, desiredName, unique, err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("users")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Direct referrals of a user
		{
			Keys: bson.D{
				{Key: "referred_by_user_id", Value: 1},
			},
			Options: options.Index().
				SetName("idx_users_referredby"),
		},
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "full_name_ci", Value: 1},
				{Key: "_id", Value: 1},
			},
			Options: options.Index().
				SetName("idx_users_status_fullnameci__id"),
		},
	})
}

func ensureUserClosures(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("user_closures")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// One row per ordered pair
		{
			Keys: bson.D{
				{Key: "ancestor_id", Value: 1},
				{Key: "descendant_id", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetName("uniq_closures_ancestor_descendant"),
		},
		// Upline walk (chain / ascendants)
		{
			Keys: bson.D{
				{Key: "descendant_id", Value: 1},
				{Key: "depth", Value: 1},
			},
			Options: options.Index().
				SetName("idx_closures_descendant_depth"),
		},
		// Downline walk (descendants / direct)
		{
			Keys: bson.D{
				{Key: "ancestor_id", Value: 1},
				{Key: "depth", Value: 1},
			},
			Options: options.Index().
				SetName("idx_closures_ancestor_depth"),
		},
		// Branch grouping for NETWORK-scope level counts
		{
			Keys: bson.D{
				{Key: "ancestor_id", Value: 1},
				{Key: "root_child_id", Value: 1},
			},
			Options: options.Index().
				SetName("idx_closures_ancestor_rootchild"),
		},
	})
}

func ensureLevels(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("levels")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "hierarchy", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetName("uniq_levels_hierarchy"),
		},
	})
}

func ensureUserLevels(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("user_levels")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// At most one active level per user
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"active": true}).
				SetName("uniq_userlevels_user_active"),
		},
		// Level history per user
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "start_date", Value: 1},
			},
			Options: options.Index().
				SetName("idx_userlevels_user_start"),
		},
	})
}

func ensureWallets(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("wallets")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "owner_id", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"kind": "user"}).
				SetName("uniq_wallets_owner_user"),
		},
		// Single company wallet
		{
			Keys: bson.D{
				{Key: "kind", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"kind": "company"}).
				SetName("uniq_wallets_company"),
		},
	})
}

func ensureTransactions(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("transactions")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "reference", Value: 1},
			},
			Options: options.Index().
				SetName("idx_txns_reference"),
		},
		{
			Keys: bson.D{
				{Key: "to_user_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().
				SetName("idx_txns_touser_createdat"),
		},
		{
			Keys: bson.D{
				{Key: "from_user_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().
				SetName("idx_txns_fromuser_createdat"),
		},
	})
}

func ensureBotIncomes(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("bot_incomes")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetName("uniq_botincomes_user"),
		},
	})
}

func ensureAuditEvents(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("audit_events")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().
				SetName("idx_audit_user_ts"),
		},
		{
			Keys: bson.D{
				{Key: "reference", Value: 1},
			},
			Options: options.Index().
				SetName("idx_audit_reference"),
		},
		{
			Keys: bson.D{
				{Key: "category", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().
				SetName("idx_audit_category_ts"),
		},
	})
}
