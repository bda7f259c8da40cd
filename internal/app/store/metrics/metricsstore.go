package metricsstore

import (
	"context"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Counts is the set of network totals served by the stats endpoint.
type Counts struct {
	Users        int64            `json:"users"`
	RootUsers    int64            `json:"root_users"`
	Levels       int64            `json:"levels"`
	Ranked       int64            `json:"ranked_users"`
	ByHierarchy  map[string]int64 `json:"by_hierarchy"`
	Transactions int64            `json:"transactions"`
}

// FetchNetworkCounts returns the high-level network counts.
// Intentionally tolerant: on error it returns 0 for that counter.
func FetchNetworkCounts(ctx context.Context, db *mongo.Database) Counts {
	out := Counts{ByHierarchy: map[string]int64{}}

	if n, err := db.Collection("users").CountDocuments(ctx, bson.M{}); err == nil {
		out.Users = n
	}

	// users with no referrer
	if n, err := db.Collection("users").CountDocuments(ctx, bson.M{"referred_by_user_id": nil}); err == nil {
		out.RootUsers = n
	}

	if n, err := db.Collection("levels").CountDocuments(ctx, bson.M{}); err == nil {
		out.Levels = n
	}

	// active ranks grouped by hierarchy
	cur, err := db.Collection("user_levels").Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"active": true}}},
		{{Key: "$group", Value: bson.M{"_id": "$hierarchy", "n": bson.M{"$sum": 1}}}},
	})
	if err == nil {
		var rows []struct {
			Hierarchy int   `bson:"_id"`
			N         int64 `bson:"n"`
		}
		if cur.All(ctx, &rows) == nil {
			for _, r := range rows {
				out.ByHierarchy[strconv.Itoa(r.Hierarchy)] = r.N
				out.Ranked += r.N
			}
		}
	}

	if n, err := db.Collection("transactions").CountDocuments(ctx, bson.M{}); err == nil {
		out.Transactions = n
	}

	return out
}
