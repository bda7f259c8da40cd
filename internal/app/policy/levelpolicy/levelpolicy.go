// internal/app/policy/levelpolicy/levelpolicy.go
package levelpolicy

import (
	"context"
	"sort"

	"github.com/dalemusser/uplinehub/internal/domain/models"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reader is the read side of the network that condition evaluation needs.
// Descendant projections exclude the self-row.
type Reader interface {
	DirectDescendants(ctx context.Context, userID primitive.ObjectID) ([]models.ClosureEntry, error)
	Descendants(ctx context.Context, userID primitive.ObjectID) ([]models.ClosureEntry, error)
	SumBusiness(ctx context.Context, userIDs []primitive.ObjectID) (decimal.Decimal, error)
	ActiveLevels(ctx context.Context, userIDs []primitive.ObjectID) (map[primitive.ObjectID]models.UserLevel, error)
}

// Evaluator decides one condition type.
type Evaluator interface {
	CanHandle(t models.ConditionType) bool
	Evaluate(ctx context.Context, r Reader, c models.Condition, userID primitive.ObjectID) (bool, error)
}

// Evaluators is the default evaluator set.
var Evaluators = []Evaluator{Business{}, Levels{}}

// scopeRows returns the closure rows a condition with the given scope looks at.
// ok is false for an unknown scope.
func scopeRows(ctx context.Context, r Reader, userID primitive.ObjectID, scope models.ConditionScope) (rows []models.ClosureEntry, ok bool, err error) {
	switch scope {
	case models.ScopeDirect:
		rows, err = r.DirectDescendants(ctx, userID)
	case models.ScopeNetwork:
		rows, err = r.Descendants(ctx, userID)
	default:
		return nil, false, nil
	}
	return rows, err == nil, err
}

func descendantIDs(rows []models.ClosureEntry) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, row := range rows {
		if row.IsSelf() {
			continue
		}
		ids = append(ids, row.DescendantID)
	}
	return ids
}

// Business is satisfied when the summed business volume of the scoped
// downline reaches the condition value. The user's own volume never counts.
type Business struct{}

func (Business) CanHandle(t models.ConditionType) bool { return t == models.ConditionBusiness }

func (Business) Evaluate(ctx context.Context, r Reader, c models.Condition, userID primitive.ObjectID) (bool, error) {
	rows, ok, err := scopeRows(ctx, r, userID, c.Scope)
	if err != nil || !ok {
		return false, err
	}
	ids := descendantIDs(rows)
	sum := decimal.Zero
	if len(ids) > 0 {
		if sum, err = r.SumBusiness(ctx, ids); err != nil {
			return false, err
		}
	}
	return sum.GreaterThanOrEqual(c.Value), nil
}

// Levels is satisfied when at least Value distinct branches of the downline
// hold an active level at or above the condition's target hierarchy. A branch
// is a direct child together with its whole subtree, so DIRECT and NETWORK
// scope count the same thing.
type Levels struct{}

func (Levels) CanHandle(t models.ConditionType) bool { return t == models.ConditionLevels }

func (Levels) Evaluate(ctx context.Context, r Reader, c models.Condition, userID primitive.ObjectID) (bool, error) {
	if c.Level == nil || *c.Level < 1 {
		return false, nil
	}
	if c.Scope != models.ScopeDirect && c.Scope != models.ScopeNetwork {
		return false, nil
	}
	rows, err := r.Descendants(ctx, userID)
	if err != nil {
		return false, err
	}
	ids := descendantIDs(rows)
	if len(ids) == 0 {
		return decimal.Zero.GreaterThanOrEqual(c.Value), nil
	}
	active, err := r.ActiveLevels(ctx, ids)
	if err != nil {
		return false, err
	}
	n := CountBranches(rows, active, *c.Level)
	return decimal.NewFromInt(int64(n)).GreaterThanOrEqual(c.Value), nil
}

// CountBranches counts the distinct branches (by root_child_id) that contain
// at least one descendant whose active hierarchy is >= minHierarchy.
func CountBranches(rows []models.ClosureEntry, active map[primitive.ObjectID]models.UserLevel, minHierarchy int) int {
	branches := make(map[primitive.ObjectID]struct{})
	for _, row := range rows {
		if row.IsSelf() {
			continue
		}
		ul, ok := active[row.DescendantID]
		if !ok || ul.Hierarchy < minHierarchy {
			continue
		}
		branch := row.DescendantID
		if row.RootChildID != nil {
			branch = *row.RootChildID
		}
		branches[branch] = struct{}{}
	}
	return len(branches)
}

// Satisfies reports whether userID meets every condition of level.
// A level without conditions is satisfied. A condition no evaluator handles
// is not.
func Satisfies(ctx context.Context, r Reader, evals []Evaluator, level models.Level, userID primitive.ObjectID) (bool, error) {
	for _, c := range level.Conditions {
		ev := find(evals, c.Type)
		if ev == nil {
			return false, nil
		}
		ok, err := ev.Evaluate(ctx, r, c, userID)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func find(evals []Evaluator, t models.ConditionType) Evaluator {
	for _, ev := range evals {
		if ev.CanHandle(t) {
			return ev
		}
	}
	return nil
}

// Eligible returns the highest level above currentHierarchy whose conditions
// userID satisfies, or nil. Candidates are tried highest first so a user who
// qualifies for several levels lands on the best one.
func Eligible(ctx context.Context, r Reader, evals []Evaluator, levels []models.Level, currentHierarchy int, userID primitive.ObjectID) (*models.Level, error) {
	candidates := make([]models.Level, 0, len(levels))
	for _, l := range levels {
		if l.Hierarchy > currentHierarchy {
			candidates = append(candidates, l)
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Hierarchy > candidates[j].Hierarchy })

	for i := range candidates {
		ok, err := Satisfies(ctx, r, evals, candidates[i], userID)
		if err != nil {
			return nil, err
		}
		if ok {
			return &candidates[i], nil
		}
	}
	return nil, nil
}
