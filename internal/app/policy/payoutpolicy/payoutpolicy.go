// internal/app/policy/payoutpolicy/payoutpolicy.go
package payoutpolicy

import (
	"sort"

	"github.com/dalemusser/uplinehub/internal/app/system/money"
	"github.com/dalemusser/uplinehub/internal/domain/models"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Ancestor is one upline member as seen by the allocator.
// Hierarchy is 0 when the member holds no active level.
type Ancestor struct {
	UserID    primitive.ObjectID
	Depth     int
	Hierarchy int
}

// Share is the part of the pool paid to one ancestor for the hierarchy
// steps From..To (inclusive).
type Share struct {
	AncestorID primitive.ObjectID `json:"ancestor_id"`
	Hierarchy  int                `json:"hierarchy"`
	From       int                `json:"from"`
	To         int                `json:"to"`
	Percentage decimal.Decimal    `json:"percentage"`
	Amount     decimal.Decimal    `json:"amount"`
}

// Plan is the full allocation of one pool. Sum(Shares.Amount)+Remainder == Pool.
type Plan struct {
	Pool      decimal.Decimal
	Shares    []Share
	Remainder decimal.Decimal
}

// Paid returns the total of all shares.
func (p Plan) Paid() decimal.Decimal {
	sum := decimal.Zero
	for _, s := range p.Shares {
		sum = sum.Add(s.Amount)
	}
	return sum
}

// Allocate walks ancestors closest first and pays each one for the
// hierarchy steps between the last covered step and its own hierarchy
// (capped at the highest configured level). Steps at or below the
// purchaser's hierarchy are never paid. Each step is attributed to exactly
// one ancestor, the first one whose hierarchy reaches it, whether or not
// the resulting amount is positive.
//
// Amounts are truncated to scale decimal places and capped at what is left
// of the pool. Whatever is not paid is returned as Remainder.
func Allocate(pool decimal.Decimal, levels []models.Level, purchaserHierarchy int, ancestors []Ancestor, scale int32) Plan {
	plan := Plan{Pool: pool, Remainder: pool}
	if len(levels) == 0 || !pool.IsPositive() {
		return plan
	}

	pct := make(map[int]decimal.Decimal, len(levels))
	maxHierarchy := 0
	for _, l := range levels {
		pct[l.Hierarchy] = l.PassiveIncomePercentage
		if l.Hierarchy > maxHierarchy {
			maxHierarchy = l.Hierarchy
		}
	}

	ordered := make([]Ancestor, len(ancestors))
	copy(ordered, ancestors)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Depth < ordered[j].Depth })

	last := purchaserHierarchy
	remaining := pool
	for _, a := range ordered {
		if !remaining.IsPositive() || last >= maxHierarchy {
			break
		}
		if a.Hierarchy <= last {
			continue
		}
		to := min(a.Hierarchy, maxHierarchy)
		rangePct := decimal.Zero
		for h := last + 1; h <= to; h++ {
			if p, ok := pct[h]; ok {
				rangePct = rangePct.Add(p)
			}
		}

		amount := money.Floor(money.Percent(pool, rangePct), scale)
		if amount.GreaterThan(remaining) {
			amount = remaining
		}
		if amount.IsPositive() {
			plan.Shares = append(plan.Shares, Share{
				AncestorID: a.UserID,
				Hierarchy:  a.Hierarchy,
				From:       last + 1,
				To:         to,
				Percentage: rangePct,
				Amount:     amount,
			})
			remaining = remaining.Sub(amount)
		}
		last = to
	}

	plan.Remainder = remaining
	return plan
}

// SplitPurchase divides a purchase amount into the passive-income pool
// (percent of amount, truncated to scale) and the company's base cut.
func SplitPurchase(amount, percent decimal.Decimal, scale int32) (pool, company decimal.Decimal) {
	pool = money.Floor(money.Percent(amount, percent), scale)
	if pool.IsNegative() {
		pool = decimal.Zero
	}
	if pool.GreaterThan(amount) {
		pool = amount
	}
	return pool, amount.Sub(pool)
}
