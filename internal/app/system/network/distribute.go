package network

import (
	"context"
	"fmt"

	"github.com/dalemusser/uplinehub/internal/app/policy/payoutpolicy"
	"github.com/dalemusser/uplinehub/internal/app/system/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newReference() string { return uuid.NewString() }

// Plan computes how pool would be allocated up purchaserID's chain.
// Nothing is written.
func (s *Service) Plan(ctx context.Context, purchaserID primitive.ObjectID, pool decimal.Decimal) (payoutpolicy.Plan, error) {
	if _, err := s.store.GetUser(ctx, purchaserID); err != nil {
		return payoutpolicy.Plan{}, fmt.Errorf("purchaser %s: %w", purchaserID.Hex(), err)
	}
	levels, err := s.store.Levels(ctx)
	if err != nil {
		return payoutpolicy.Plan{}, fmt.Errorf("load levels: %w", err)
	}

	purchaserHierarchy := 0
	active, err := s.store.ActiveLevel(ctx, purchaserID)
	if err != nil {
		return payoutpolicy.Plan{}, fmt.Errorf("active level of %s: %w", purchaserID.Hex(), err)
	}
	if active != nil {
		purchaserHierarchy = active.Hierarchy
	}

	rows, err := s.store.Ascendants(ctx, purchaserID)
	if err != nil {
		return payoutpolicy.Plan{}, fmt.Errorf("ascendants of %s: %w", purchaserID.Hex(), err)
	}
	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.AncestorID)
	}
	ranks, err := s.store.ActiveLevels(ctx, ids)
	if err != nil {
		return payoutpolicy.Plan{}, fmt.Errorf("active levels of upline: %w", err)
	}

	ancestors := make([]payoutpolicy.Ancestor, 0, len(rows))
	for _, r := range rows {
		ancestors = append(ancestors, payoutpolicy.Ancestor{
			UserID:    r.AncestorID,
			Depth:     r.Depth,
			Hierarchy: ranks[r.AncestorID].Hierarchy,
		})
	}
	return payoutpolicy.Allocate(pool, levels, purchaserHierarchy, ancestors, s.cfg.AmountScale), nil
}

// DistributePassiveIncome allocates pool up purchaserID's chain and settles
// it. business is added to the purchaser's volume and companyBase paid to
// the company in the same settlement. If settlement fails nothing is applied.
func (s *Service) DistributePassiveIncome(ctx context.Context, purchaserID primitive.ObjectID, pool, companyBase, business decimal.Decimal) (PurchaseResult, error) {
	if pool.IsNegative() || companyBase.IsNegative() || business.IsNegative() {
		return PurchaseResult{}, ErrInvalidAmount
	}
	plan, err := s.Plan(ctx, purchaserID, pool)
	if err != nil {
		return PurchaseResult{}, err
	}

	st := Settlement{
		Reference:   newReference(),
		PurchaserID: purchaserID,
		Business:    business,
		CompanyBase: companyBase,
		Pool:        plan.Pool,
		Shares:      plan.Shares,
		Remainder:   plan.Remainder,
		At:          s.now(),
	}
	if err := s.ledger.Settle(ctx, st); err != nil {
		s.log.Error("passive income distribution aborted",
			zap.String("user_id", purchaserID.Hex()),
			zap.String("reference", st.Reference),
			zap.String("amount", pool.String()),
			zap.Error(err))
		metrics.RecordDistributionAborted()
		s.audit.DistributionAborted(ctx, purchaserID, st.Reference, err)
		return PurchaseResult{}, fmt.Errorf("settle purchase %s: %w", st.Reference, err)
	}

	res := PurchaseResult{
		Reference:              st.Reference,
		Pool:                   plan.Pool,
		CompanyBase:            companyBase,
		PaidOut:                make([]Payout, 0, len(plan.Shares)),
		UndistributedRemainder: plan.Remainder,
	}
	for _, sh := range plan.Shares {
		res.PaidOut = append(res.PaidOut, Payout{AncestorID: sh.AncestorID, Amount: sh.Amount})
		if s.notifier == nil {
			continue
		}
		if err := s.notifier.BotIncomeReceived(ctx, sh.AncestorID, sh.Amount); err != nil {
			s.log.Warn("bot income notification failed",
				zap.String("ancestor_id", sh.AncestorID.Hex()),
				zap.String("amount", sh.Amount.String()),
				zap.Error(err))
		}
	}

	paid := plan.Paid()
	s.log.Info("passive income distributed",
		zap.String("user_id", purchaserID.Hex()),
		zap.String("reference", st.Reference),
		zap.String("pool", plan.Pool.String()),
		zap.String("paid", paid.String()),
		zap.String("remainder", plan.Remainder.String()))
	metrics.RecordDistribution(paid, plan.Remainder)
	s.audit.PassiveIncomeDistributed(ctx, purchaserID, st.Reference, plan.Pool, paid, plan.Remainder, len(plan.Shares))
	return res, nil
}

// OnPurchaseCompleted distributes an already-computed pool for purchaserID,
// then runs the promotion cascade from the purchaser upward.
//
// A settlement failure is returned with an empty result. Cascade failures
// are returned alongside the settled result, since the money has moved.
func (s *Service) OnPurchaseCompleted(ctx context.Context, purchaserID primitive.ObjectID, pool decimal.Decimal) (PurchaseResult, error) {
	return s.settleAndCascade(ctx, purchaserID, pool, decimal.Zero, decimal.Zero)
}

// Purchase handles a full purchase of amount by purchaserID: the amount is
// split into the passive-income pool and the company's base cut, added to
// the purchaser's business volume, settled, and followed by the cascade.
func (s *Service) Purchase(ctx context.Context, purchaserID primitive.ObjectID, amount decimal.Decimal) (PurchaseResult, error) {
	amount = amount.Truncate(s.cfg.AmountScale)
	if !amount.IsPositive() {
		return PurchaseResult{}, ErrInvalidAmount
	}
	pool, company := payoutpolicy.SplitPurchase(amount, s.cfg.PassiveIncomePercent, s.cfg.AmountScale)
	return s.settleAndCascade(ctx, purchaserID, pool, company, amount)
}

func (s *Service) settleAndCascade(ctx context.Context, purchaserID primitive.ObjectID, pool, company, business decimal.Decimal) (PurchaseResult, error) {
	res, err := s.DistributePassiveIncome(ctx, purchaserID, pool, company, business)
	if err != nil {
		return PurchaseResult{}, err
	}
	promos, err := s.CheckAndPromoteAncestors(ctx, purchaserID)
	res.Promotions = promos
	if err != nil {
		return res, fmt.Errorf("promotion cascade after %s: %w", res.Reference, err)
	}
	return res, nil
}
