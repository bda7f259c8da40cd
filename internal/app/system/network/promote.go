package network

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/uplinehub/internal/app/policy/levelpolicy"
	userlevelstore "github.com/dalemusser/uplinehub/internal/app/store/userlevels"
	"github.com/dalemusser/uplinehub/internal/app/system/metrics"
	"github.com/dalemusser/uplinehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// maxAssignAttempts bounds re-evaluation when another writer changed the
// user's active level between our read and our write.
const maxAssignAttempts = 3

// PromoteUserIfEligible moves userID to the highest level it qualifies for,
// if that is above its current one. Running it again with no state change
// is a no-op.
func (s *Service) PromoteUserIfEligible(ctx context.Context, userID primitive.ObjectID) (Promotion, bool, error) {
	levels, err := s.store.Levels(ctx)
	if err != nil {
		return Promotion{}, false, fmt.Errorf("load levels: %w", err)
	}
	if len(levels) == 0 {
		return Promotion{}, false, nil
	}

	for attempt := 1; ; attempt++ {
		p, ok, err := s.promoteOnce(ctx, userID, levels)
		if !errors.Is(err, userlevelstore.ErrActiveLevelConflict) || attempt == maxAssignAttempts {
			return p, ok, err
		}
		s.log.Info("active level changed concurrently; re-evaluating",
			zap.String("user_id", userID.Hex()),
			zap.Int("attempt", attempt))
	}
}

func (s *Service) promoteOnce(ctx context.Context, userID primitive.ObjectID, levels []models.Level) (Promotion, bool, error) {
	current := 0
	active, err := s.store.ActiveLevel(ctx, userID)
	if err != nil {
		return Promotion{}, false, fmt.Errorf("active level of %s: %w", userID.Hex(), err)
	}
	if active != nil {
		current = active.Hierarchy
	}

	target, err := levelpolicy.Eligible(ctx, s.store, s.evals, levels, current, userID)
	if err != nil {
		return Promotion{}, false, fmt.Errorf("evaluate %s: %w", userID.Hex(), err)
	}
	if target == nil || target.Hierarchy <= current {
		return Promotion{}, false, nil
	}

	row, changed, err := s.store.AssignLevel(ctx, userID, *target)
	if err != nil {
		return Promotion{}, false, fmt.Errorf("assign level %d to %s: %w", target.Hierarchy, userID.Hex(), err)
	}
	if !changed {
		return Promotion{}, false, nil
	}

	p := Promotion{UserID: userID, LevelID: row.LevelID, FromHierarchy: current, ToHierarchy: row.Hierarchy}
	s.log.Info("level promoted",
		zap.String("user_id", userID.Hex()),
		zap.String("level_id", row.LevelID.Hex()),
		zap.Int("from_hierarchy", current),
		zap.Int("hierarchy", row.Hierarchy))
	metrics.RecordPromotion(row.Hierarchy)
	s.audit.LevelPromoted(ctx, userID, row.LevelID, current, row.Hierarchy)
	s.payAppraisalBonus(ctx, userID, *target)
	return p, true, nil
}

// payAppraisalBonus credits the level's bonus from the company wallet.
// Failures are logged; the promotion stands.
func (s *Service) payAppraisalBonus(ctx context.Context, userID primitive.ObjectID, level models.Level) {
	if !s.cfg.AppraisalBonus || !level.AppraisalBonus.IsPositive() {
		return
	}
	ref := newReference()
	if err := s.ledger.CreditBonus(ctx, userID, level.AppraisalBonus, ref); err != nil {
		s.log.Warn("appraisal bonus not paid",
			zap.String("user_id", userID.Hex()),
			zap.Int("hierarchy", level.Hierarchy),
			zap.String("amount", level.AppraisalBonus.String()),
			zap.Error(err))
		return
	}
	s.audit.AppraisalBonusCredited(ctx, userID, level.AppraisalBonus)
}

// CheckAndPromoteAncestors promotes userID, then each of its ancestors
// closest first. Every ancestor that was promoted has its own upline
// re-checked, since its new level may satisfy a LEVELS condition further up.
//
// A failure for one user does not stop the others; all failures are joined
// into the returned error.
func (s *Service) CheckAndPromoteAncestors(ctx context.Context, userID primitive.ObjectID) ([]Promotion, error) {
	var c cascade
	s.cascade(ctx, userID, &c)
	return c.promotions, errors.Join(c.errs...)
}

type cascade struct {
	promotions []Promotion
	errs       []error
}

func (s *Service) cascade(ctx context.Context, userID primitive.ObjectID, c *cascade) {
	s.tryPromote(ctx, userID, c)

	ancestors, err := s.store.Ascendants(ctx, userID)
	if err != nil {
		c.errs = append(c.errs, fmt.Errorf("ascendants of %s: %w", userID.Hex(), err))
		return
	}
	for _, a := range ancestors {
		if ctx.Err() != nil {
			c.errs = append(c.errs, ctx.Err())
			return
		}
		if s.tryPromote(ctx, a.AncestorID, c) {
			s.cascade(ctx, a.AncestorID, c)
		}
	}
}

func (s *Service) tryPromote(ctx context.Context, userID primitive.ObjectID, c *cascade) bool {
	p, ok, err := s.PromoteUserIfEligible(ctx, userID)
	if err != nil {
		s.log.Warn("promotion check failed",
			zap.String("user_id", userID.Hex()),
			zap.Error(err))
		metrics.RecordCascadeError()
		s.audit.PromotionFailed(ctx, userID, err)
		c.errs = append(c.errs, err)
		return false
	}
	if ok {
		c.promotions = append(c.promotions, p)
	}
	return ok
}
