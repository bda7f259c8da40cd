package network

import (
	"context"
	"errors"
	"fmt"

	closurestore "github.com/dalemusser/uplinehub/internal/app/store/closures"
	"github.com/dalemusser/uplinehub/internal/app/system/metrics"
	"github.com/dalemusser/uplinehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Signup creates a user under parentID (nil for a root) and completes the
// signup by writing its closure rows.
func (s *Service) Signup(ctx context.Context, fullName string, parentID *primitive.ObjectID) (models.User, error) {
	u, err := s.store.CreateUser(ctx, models.User{FullName: fullName, ReferredByUserID: parentID})
	if err != nil {
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	s.audit.UserSignedUp(ctx, u.ID, parentID)

	if _, err := s.OnUserSignupCompleted(ctx, u.ID, parentID); err != nil {
		return u, err
	}
	return u, nil
}

// OnUserSignupCompleted writes the closure rows for a new user.
//
// A duplicate row means the tree is already corrupt for this user and is
// returned. Any other failure is logged and swallowed so the account still
// exists.
func (s *Service) OnUserSignupCompleted(ctx context.Context, userID primitive.ObjectID, parentID *primitive.ObjectID) (closurestore.CreateResult, error) {
	res, err := s.store.CreateClosures(ctx, userID, parentID)
	if err != nil {
		if errors.Is(err, closurestore.ErrDuplicateClosure) {
			s.log.Error("closure conflict on signup",
				zap.String("user_id", userID.Hex()),
				zap.Error(err))
			return res, fmt.Errorf("create closures for %s: %w", userID.Hex(), err)
		}
		s.log.Error("closure creation failed; account kept",
			zap.String("user_id", userID.Hex()),
			zap.Error(err))
		return res, nil
	}

	if res.FallbackEdge {
		s.log.Warn("parent has no closure chain; wrote direct edge only",
			zap.String("user_id", userID.Hex()),
			zap.String("parent_id", parentID.Hex()))
	}
	metrics.RecordClosures(len(res.Rows), res.FallbackEdge)
	s.audit.ClosuresCreated(ctx, userID, parentID, len(res.Rows), res.FallbackEdge)
	return res, nil
}
