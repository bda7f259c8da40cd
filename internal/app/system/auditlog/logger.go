// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"strconv"

	"github.com/dalemusser/uplinehub/internal/app/store/audit"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Network controls logging for closure, promotion and payout events.
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Network string
	// Admin controls logging for level definitions, signups and wallet funding.
	Admin string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}

	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.Reference != "" {
		fields = append(fields, zap.String("reference", event.Reference))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryNetwork:
		setting = l.config.Network
	case audit.CategoryAdmin:
		setting = l.config.Admin
	default:
		setting = "all"
	}

	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	if setting == "all" || setting == "db" {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Network Events ---

// ClosuresCreated logs the closure rows written for a new user.
func (l *Logger) ClosuresCreated(ctx context.Context, userID primitive.ObjectID, parentID *primitive.ObjectID, rows int, fallbackEdge bool) {
	details := map[string]string{"rows": strconv.Itoa(rows)}
	if parentID != nil {
		details["parent_id"] = parentID.Hex()
	}
	eventType := audit.EventClosuresCreated
	if fallbackEdge {
		eventType = audit.EventClosureFallbackEdge
	}
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryNetwork,
		EventType: eventType,
		UserID:    &userID,
		Success:   true,
		Details:   details,
	})
}

// LevelPromoted logs a rank change.
func (l *Logger) LevelPromoted(ctx context.Context, userID, levelID primitive.ObjectID, fromHierarchy, toHierarchy int) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryNetwork,
		EventType: audit.EventLevelPromoted,
		UserID:    &userID,
		Success:   true,
		Details: map[string]string{
			"level_id":       levelID.Hex(),
			"from_hierarchy": strconv.Itoa(fromHierarchy),
			"to_hierarchy":   strconv.Itoa(toHierarchy),
		},
	})
}

// PromotionFailed logs a promotion check that errored for one user.
func (l *Logger) PromotionFailed(ctx context.Context, userID primitive.ObjectID, err error) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryNetwork,
		EventType:     audit.EventPromotionFailed,
		UserID:        &userID,
		Success:       false,
		FailureReason: err.Error(),
	})
}

// PassiveIncomeDistributed logs a completed settlement.
func (l *Logger) PassiveIncomeDistributed(ctx context.Context, purchaserID primitive.ObjectID, reference string, pool, paid, remainder decimal.Decimal, shares int) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryNetwork,
		EventType: audit.EventPassiveIncomeDistributed,
		UserID:    &purchaserID,
		Reference: reference,
		Success:   true,
		Details: map[string]string{
			"pool":      pool.String(),
			"paid":      paid.String(),
			"remainder": remainder.String(),
			"shares":    strconv.Itoa(shares),
		},
	})
}

// DistributionAborted logs a settlement that was rolled back.
func (l *Logger) DistributionAborted(ctx context.Context, purchaserID primitive.ObjectID, reference string, err error) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryNetwork,
		EventType:     audit.EventDistributionAborted,
		UserID:        &purchaserID,
		Reference:     reference,
		Success:       false,
		FailureReason: err.Error(),
	})
}

// AppraisalBonusCredited logs a bonus paid on promotion.
func (l *Logger) AppraisalBonusCredited(ctx context.Context, userID primitive.ObjectID, amount decimal.Decimal) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryNetwork,
		EventType: audit.EventAppraisalBonusCredited,
		UserID:    &userID,
		Success:   true,
		Details:   map[string]string{"amount": amount.String()},
	})
}

// --- Admin Events ---

// LevelCreated logs a new level definition.
func (l *Logger) LevelCreated(ctx context.Context, levelID primitive.ObjectID, hierarchy int) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventLevelCreated,
		Success:   true,
		Details: map[string]string{
			"level_id":  levelID.Hex(),
			"hierarchy": strconv.Itoa(hierarchy),
		},
	})
}

// UserSignedUp logs a completed signup.
func (l *Logger) UserSignedUp(ctx context.Context, userID primitive.ObjectID, parentID *primitive.ObjectID) {
	details := map[string]string{}
	if parentID != nil {
		details["parent_id"] = parentID.Hex()
	}
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventUserSignedUp,
		UserID:    &userID,
		Success:   true,
		Details:   details,
	})
}

// WalletFunded logs a deposit into a user wallet.
func (l *Logger) WalletFunded(ctx context.Context, userID primitive.ObjectID, amount decimal.Decimal) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventWalletFunded,
		UserID:    &userID,
		Success:   true,
		Details:   map[string]string{"amount": amount.String()},
	})
}
