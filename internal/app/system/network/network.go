// Package network is the referral engine: closure maintenance on signup,
// level promotion with its upline cascade, and passive-income distribution.
package network

import (
	"context"
	"time"

	"github.com/dalemusser/uplinehub/internal/app/policy/levelpolicy"
	"github.com/dalemusser/uplinehub/internal/app/policy/payoutpolicy"
	closurestore "github.com/dalemusser/uplinehub/internal/app/store/closures"
	"github.com/dalemusser/uplinehub/internal/app/system/auditlog"
	"github.com/dalemusser/uplinehub/internal/domain/models"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Store is everything the engine reads and writes outside the ledger.
type Store interface {
	levelpolicy.Reader

	GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	// CreateUser stores a new user and opens its wallet.
	CreateUser(ctx context.Context, u models.User) (models.User, error)

	CreateClosures(ctx context.Context, userID primitive.ObjectID, parentID *primitive.ObjectID) (closurestore.CreateResult, error)
	// Ascendants returns the upline ordered closest first (depth > 0).
	Ascendants(ctx context.Context, userID primitive.ObjectID) ([]models.ClosureEntry, error)

	// Levels returns every configured level ordered by hierarchy ascending.
	Levels(ctx context.Context) ([]models.Level, error)
	// ActiveLevel returns nil, nil when the user holds no level.
	ActiveLevel(ctx context.Context, userID primitive.ObjectID) (*models.UserLevel, error)
	// AssignLevel closes the active row and opens one for level atomically.
	// changed is false when level was already active.
	AssignLevel(ctx context.Context, userID primitive.ObjectID, level models.Level) (row models.UserLevel, changed bool, err error)
}

// Settlement is every balance movement of one purchase, applied atomically.
type Settlement struct {
	Reference   string
	PurchaserID primitive.ObjectID
	// Business is added to the purchaser's business volume in the same unit.
	Business decimal.Decimal
	// CompanyBase is the company's cut outside the pool. May be zero.
	CompanyBase decimal.Decimal
	Pool        decimal.Decimal
	Shares      []payoutpolicy.Share
	Remainder   decimal.Decimal
	At          time.Time
}

// Debit is what the purchaser's wallet pays in total.
func (s Settlement) Debit() decimal.Decimal {
	return s.CompanyBase.Add(s.Pool)
}

// Ledger moves money. Implementations must apply a Settlement all or nothing.
type Ledger interface {
	Settle(ctx context.Context, s Settlement) error
	// CreditBonus pays amount from the company wallet to userID.
	CreditBonus(ctx context.Context, userID primitive.ObjectID, amount decimal.Decimal, reference string) error
	// Deposit funds userID's wallet from outside the system.
	Deposit(ctx context.Context, userID primitive.ObjectID, amount decimal.Decimal, reference string) error
}

// Notifier receives passive income notifications for the bot-income cap tracker.
type Notifier interface {
	BotIncomeReceived(ctx context.Context, userID primitive.ObjectID, amount decimal.Decimal) error
}

// Config tunes the engine.
type Config struct {
	// PassiveIncomePercent is the share of a purchase that forms the pool.
	PassiveIncomePercent decimal.Decimal
	// AmountScale is the number of decimal places of the smallest currency unit.
	AmountScale int32
	// AppraisalBonus enables crediting a level's appraisal bonus on promotion.
	AppraisalBonus bool
}

// DefaultConfig returns 10% pool, cents, bonus enabled.
func DefaultConfig() Config {
	return Config{
		PassiveIncomePercent: decimal.NewFromInt(10),
		AmountScale:          2,
		AppraisalBonus:       true,
	}
}

// Service runs the engine over a Store and Ledger.
type Service struct {
	store    Store
	ledger   Ledger
	notifier Notifier
	audit    *auditlog.Logger
	log      *zap.Logger
	evals    []levelpolicy.Evaluator
	cfg      Config
	now      func() time.Time
}

// New builds a Service. audit may be nil.
func New(store Store, ledger Ledger, notifier Notifier, audit *auditlog.Logger, log *zap.Logger, cfg Config) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:    store,
		ledger:   ledger,
		notifier: notifier,
		audit:    audit,
		log:      log,
		evals:    levelpolicy.Evaluators,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Config returns the engine configuration.
func (s *Service) Config() Config { return s.cfg }

// Promotion is one level change made by the engine.
type Promotion struct {
	UserID        primitive.ObjectID `json:"user_id"`
	LevelID       primitive.ObjectID `json:"level_id"`
	FromHierarchy int                `json:"from_hierarchy"`
	ToHierarchy   int                `json:"to_hierarchy"`
}

// Payout is one ancestor credited from a pool.
type Payout struct {
	AncestorID primitive.ObjectID `json:"ancestor_id"`
	Amount     decimal.Decimal    `json:"amount"`
}

// PurchaseResult reports a settled purchase.
type PurchaseResult struct {
	Reference              string          `json:"reference"`
	Pool                   decimal.Decimal `json:"pool"`
	CompanyBase            decimal.Decimal `json:"company_base"`
	PaidOut                []Payout        `json:"paid_out"`
	UndistributedRemainder decimal.Decimal `json:"undistributed_remainder"`
	Promotions             []Promotion     `json:"promotions"`
}
