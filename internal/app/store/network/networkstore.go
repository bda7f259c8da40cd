// Package networkstore backs the referral engine with MongoDB. It composes
// the collection stores and wraps every multi-document write in txn.Run.
package networkstore

import (
	"context"
	"fmt"
	"time"

	botincomestore "github.com/dalemusser/uplinehub/internal/app/store/botincome"
	closurestore "github.com/dalemusser/uplinehub/internal/app/store/closures"
	levelstore "github.com/dalemusser/uplinehub/internal/app/store/levels"
	transactionstore "github.com/dalemusser/uplinehub/internal/app/store/transactions"
	userlevelstore "github.com/dalemusser/uplinehub/internal/app/store/userlevels"
	userstore "github.com/dalemusser/uplinehub/internal/app/store/users"
	walletstore "github.com/dalemusser/uplinehub/internal/app/store/wallets"
	"github.com/dalemusser/uplinehub/internal/app/system/network"
	"github.com/dalemusser/uplinehub/internal/app/system/txn"
	"github.com/dalemusser/uplinehub/internal/domain/models"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Store struct {
	db  *mongo.Database
	log *zap.Logger

	users      *userstore.Store
	closures   *closurestore.Store
	levels     *levelstore.Store
	userLevels *userlevelstore.Store
	wallets    *walletstore.Store
	txns       *transactionstore.Store
	botIncome  *botincomestore.Store
}

var (
	_ network.Store    = (*Store)(nil)
	_ network.Ledger   = (*Store)(nil)
	_ network.Notifier = (*Store)(nil)
)

func New(db *mongo.Database, logger *zap.Logger) *Store {
	return &Store{
		db:         db,
		log:        logger,
		users:      userstore.New(db),
		closures:   closurestore.New(db),
		levels:     levelstore.New(db),
		userLevels: userlevelstore.New(db),
		wallets:    walletstore.New(db),
		txns:       transactionstore.New(db),
		botIncome:  botincomestore.New(db),
	}
}

/* ------------------------------- reads ---------------------------------- */

func (s *Store) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Store) DirectDescendants(ctx context.Context, userID primitive.ObjectID) ([]models.ClosureEntry, error) {
	return s.closures.DirectDescendants(ctx, userID)
}

func (s *Store) Descendants(ctx context.Context, userID primitive.ObjectID) ([]models.ClosureEntry, error) {
	return s.closures.Descendants(ctx, userID)
}

func (s *Store) Ascendants(ctx context.Context, userID primitive.ObjectID) ([]models.ClosureEntry, error) {
	return s.closures.Ascendants(ctx, userID)
}

func (s *Store) SumBusiness(ctx context.Context, userIDs []primitive.ObjectID) (decimal.Decimal, error) {
	return s.users.SumBusiness(ctx, userIDs)
}

func (s *Store) ActiveLevels(ctx context.Context, userIDs []primitive.ObjectID) (map[primitive.ObjectID]models.UserLevel, error) {
	return s.userLevels.ActiveForUsers(ctx, userIDs)
}

func (s *Store) Levels(ctx context.Context) ([]models.Level, error) {
	return s.levels.List(ctx)
}

func (s *Store) ActiveLevel(ctx context.Context, userID primitive.ObjectID) (*models.UserLevel, error) {
	return s.userLevels.Active(ctx, userID)
}

/* ------------------------------- writes --------------------------------- */

// CreateUser inserts the user and its wallet together.
func (s *Store) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	var out models.User
	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		created, err := s.users.Create(ctx, u)
		if err != nil {
			return err
		}
		if _, err := s.wallets.CreateForUser(ctx, created.ID); err != nil {
			return fmt.Errorf("open wallet: %w", err)
		}
		out = created
		return nil
	})
	return out, err
}

// CreateClosures writes all closure rows for a new user in one transaction.
func (s *Store) CreateClosures(ctx context.Context, userID primitive.ObjectID, parentID *primitive.ObjectID) (closurestore.CreateResult, error) {
	var res closurestore.CreateResult
	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		var err error
		res, err = s.closures.CreateForUser(ctx, userID, parentID)
		return err
	})
	return res, err
}

// AssignLevel closes the active row and opens the new one in one transaction.
func (s *Store) AssignLevel(ctx context.Context, userID primitive.ObjectID, level models.Level) (models.UserLevel, bool, error) {
	var (
		row     models.UserLevel
		changed bool
	)
	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		var err error
		row, changed, err = s.userLevels.Assign(ctx, userID, level)
		return err
	})
	return row, changed, err
}

/* ------------------------------- ledger --------------------------------- */

// Settle applies a purchase settlement. Every wallet is resolved and the
// purchaser's balance checked before the first write, so a failure in
// servers without transactions still leaves nothing half-applied.
func (s *Store) Settle(ctx context.Context, st network.Settlement) error {
	return txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		purchaser, err := s.wallets.GetByOwner(ctx, st.PurchaserID)
		if err != nil {
			return fmt.Errorf("purchaser wallet: %w", err)
		}
		if purchaser.Balance.LessThan(st.Debit()) {
			return walletstore.ErrInsufficientFunds
		}
		company, err := s.wallets.Company(ctx)
		if err != nil {
			return fmt.Errorf("company wallet: %w", err)
		}

		ids := make([]primitive.ObjectID, 0, len(st.Shares))
		for _, sh := range st.Shares {
			ids = append(ids, sh.AncestorID)
		}
		ancestors, err := s.wallets.ListByOwners(ctx, ids)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if _, ok := ancestors[id]; !ok {
				return fmt.Errorf("wallet of ancestor %s: %w", id.Hex(), walletstore.ErrWalletNotFound)
			}
		}
		if ok, err := s.users.Exists(ctx, st.PurchaserID); err != nil {
			return err
		} else if !ok {
			return userstore.ErrNotFound
		}

		if debit := st.Debit(); debit.IsPositive() {
			if err := s.wallets.Debit(ctx, purchaser.ID, debit); err != nil {
				return err
			}
		}

		from := st.PurchaserID
		for _, sh := range st.Shares {
			to := sh.AncestorID
			if err := s.wallets.Credit(ctx, ancestors[to].ID, sh.Amount); err != nil {
				return err
			}
			desc := fmt.Sprintf("passive income for hierarchy %d-%d", sh.From, sh.To)
			if err := s.record(ctx, st.Reference, models.TxnPassiveIncome, &from, &to, sh.Amount, desc, st.At); err != nil {
				return err
			}
		}

		toCompany := st.CompanyBase.Add(st.Remainder)
		if toCompany.IsPositive() {
			if err := s.wallets.Credit(ctx, company.ID, toCompany); err != nil {
				return err
			}
		}
		if err := s.record(ctx, st.Reference, models.TxnCompanyShare, &from, nil, st.CompanyBase, "company share", st.At); err != nil {
			return err
		}
		if err := s.record(ctx, st.Reference, models.TxnUndistributedPassive, &from, nil, st.Remainder, "undistributed passive share", st.At); err != nil {
			return err
		}

		if st.Business.IsPositive() {
			if err := s.users.AddBusiness(ctx, st.PurchaserID, st.Business); err != nil {
				return err
			}
		}
		return nil
	})
}

// CreditBonus moves amount from the company wallet to userID's wallet.
func (s *Store) CreditBonus(ctx context.Context, userID primitive.ObjectID, amount decimal.Decimal, reference string) error {
	return txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		w, err := s.wallets.GetByOwner(ctx, userID)
		if err != nil {
			return err
		}
		company, err := s.wallets.Company(ctx)
		if err != nil {
			return err
		}
		if err := s.wallets.Transfer(ctx, company.ID, w.ID, amount); err != nil {
			return err
		}
		return s.record(ctx, reference, models.TxnAppraisalBonus, nil, &userID, amount, "appraisal bonus", time.Now().UTC())
	})
}

// Deposit credits userID's wallet from outside the system.
func (s *Store) Deposit(ctx context.Context, userID primitive.ObjectID, amount decimal.Decimal, reference string) error {
	return txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		w, err := s.wallets.GetByOwner(ctx, userID)
		if err != nil {
			return err
		}
		if err := s.wallets.Credit(ctx, w.ID, amount); err != nil {
			return err
		}
		return s.record(ctx, reference, models.TxnDeposit, nil, &userID, amount, "deposit", time.Now().UTC())
	})
}

// record appends a ledger row. Zero amounts are skipped.
func (s *Store) record(ctx context.Context, ref, kind string, from, to *primitive.ObjectID, amount decimal.Decimal, desc string, at time.Time) error {
	if !amount.IsPositive() {
		return nil
	}
	_, err := s.txns.Record(ctx, models.Transaction{
		Reference:   ref,
		Kind:        kind,
		FromUserID:  from,
		ToUserID:    to,
		Amount:      amount,
		Description: desc,
		CreatedAt:   at,
	})
	return err
}

/* ------------------------------ notifier -------------------------------- */

func (s *Store) BotIncomeReceived(ctx context.Context, userID primitive.ObjectID, amount decimal.Decimal) error {
	return s.botIncome.Notify(ctx, userID, amount)
}
