package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	closurestore "github.com/dalemusser/uplinehub/internal/app/store/closures"
	userlevelstore "github.com/dalemusser/uplinehub/internal/app/store/userlevels"
	userstore "github.com/dalemusser/uplinehub/internal/app/store/users"
	walletstore "github.com/dalemusser/uplinehub/internal/app/store/wallets"
	"github.com/dalemusser/uplinehub/internal/app/system/network"
	"github.com/dalemusser/uplinehub/internal/domain/models"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemNetwork is an in-memory network.Store, network.Ledger and
// network.Notifier for engine tests. It follows the same error contract as
// the Mongo stores.
type MemNetwork struct {
	mu sync.Mutex

	users      map[primitive.ObjectID]*models.User
	closures   []models.ClosureEntry
	pairs      map[[2]primitive.ObjectID]bool
	levels     []models.Level
	userLevels []models.UserLevel
	wallets    map[primitive.ObjectID]decimal.Decimal
	company    decimal.Decimal
	txns       []models.Transaction
	botIncome  map[primitive.ObjectID]decimal.Decimal

	// Fault injection.
	AscendantsErr map[primitive.ObjectID]error
	AssignErr     map[primitive.ObjectID]error
	ClosuresErr   error
	// AssignConflicts makes the next n AssignLevel calls for a user fail
	// with ErrActiveLevelConflict, as when another writer won the race.
	AssignConflicts map[primitive.ObjectID]int
}

var (
	_ network.Store    = (*MemNetwork)(nil)
	_ network.Ledger   = (*MemNetwork)(nil)
	_ network.Notifier = (*MemNetwork)(nil)
)

// NewMemNetwork returns an empty network with a zero-balance company wallet.
func NewMemNetwork() *MemNetwork {
	return &MemNetwork{
		users:         make(map[primitive.ObjectID]*models.User),
		pairs:         make(map[[2]primitive.ObjectID]bool),
		wallets:       make(map[primitive.ObjectID]decimal.Decimal),
		botIncome:     make(map[primitive.ObjectID]decimal.Decimal),
		AscendantsErr: make(map[primitive.ObjectID]error),
		AssignErr:     make(map[primitive.ObjectID]error),

		AssignConflicts: make(map[primitive.ObjectID]int),
	}
}

/* ------------------------------ test setup ------------------------------ */

// AddUser creates a user with a wallet and closure rows under parent.
func (m *MemNetwork) AddUser(name string, parent *primitive.ObjectID) models.User {
	ctx := context.Background()
	u, err := m.CreateUser(ctx, models.User{FullName: name, ReferredByUserID: parent})
	if err != nil {
		panic(err)
	}
	if _, err := m.CreateClosures(ctx, u.ID, parent); err != nil {
		panic(err)
	}
	return u
}

// AddLevel stores a level and returns it with its id.
func (m *MemNetwork) AddLevel(l models.Level) models.Level {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.ID.IsZero() {
		l.ID = primitive.NewObjectID()
	}
	m.levels = append(m.levels, l)
	return l
}

// SetHierarchy makes the level with hierarchy h active for userID.
func (m *MemNetwork) SetHierarchy(userID primitive.ObjectID, h int) {
	m.mu.Lock()
	var level *models.Level
	for i := range m.levels {
		if m.levels[i].Hierarchy == h {
			level = &m.levels[i]
		}
	}
	m.mu.Unlock()
	if level == nil {
		panic("no level with that hierarchy")
	}
	if _, _, err := m.AssignLevel(context.Background(), userID, *level); err != nil {
		panic(err)
	}
}

// SetBusiness overwrites a user's business volume.
func (m *MemNetwork) SetBusiness(userID primitive.ObjectID, amount decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[userID].BusinessDone = amount
}

// Fund sets a user's wallet balance.
func (m *MemNetwork) Fund(userID primitive.ObjectID, amount decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wallets[userID] = amount
}

// FundCompany sets the company wallet balance.
func (m *MemNetwork) FundCompany(amount decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.company = amount
}

// DropWallet removes a user's wallet.
func (m *MemNetwork) DropWallet(userID primitive.ObjectID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.wallets, userID)
}

// Balance returns a user's wallet balance.
func (m *MemNetwork) Balance(userID primitive.ObjectID) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wallets[userID]
}

// CompanyBalance returns the company wallet balance.
func (m *MemNetwork) CompanyBalance() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.company
}

// Business returns a user's business volume.
func (m *MemNetwork) Business(userID primitive.ObjectID) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[userID].BusinessDone
}

// BotIncome returns the passive income total reported for userID.
func (m *MemNetwork) BotIncome(userID primitive.ObjectID) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.botIncome[userID]
}

// Transactions returns a copy of the ledger.
func (m *MemNetwork) Transactions() []models.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Transaction(nil), m.txns...)
}

// LevelHistory returns every UserLevel row of userID in insertion order.
func (m *MemNetwork) LevelHistory(userID primitive.ObjectID) []models.UserLevel {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.UserLevel
	for _, ul := range m.userLevels {
		if ul.UserID == userID {
			out = append(out, ul)
		}
	}
	return out
}

// Closures returns a copy of every closure row.
func (m *MemNetwork) Closures() []models.ClosureEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ClosureEntry(nil), m.closures...)
}

/* -------------------------------- Store --------------------------------- */

func (m *MemNetwork) GetUser(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, userstore.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemNetwork) CreateUser(_ context.Context, u models.User) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ReferredByUserID != nil {
		if _, ok := m.users[*u.ReferredByUserID]; !ok {
			return models.User{}, userstore.ErrNotFound
		}
	}
	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	u.Status = userstore.StatusActive
	u.CreatedAt, u.UpdatedAt = now, now
	m.users[u.ID] = &u
	m.wallets[u.ID] = decimal.Zero
	return u, nil
}

func (m *MemNetwork) CreateClosures(_ context.Context, userID primitive.ObjectID, parentID *primitive.ObjectID) (closurestore.CreateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ClosuresErr != nil {
		return closurestore.CreateResult{}, m.ClosuresErr
	}

	var chain []models.ClosureEntry
	if parentID != nil {
		for _, c := range m.closures {
			if c.DescendantID == *parentID {
				chain = append(chain, c)
			}
		}
	}
	rows, fellBack := closurestore.DeriveClosures(chain, userID, parentID, time.Now().UTC())
	for _, r := range rows {
		if m.pairs[[2]primitive.ObjectID{r.AncestorID, r.DescendantID}] {
			return closurestore.CreateResult{}, closurestore.ErrDuplicateClosure
		}
	}
	for _, r := range rows {
		m.pairs[[2]primitive.ObjectID{r.AncestorID, r.DescendantID}] = true
		m.closures = append(m.closures, r)
	}
	return closurestore.CreateResult{Rows: rows, FallbackEdge: fellBack}, nil
}

func (m *MemNetwork) selectClosures(keep func(models.ClosureEntry) bool) []models.ClosureEntry {
	var out []models.ClosureEntry
	for _, c := range m.closures {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Depth < out[j].Depth })
	return out
}

func (m *MemNetwork) Ascendants(_ context.Context, userID primitive.ObjectID) ([]models.ClosureEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.AscendantsErr[userID]; err != nil {
		return nil, err
	}
	return m.selectClosures(func(c models.ClosureEntry) bool {
		return c.DescendantID == userID && c.Depth > 0
	}), nil
}

func (m *MemNetwork) Descendants(_ context.Context, userID primitive.ObjectID) ([]models.ClosureEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selectClosures(func(c models.ClosureEntry) bool {
		return c.AncestorID == userID && c.Depth > 0
	}), nil
}

func (m *MemNetwork) DirectDescendants(_ context.Context, userID primitive.ObjectID) ([]models.ClosureEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selectClosures(func(c models.ClosureEntry) bool {
		return c.AncestorID == userID && c.Depth == 1
	}), nil
}

func (m *MemNetwork) SumBusiness(_ context.Context, ids []primitive.ObjectID) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum := decimal.Zero
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			sum = sum.Add(u.BusinessDone)
		}
	}
	return sum, nil
}

func (m *MemNetwork) ActiveLevels(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.UserLevel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make(map[primitive.ObjectID]models.UserLevel)
	for _, ul := range m.userLevels {
		if ul.Active && want[ul.UserID] {
			out[ul.UserID] = ul
		}
	}
	return out, nil
}

func (m *MemNetwork) Levels(_ context.Context) ([]models.Level, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]models.Level(nil), m.levels...)
	sort.Slice(out, func(i, j int) bool { return out[i].Hierarchy < out[j].Hierarchy })
	return out, nil
}

func (m *MemNetwork) ActiveLevel(_ context.Context, userID primitive.ObjectID) (*models.UserLevel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ul := range m.userLevels {
		if ul.Active && ul.UserID == userID {
			cp := ul
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemNetwork) AssignLevel(_ context.Context, userID primitive.ObjectID, level models.Level) (models.UserLevel, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.AssignErr[userID]; err != nil {
		return models.UserLevel{}, false, err
	}
	if m.AssignConflicts[userID] > 0 {
		m.AssignConflicts[userID]--
		return models.UserLevel{}, false, userlevelstore.ErrActiveLevelConflict
	}
	now := time.Now().UTC()
	for i := range m.userLevels {
		ul := &m.userLevels[i]
		if !ul.Active || ul.UserID != userID {
			continue
		}
		if ul.LevelID == level.ID {
			return *ul, false, nil
		}
		ul.Active = false
		end := now
		ul.EndDate = &end
	}
	row := models.UserLevel{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		LevelID:   level.ID,
		Hierarchy: level.Hierarchy,
		Active:    true,
		StartDate: now,
	}
	m.userLevels = append(m.userLevels, row)
	return row, true, nil
}

/* -------------------------------- Ledger -------------------------------- */

func (m *MemNetwork) record(ref, kind string, from, to *primitive.ObjectID, amount decimal.Decimal, desc string, at time.Time) {
	if !amount.IsPositive() {
		return
	}
	m.txns = append(m.txns, models.Transaction{
		ID:          primitive.NewObjectID(),
		Reference:   ref,
		Kind:        kind,
		FromUserID:  from,
		ToUserID:    to,
		Amount:      amount,
		Description: desc,
		CreatedAt:   at,
	})
}

func (m *MemNetwork) Settle(_ context.Context, s network.Settlement) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	bal, ok := m.wallets[s.PurchaserID]
	if !ok {
		return walletstore.ErrWalletNotFound
	}
	if bal.LessThan(s.Debit()) {
		return walletstore.ErrInsufficientFunds
	}
	for _, sh := range s.Shares {
		if _, ok := m.wallets[sh.AncestorID]; !ok {
			return walletstore.ErrWalletNotFound
		}
	}
	u, ok := m.users[s.PurchaserID]
	if !ok {
		return userstore.ErrNotFound
	}

	purchaser := s.PurchaserID
	m.wallets[purchaser] = bal.Sub(s.Debit())
	for _, sh := range s.Shares {
		to := sh.AncestorID
		m.wallets[to] = m.wallets[to].Add(sh.Amount)
		m.record(s.Reference, models.TxnPassiveIncome, &purchaser, &to, sh.Amount, "passive income", s.At)
	}
	m.company = m.company.Add(s.CompanyBase).Add(s.Remainder)
	m.record(s.Reference, models.TxnCompanyShare, &purchaser, nil, s.CompanyBase, "company share", s.At)
	m.record(s.Reference, models.TxnUndistributedPassive, &purchaser, nil, s.Remainder, "undistributed passive share", s.At)
	u.BusinessDone = u.BusinessDone.Add(s.Business)
	return nil
}

func (m *MemNetwork) CreditBonus(_ context.Context, userID primitive.ObjectID, amount decimal.Decimal, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.wallets[userID]; !ok {
		return walletstore.ErrWalletNotFound
	}
	if m.company.LessThan(amount) {
		return walletstore.ErrInsufficientFunds
	}
	m.company = m.company.Sub(amount)
	m.wallets[userID] = m.wallets[userID].Add(amount)
	m.record(ref, models.TxnAppraisalBonus, nil, &userID, amount, "appraisal bonus", time.Now().UTC())
	return nil
}

func (m *MemNetwork) Deposit(_ context.Context, userID primitive.ObjectID, amount decimal.Decimal, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.wallets[userID]; !ok {
		return walletstore.ErrWalletNotFound
	}
	m.wallets[userID] = m.wallets[userID].Add(amount)
	m.record(ref, models.TxnDeposit, nil, &userID, amount, "deposit", time.Now().UTC())
	return nil
}

/* ------------------------------- Notifier ------------------------------- */

func (m *MemNetwork) BotIncomeReceived(_ context.Context, userID primitive.ObjectID, amount decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.botIncome[userID] = m.botIncome[userID].Add(amount)
	return nil
}
