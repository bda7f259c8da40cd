package network

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Deposit credits amount (truncated to the currency unit) to userID's wallet
// and returns the ledger reference.
func (s *Service) Deposit(ctx context.Context, userID primitive.ObjectID, amount decimal.Decimal) (string, error) {
	amount = amount.Truncate(s.cfg.AmountScale)
	if !amount.IsPositive() {
		return "", ErrInvalidAmount
	}
	ref := newReference()
	if err := s.ledger.Deposit(ctx, userID, amount, ref); err != nil {
		return "", fmt.Errorf("deposit to %s: %w", userID.Hex(), err)
	}
	s.audit.WalletFunded(ctx, userID, amount)
	return ref, nil
}
