package network

import "errors"

// ErrInvalidAmount is returned for a non-positive purchase or deposit amount,
// or a negative distribution pool.
var ErrInvalidAmount = errors.New("amount must be positive")
