// Package ledger implements the portfolio and limit-order ledger engine:
// holdings with average-cost accounting, and a book of resting limit orders
// evaluated against quote snapshots.
//
// All quantities use float64 with explicit tolerance thresholds. The
// thresholds are policy, not language artifacts, and live in Config so they
// can be tuned and tested directly.
package ledger

import "errors"

// Config holds the engine's policy constants.
type Config struct {
	// DustThreshold is the quantity at or below which a holding is
	// considered effectively zero and removed from the collection.
	DustThreshold float64

	// DebitEpsilon is the tolerance applied when checking a debit against
	// the held quantity, absorbing floating-point accumulation error.
	DebitEpsilon float64

	// MinNotional and MaxNotional bound the amount of a single trade
	// intent, in units of account.
	MinNotional float64
	MaxNotional float64
}

// DefaultConfig returns the standard policy constants.
func DefaultConfig() Config {
	return Config{
		DustThreshold: 1e-6,
		DebitEpsilon:  1e-8,
		MinNotional:   100,
		MaxNotional:   10_000_000,
	}
}

// ErrInsufficientHoldings is returned when a debit (or a SELL order
// placement, which debits up front) asks for more than is held. The ledger
// is left unchanged.
var ErrInsufficientHoldings = errors.New("ledger: insufficient holdings")
