package engine

import (
	"math"

	"github.com/MHC32/Rise/internal/models"
)

// BalanceDelta is one account-balance mutation produced by applying or
// reversing a journal entry. Deltas are only ever applied inside an atomic
// storage operation.
type BalanceDelta struct {
	AccountID string
	Amount    float64
}

// Round2 rounds an amount to 2 decimal places. Applied at every mutation
// boundary so balances stay representable to the cent.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ForwardDeltas returns the balance mutations that commit a transaction:
//
//	expense:  -amount on source
//	income:   +amount on source
//	transfer: -(amount+fee) on source, +amount on destination
//
// One-legged entries (virtual allocations and returns) produce only the leg
// whose account is set.
func ForwardDeltas(t *models.Transaction) []BalanceDelta {
	var deltas []BalanceDelta

	switch t.Type {
	case models.Expense:
		deltas = append(deltas, BalanceDelta{t.AccountID, Round2(-t.Amount)})
	case models.Income:
		deltas = append(deltas, BalanceDelta{t.AccountID, Round2(t.Amount)})
	case models.Transfer:
		if t.AccountID != "" {
			deltas = append(deltas, BalanceDelta{t.AccountID, Round2(-(t.Amount + t.Fee))})
		}
		if t.ToAccountID != "" {
			deltas = append(deltas, BalanceDelta{t.ToAccountID, Round2(t.Amount)})
		}
	}

	return deltas
}

// ReverseDeltas returns the balance mutations that undo a committed
// transaction:
//
//	expense:  +amount on source
//	income:   -amount on source
//	transfer: +(amount+fee) on source, -amount on destination
//
// destinationExists gates the destination leg of a transfer: when the
// destination account has since been deleted, that leg is skipped and the
// source leg still reverses, rather than re-locking a detached account.
func ReverseDeltas(t *models.Transaction, destinationExists bool) []BalanceDelta {
	var deltas []BalanceDelta

	switch t.Type {
	case models.Expense:
		deltas = append(deltas, BalanceDelta{t.AccountID, Round2(t.Amount)})
	case models.Income:
		deltas = append(deltas, BalanceDelta{t.AccountID, Round2(-t.Amount)})
	case models.Transfer:
		if t.AccountID != "" {
			deltas = append(deltas, BalanceDelta{t.AccountID, Round2(t.Amount + t.Fee)})
		}
		if t.ToAccountID != "" && destinationExists {
			deltas = append(deltas, BalanceDelta{t.ToAccountID, Round2(-t.Amount)})
		}
	}

	return deltas
}

// RequiredSourceFunds returns how much the source account must hold before
// the transaction may commit. Zero means no pre-check applies (income and
// sourceless entries).
func RequiredSourceFunds(t *models.Transaction) float64 {
	switch t.Type {
	case models.Expense:
		return t.Amount
	case models.Transfer:
		if t.AccountID == "" {
			return 0
		}
		return t.Amount + t.Fee
	default:
		return 0
	}
}
