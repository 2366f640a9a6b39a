// Package engine holds the pure parts of the ledger and allocation engine:
// the typed error kinds every operation reports, the forward and reverse
// balance effects of a journal entry, and input validation.
//
// Nothing in this package performs I/O; the service layer composes these
// pieces inside one atomic storage operation.
package engine

import "errors"

// Error kinds. Every engine operation fails with exactly one of these,
// usually wrapped with context; callers classify with errors.Is.
var (
	// ErrNotFound covers both a missing entity and an entity owned by a
	// different user, so existence never leaks across users.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState means the operation is illegal for the entity's
	// current lifecycle state.
	ErrInvalidState = errors.New("invalid state")

	// ErrCurrencyMismatch means two entities in one operation carry
	// different currencies. The engine never converts.
	ErrCurrencyMismatch = errors.New("currency mismatch")

	// ErrAccountMismatch means a referenced account belongs to a
	// different user than the entity being operated on.
	ErrAccountMismatch = errors.New("account belongs to a different user")

	// ErrInsufficientFunds means a debit would drive a real account
	// below zero.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrValidation means the input itself is malformed: non-positive
	// amount, start date not before end date, and so on.
	ErrValidation = errors.New("validation failed")
)
