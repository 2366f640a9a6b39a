package engine

import (
	"fmt"
	"time"

	"github.com/MHC32/Rise/internal/models"
)

// ValidateTransaction checks a journal entry's shape before any balance is
// touched. It covers everything that does not require a storage read:
// positive amount, legal type, fee only on transfers, category required
// unless transfer, destination only on transfers and distinct from source.
func ValidateTransaction(t *models.Transaction) error {
	if !models.ValidTransactionType(t.Type) {
		return fmt.Errorf("%w: unknown transaction type %q", ErrValidation, t.Type)
	}
	if t.Amount <= 0 {
		return fmt.Errorf("%w: amount must be greater than zero", ErrValidation)
	}
	if t.Fee < 0 {
		return fmt.Errorf("%w: fee cannot be negative", ErrValidation)
	}
	if t.Fee > 0 && t.Type != models.Transfer {
		return fmt.Errorf("%w: fees only apply to transfers", ErrValidation)
	}
	if t.Type != models.Transfer && t.Category == "" {
		return fmt.Errorf("%w: category is required for %s transactions", ErrValidation, t.Type)
	}
	if t.Type != models.Transfer && t.ToAccountID != "" {
		return fmt.Errorf("%w: destination account only applies to transfers", ErrValidation)
	}
	if t.Type == models.Transfer && t.ToAccountID != "" && t.ToAccountID == t.AccountID {
		return fmt.Errorf("%w: source and destination accounts cannot be the same", ErrValidation)
	}
	return nil
}

// ValidateDateWindow checks that start is strictly before end.
func ValidateDateWindow(start, end time.Time) error {
	if !start.Before(end) {
		return fmt.Errorf("%w: start date must be before end date", ErrValidation)
	}
	return nil
}

// ValidateAlertThreshold checks a budget warning threshold is a percentage.
func ValidateAlertThreshold(threshold int) error {
	if threshold < 0 || threshold > 100 {
		return fmt.Errorf("%w: alert threshold must be between 0 and 100", ErrValidation)
	}
	return nil
}
