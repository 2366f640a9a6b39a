package models

import (
	"math"
	"time"
)

// BudgetStatus is the lifecycle state of a budget envelope.
//
// The state machine is draft -> allocated -> active -> completed, with
// archived reachable from any non-completed state as a soft-disable.
// Completed is terminal and only reachable by returning unused funds.
type BudgetStatus string

const (
	BudgetDraft     BudgetStatus = "draft"
	BudgetAllocated BudgetStatus = "allocated"
	BudgetActive    BudgetStatus = "active"
	BudgetCompleted BudgetStatus = "completed"
	BudgetArchived  BudgetStatus = "archived"
)

// BudgetPeriod is the nominal cadence a budget is planned on.
type BudgetPeriod string

const (
	PeriodMonthly BudgetPeriod = "monthly"
	PeriodYearly  BudgetPeriod = "yearly"
)

// AlertState is the derived health of a budget given its current spend.
type AlertState string

const (
	AlertOK       AlertState = "ok"
	AlertWarning  AlertState = "warning"
	AlertExceeded AlertState = "exceeded"
)

// DefaultAlertThreshold is the warning threshold applied when none is given.
const DefaultAlertThreshold = 80

// Budget is a category envelope funded from a source account.
//
// Spent, percentage, remaining and the alert state are derived from the
// journal on read and never persisted, so they cannot go stale.
type Budget struct {
	// ID is the unique identifier for the budget (UUID format).
	ID string

	// UserID is the owning user.
	UserID string

	// Name is the display name (e.g. "Nourriture septembre").
	Name string

	// Category is the expense category the envelope covers. Must be a
	// known expense category.
	Category string

	// Amount is the envelope size, > 0.
	Amount float64

	Currency Currency

	Period BudgetPeriod

	// StartDate and EndDate bound the window [StartDate, EndDate) the
	// envelope covers; StartDate < EndDate.
	StartDate time.Time
	EndDate   time.Time

	// Icon and Color are display hints.
	Icon  string
	Color string

	// AlertThreshold is a percentage (0-100); at or above it the budget
	// is in warning.
	AlertThreshold int

	Status BudgetStatus

	// SourceAccountID is set when the budget is allocated; the debited
	// account that unused funds return to.
	SourceAccountID string

	// AllocatedAt and ReturnedAt are stamped by the allocate and
	// return-funds transitions.
	AllocatedAt *time.Time
	ReturnedAt  *time.Time

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}

// Percentage returns the spent share of the envelope, rounded to the nearest
// whole percent.
func (b *Budget) Percentage(spent float64) int {
	if b.Amount <= 0 {
		return 0
	}
	return int(math.Round(spent / b.Amount * 100))
}

// Remaining returns the unspent part of the envelope, floored at zero.
func (b *Budget) Remaining(spent float64) float64 {
	return math.Max(0, b.Amount-spent)
}

// Alert returns the alert state for the given spend.
func (b *Budget) Alert(spent float64) AlertState {
	pct := b.Percentage(spent)
	switch {
	case pct >= 100:
		return AlertExceeded
	case pct >= b.AlertThreshold:
		return AlertWarning
	default:
		return AlertOK
	}
}

// Completed reports whether the budget has reached its terminal state.
func (b *Budget) Completed() bool {
	return b.Status == BudgetCompleted
}

// Returnable reports whether the budget may return unused funds, which is
// legal only while allocated or active.
func (b *Budget) Returnable() bool {
	return b.Status == BudgetAllocated || b.Status == BudgetActive
}

// BudgetWithSpend pairs a budget with its freshly computed journal spend.
type BudgetWithSpend struct {
	*Budget

	// Spent is the sum of expense transactions matching the budget's
	// category, currency and date window at the time of the read.
	Spent float64
}
