package models

import "time"

// TransactionType distinguishes the three balance-affecting events.
type TransactionType string

const (
	Expense  TransactionType = "expense"
	Income   TransactionType = "income"
	Transfer TransactionType = "transfer"
)

// ValidTransactionType reports whether t is a supported transaction type.
func ValidTransactionType(t TransactionType) bool {
	switch t {
	case Expense, Income, Transfer:
		return true
	}
	return false
}

// LinkedModule tags a transaction with the module that originated it.
type LinkedModule string

const (
	LinkedSol        LinkedModule = "sol"
	LinkedBudget     LinkedModule = "budget"
	LinkedDebt       LinkedModule = "debt"
	LinkedInvestment LinkedModule = "investment"
	LinkedSavings    LinkedModule = "savings"
)

// Transaction is one append-only journal entry. It is immutable once created
// except for the non-financial fields (description, category, date);
// correcting an amount or account means deleting the entry, which reverses
// its balance effect, and recreating it.
//
// A transfer normally carries both account legs. Virtual allocations carry
// only one: a budget allocation debits AccountID with no ToAccountID, and a
// budget return credits ToAccountID with no AccountID.
type Transaction struct {
	// ID is the unique identifier for the transaction (UUID format).
	ID string

	// UserID is the owning user.
	UserID string

	Type TransactionType

	// Amount is always positive; the sign of the balance effect comes
	// from Type.
	Amount float64

	Currency Currency

	// AccountID is the source account. Empty only for a budget-return
	// entry, where funds re-enter from the virtual envelope.
	AccountID string

	// ToAccountID is the destination account, set only for transfers and
	// required to differ from AccountID. Empty for a virtual allocation.
	ToAccountID string

	// Fee is an optional transfer fee, charged to the source on top of
	// Amount. Zero for expense and income.
	Fee float64

	// Category is required unless Type is Transfer. Free-form strings are
	// accepted and stored, but only known expense categories participate
	// in budget matching.
	Category string

	Description string

	// Date is the effective date of the event, which may differ from
	// CreatedAt.
	Date time.Time

	// LinkedModule and LinkedID point back at the originating module
	// entity (a sol or a budget), when there is one.
	LinkedModule LinkedModule
	LinkedID     string

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}
