// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"time"

	"github.com/MHC32/Rise/internal/models"
)

// TransactionFilter narrows a journal listing. Zero values mean "no
// constraint" for every field.
type TransactionFilter struct {
	Type      models.TransactionType
	Category  string
	AccountID string

	// From and To bound the effective date, inclusive on both ends.
	From time.Time
	To   time.Time

	LinkedModule models.LinkedModule
	LinkedID     string

	// Limit and Offset page the result, newest first. Limit zero means
	// no paging.
	Limit  int
	Offset int
}

// BudgetFilter narrows a budget listing.
type BudgetFilter struct {
	Status models.BudgetStatus
	Period models.BudgetPeriod
}

// TypeTotals sums journal amounts per transaction type over a window.
type TypeTotals struct {
	Income  float64
	Expense float64
}

// Store defines the persistence contract for the engine.
//
// Entity lookups that take a userID are ownership-scoped: an entity that
// exists but belongs to another user is reported as not found.
//
// Transact is the begin/commit/abort primitive every multi-entity mutation
// runs inside: fn receives a Store view bound to one transaction; returning
// nil commits every step, returning an error aborts them all. A Transact
// call made from within fn joins the enclosing transaction.
type Store interface {
	// --- users ---

	CreateUser(ctx context.Context, user *models.User) error
	// GetUserByEmail returns (nil, nil) when no user has the email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// --- accounts ---

	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, userID, accountID string) (*models.Account, error)
	// GetAccountByID is unscoped; callers must check ownership. Used only
	// where a cross-user reference must surface as a distinct error.
	GetAccountByID(ctx context.Context, accountID string) (*models.Account, error)
	ListAccounts(ctx context.Context, userID string, activeOnly bool) ([]*models.Account, error)
	UpdateAccount(ctx context.Context, account *models.Account) error
	// AddToBalance applies one signed delta to an account balance. A
	// negative delta that would drive the balance below zero fails with
	// ErrInsufficientFunds and leaves the balance unchanged.
	AddToBalance(ctx context.Context, userID, accountID string, delta float64) error

	// --- transactions ---

	CreateTransaction(ctx context.Context, t *models.Transaction) error
	GetTransaction(ctx context.Context, userID, id string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, userID string, f TransactionFilter) ([]*models.Transaction, error)
	CountTransactions(ctx context.Context, userID string, f TransactionFilter) (int, error)
	// UpdateTransactionDetails touches only the non-financial fields.
	UpdateTransactionDetails(ctx context.Context, t *models.Transaction) error
	DeleteTransaction(ctx context.Context, userID, id string) error
	// SumExpenses totals expense amounts for one category and currency
	// inside [from, to].
	SumExpenses(ctx context.Context, userID, category string, currency models.Currency, from, to time.Time) (float64, error)
	// SumByType totals income and expense amounts from `from` onward.
	SumByType(ctx context.Context, userID string, from, to time.Time) (TypeTotals, error)
	// SumByCategory totals amounts per category for one transaction type
	// from `from` onward.
	SumByCategory(ctx context.Context, userID string, typ models.TransactionType, from time.Time) (map[string]float64, error)

	// --- budgets ---

	CreateBudget(ctx context.Context, b *models.Budget) error
	GetBudget(ctx context.Context, userID, id string) (*models.Budget, error)
	ListBudgets(ctx context.Context, userID string, f BudgetFilter) ([]*models.Budget, error)
	UpdateBudget(ctx context.Context, b *models.Budget) error
	// FindOverlappingBudget returns a non-completed, non-archived budget
	// of the same user and category whose window overlaps [start, end),
	// excluding excludeID, or (nil, nil).
	FindOverlappingBudget(ctx context.Context, userID, category string, start, end time.Time, excludeID string) (*models.Budget, error)
	// ListExpiredAllocatedBudgets returns, across all users, budgets in
	// allocated or active status whose end date has passed and whose
	// funds have not been returned.
	ListExpiredAllocatedBudgets(ctx context.Context, now time.Time) ([]*models.Budget, error)

	// --- sols ---

	CreateSol(ctx context.Context, s *models.Sol) error
	GetSol(ctx context.Context, userID, id string) (*models.Sol, error)
	ListSols(ctx context.Context, userID string, activeOnly bool) ([]*models.Sol, error)
	UpdateSol(ctx context.Context, s *models.Sol) error
	DeleteSol(ctx context.Context, userID, id string) error

	// --- atomic operations ---

	Transact(ctx context.Context, fn func(tx Store) error) error

	// Close releases any resources held by the store.
	Close() error
}
