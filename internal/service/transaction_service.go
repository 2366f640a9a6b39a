// Package service implements the engine-exposed operations. Every mutating
// operation that touches more than one entity runs inside one atomic storage
// operation (storage.Store.Transact): all affected balances and statuses
// change together or not at all.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MHC32/Rise/internal/engine"
	"github.com/MHC32/Rise/internal/metrics"
	"github.com/MHC32/Rise/internal/models"
	"github.com/MHC32/Rise/internal/storage"
)

// TransactionService owns the transaction journal: it is the only component
// that records balance-affecting events and the only one that reverses them.
type TransactionService struct {
	store storage.Store
}

// NewTransactionService creates a new TransactionService with the given
// storage backend.
func NewTransactionService(store storage.Store) *TransactionService {
	return &TransactionService{store: store}
}

// CreateTransactionInput is the caller-supplied shape of a new journal
// entry.
type CreateTransactionInput struct {
	Type models.TransactionType

	Amount float64

	// Currency defaults to the source account's currency when empty, and
	// must match it when set.
	Currency models.Currency

	AccountID   string
	ToAccountID string

	Fee float64

	Category    string
	Description string

	// Date defaults to now when zero.
	Date time.Time

	LinkedModule models.LinkedModule
	LinkedID     string
}

// Create validates the input, checks the source balance covers the debit,
// and applies the forward ledger effect atomically with the journal append.
func (s *TransactionService) Create(ctx context.Context, userID string, in CreateTransactionInput) (t *models.Transaction, err error) {
	defer func() { metrics.Observe("create_transaction", err) }()

	if in.AccountID == "" {
		return nil, fmt.Errorf("%w: source account is required", engine.ErrValidation)
	}

	t = &models.Transaction{
		UserID:       userID,
		Type:         in.Type,
		Amount:       engine.Round2(in.Amount),
		Currency:     in.Currency,
		AccountID:    in.AccountID,
		ToAccountID:  in.ToAccountID,
		Fee:          engine.Round2(in.Fee),
		Category:     in.Category,
		Description:  in.Description,
		Date:         in.Date,
		LinkedModule: in.LinkedModule,
		LinkedID:     in.LinkedID,
	}
	if t.Date.IsZero() {
		t.Date = time.Now()
	}
	if err = engine.ValidateTransaction(t); err != nil {
		return nil, err
	}

	err = s.store.Transact(ctx, func(tx storage.Store) error {
		source, err := tx.GetAccount(ctx, userID, t.AccountID)
		if err != nil {
			return err
		}

		if t.Currency == "" {
			t.Currency = source.Currency
		} else if t.Currency != source.Currency {
			return fmt.Errorf("%w: transaction is %s but account %s is %s",
				engine.ErrCurrencyMismatch, t.Currency, source.ID, source.Currency)
		}

		if t.Type == models.Transfer && t.ToAccountID != "" {
			dest, err := tx.GetAccount(ctx, userID, t.ToAccountID)
			if err != nil {
				return err
			}
			if dest.Currency != source.Currency {
				return fmt.Errorf("%w: cannot transfer %s into a %s account",
					engine.ErrCurrencyMismatch, source.Currency, dest.Currency)
			}
		}

		if required := engine.RequiredSourceFunds(t); required > 0 && source.Balance < required {
			metrics.InsufficientFundsTotal.Inc()
			return fmt.Errorf("%w: available %.2f %s, required %.2f %s",
				engine.ErrInsufficientFunds, source.Balance, source.Currency, required, t.Currency)
		}

		if err := tx.CreateTransaction(ctx, t); err != nil {
			return err
		}
		for _, d := range engine.ForwardDeltas(t) {
			if err := tx.AddToBalance(ctx, userID, d.AccountID, d.Amount); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		slog.Error("CreateTransaction failed", "user_id", userID, "type", in.Type, "error", err)
		return nil, err
	}

	slog.Info("Transaction created",
		"transaction_id", t.ID,
		"user_id", userID,
		"type", t.Type,
		"amount", t.Amount,
		"currency", t.Currency,
	)
	return t, nil
}

// Delete removes a journal entry and reverses its ledger effect. For a
// transfer whose destination account no longer exists, the destination leg
// is skipped and the source leg still reverses.
func (s *TransactionService) Delete(ctx context.Context, userID, id string) (err error) {
	defer func() { metrics.Observe("delete_transaction", err) }()

	err = s.store.Transact(ctx, func(tx storage.Store) error {
		t, err := tx.GetTransaction(ctx, userID, id)
		if err != nil {
			return err
		}

		destinationExists := true
		if t.Type == models.Transfer && t.ToAccountID != "" {
			if _, err := tx.GetAccount(ctx, userID, t.ToAccountID); err != nil {
				if !errors.Is(err, engine.ErrNotFound) {
					return err
				}
				destinationExists = false
				slog.Warn("Reversing transfer without destination leg: account is gone",
					"transaction_id", t.ID, "to_account_id", t.ToAccountID)
			}
		}

		for _, d := range engine.ReverseDeltas(t, destinationExists) {
			if err := tx.AddToBalance(ctx, userID, d.AccountID, d.Amount); err != nil {
				return err
			}
		}
		return tx.DeleteTransaction(ctx, userID, id)
	})
	if err != nil {
		slog.Error("DeleteTransaction failed", "transaction_id", id, "user_id", userID, "error", err)
		return err
	}

	slog.Info("Transaction deleted and reversed", "transaction_id", id, "user_id", userID)
	return nil
}

// UpdateTransactionInput carries the editable (non-financial) fields. Nil
// means "leave unchanged".
type UpdateTransactionInput struct {
	Description *string
	Category    *string
	Date        *time.Time
}

// Update edits a transaction's non-financial fields. Amount and account
// references are immutable; a transfer's category is never changed.
func (s *TransactionService) Update(ctx context.Context, userID, id string, in UpdateTransactionInput) (t *models.Transaction, err error) {
	defer func() { metrics.Observe("update_transaction", err) }()

	err = s.store.Transact(ctx, func(tx storage.Store) error {
		t, err = tx.GetTransaction(ctx, userID, id)
		if err != nil {
			return err
		}

		if in.Description != nil {
			t.Description = *in.Description
		}
		if in.Category != nil && t.Type != models.Transfer {
			if *in.Category == "" {
				return fmt.Errorf("%w: category is required for %s transactions", engine.ErrValidation, t.Type)
			}
			t.Category = *in.Category
		}
		if in.Date != nil {
			t.Date = *in.Date
		}
		return tx.UpdateTransactionDetails(ctx, t)
	})
	if err != nil {
		slog.Error("UpdateTransaction failed", "transaction_id", id, "user_id", userID, "error", err)
		return nil, err
	}
	return t, nil
}

// Get retrieves one journal entry.
func (s *TransactionService) Get(ctx context.Context, userID, id string) (*models.Transaction, error) {
	return s.store.GetTransaction(ctx, userID, id)
}

// List returns journal entries matching the filter, newest first, along
// with the unpaged match count.
func (s *TransactionService) List(ctx context.Context, userID string, f storage.TransactionFilter) ([]*models.Transaction, int, error) {
	transactions, err := s.store.ListTransactions(ctx, userID, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.store.CountTransactions(ctx, userID, f)
	if err != nil {
		return nil, 0, err
	}
	return transactions, total, nil
}

// MonthlyStats summarizes the current month's money flow.
type MonthlyStats struct {
	TotalIncome  float64
	TotalExpense float64
	Balance      float64
}

// StatsForMonth totals income and expenses for the month containing now.
func (s *TransactionService) StatsForMonth(ctx context.Context, userID string, now time.Time) (MonthlyStats, error) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, 0).Add(-time.Second)

	totals, err := s.store.SumByType(ctx, userID, start, end)
	if err != nil {
		return MonthlyStats{}, err
	}
	return MonthlyStats{
		TotalIncome:  totals.Income,
		TotalExpense: totals.Expense,
		Balance:      engine.Round2(totals.Income - totals.Expense),
	}, nil
}

// CategoryStats breaks a period's flow down by category.
type CategoryStats struct {
	TotalIncome  float64
	TotalExpense float64
	Balance      float64
	ByCategory   map[models.TransactionType]map[string]float64
}

// StatsByCategory aggregates per-category totals from `from` onward.
func (s *TransactionService) StatsByCategory(ctx context.Context, userID string, from time.Time) (CategoryStats, error) {
	stats := CategoryStats{
		ByCategory: make(map[models.TransactionType]map[string]float64),
	}

	for _, typ := range []models.TransactionType{models.Income, models.Expense} {
		byCategory, err := s.store.SumByCategory(ctx, userID, typ, from)
		if err != nil {
			return CategoryStats{}, err
		}
		stats.ByCategory[typ] = byCategory
		for _, total := range byCategory {
			if typ == models.Income {
				stats.TotalIncome += total
			} else {
				stats.TotalExpense += total
			}
		}
	}
	stats.Balance = engine.Round2(stats.TotalIncome - stats.TotalExpense)
	return stats, nil
}
