package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MHC32/Rise/internal/engine"
	"github.com/MHC32/Rise/internal/metrics"
	"github.com/MHC32/Rise/internal/models"
	"github.com/MHC32/Rise/internal/storage"
)

// BudgetService drives the budget envelope lifecycle: draft -> allocated ->
// active -> completed, with archived as a soft-disable. Allocation moves
// real money out of an account into the virtual envelope; returning unused
// funds moves it back and completes the budget.
type BudgetService struct {
	store storage.Store
}

// NewBudgetService creates a new BudgetService with the given storage
// backend.
func NewBudgetService(store storage.Store) *BudgetService {
	return &BudgetService{store: store}
}

// CreateBudgetInput is the caller-supplied shape of a new budget.
type CreateBudgetInput struct {
	Name     string
	Category string
	Amount   float64
	Currency models.Currency
	Period   models.BudgetPeriod

	StartDate time.Time
	EndDate   time.Time

	Icon  string
	Color string

	// AlertThreshold defaults to models.DefaultAlertThreshold when nil.
	AlertThreshold *int
}

// Create validates and persists a budget in draft status. At most one live
// budget may exist per (user, category) with overlapping date windows.
func (s *BudgetService) Create(ctx context.Context, userID string, in CreateBudgetInput) (b *models.Budget, err error) {
	defer func() { metrics.Observe("create_budget", err) }()

	if in.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be greater than zero", engine.ErrValidation)
	}
	if !models.ValidCurrency(in.Currency) {
		return nil, fmt.Errorf("%w: unknown currency %q", engine.ErrValidation, in.Currency)
	}
	if !models.IsKnownExpenseCategory(in.Category) {
		return nil, fmt.Errorf("%w: %q is not a known expense category", engine.ErrValidation, in.Category)
	}
	if err = engine.ValidateDateWindow(in.StartDate, in.EndDate); err != nil {
		return nil, err
	}

	threshold := models.DefaultAlertThreshold
	if in.AlertThreshold != nil {
		threshold = *in.AlertThreshold
	}
	if err = engine.ValidateAlertThreshold(threshold); err != nil {
		return nil, err
	}

	period := in.Period
	if period == "" {
		period = models.PeriodMonthly
	}

	b = &models.Budget{
		UserID:         userID,
		Name:           in.Name,
		Category:       in.Category,
		Amount:         engine.Round2(in.Amount),
		Currency:       in.Currency,
		Period:         period,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		Icon:           in.Icon,
		Color:          in.Color,
		AlertThreshold: threshold,
		Status:         models.BudgetDraft,
	}

	err = s.store.Transact(ctx, func(tx storage.Store) error {
		existing, err := tx.FindOverlappingBudget(ctx, userID, b.Category, b.StartDate, b.EndDate, "")
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: a budget for category %q already covers this period",
				engine.ErrValidation, b.Category)
		}
		return tx.CreateBudget(ctx, b)
	})
	if err != nil {
		slog.Error("CreateBudget failed", "user_id", userID, "category", in.Category, "error", err)
		return nil, err
	}

	slog.Info("Budget created", "budget_id", b.ID, "user_id", userID, "category", b.Category, "amount", b.Amount)
	return b, nil
}

// Allocate funds a draft budget from a source account: the account is
// debited by the budget amount and a one-legged transfer entry tagged
// budget_allocation is journaled; the money becomes virtual, held by the
// envelope rather than by any account.
func (s *BudgetService) Allocate(ctx context.Context, userID, budgetID, accountID string) (b *models.Budget, err error) {
	defer func() { metrics.Observe("allocate_budget", err) }()

	err = s.store.Transact(ctx, func(tx storage.Store) error {
		b, err = tx.GetBudget(ctx, userID, budgetID)
		if err != nil {
			return err
		}
		if b.Status != models.BudgetDraft {
			return fmt.Errorf("%w: only draft budgets can be allocated, budget is %s",
				engine.ErrInvalidState, b.Status)
		}

		// Unscoped fetch: a cross-user account must surface as a
		// mismatch here, not as not-found.
		account, err := tx.GetAccountByID(ctx, accountID)
		if err != nil {
			return err
		}
		if account.UserID != userID {
			return fmt.Errorf("%w: source account is not owned by the budget's user",
				engine.ErrAccountMismatch)
		}
		if account.Currency != b.Currency {
			return fmt.Errorf("%w: budget is %s but account %s is %s",
				engine.ErrCurrencyMismatch, b.Currency, account.ID, account.Currency)
		}
		if account.Balance < b.Amount {
			metrics.InsufficientFundsTotal.Inc()
			return fmt.Errorf("%w: available %.2f %s, required %.2f %s",
				engine.ErrInsufficientFunds, account.Balance, account.Currency, b.Amount, b.Currency)
		}

		entry := &models.Transaction{
			UserID:       userID,
			Type:         models.Transfer,
			Amount:       b.Amount,
			Currency:     b.Currency,
			AccountID:    accountID,
			Category:     models.CategoryBudgetAllocation,
			Description:  fmt.Sprintf("Allocation budget: %s", b.Name),
			Date:         time.Now(),
			LinkedModule: models.LinkedBudget,
			LinkedID:     b.ID,
		}
		if err := tx.CreateTransaction(ctx, entry); err != nil {
			return err
		}
		if err := tx.AddToBalance(ctx, userID, accountID, -b.Amount); err != nil {
			return err
		}

		now := time.Now()
		b.SourceAccountID = accountID
		b.Status = models.BudgetAllocated
		b.AllocatedAt = &now
		return tx.UpdateBudget(ctx, b)
	})
	if err != nil {
		slog.Error("AllocateBudget failed", "budget_id", budgetID, "user_id", userID, "error", err)
		return nil, err
	}

	slog.Info("Budget allocated",
		"budget_id", b.ID,
		"user_id", userID,
		"account_id", accountID,
		"amount", b.Amount,
		"currency", b.Currency,
	)
	return b, nil
}

// Activate moves an allocated budget into active status.
func (s *BudgetService) Activate(ctx context.Context, userID, budgetID string) (b *models.Budget, err error) {
	defer func() { metrics.Observe("activate_budget", err) }()

	err = s.store.Transact(ctx, func(tx storage.Store) error {
		b, err = tx.GetBudget(ctx, userID, budgetID)
		if err != nil {
			return err
		}
		if b.Status != models.BudgetAllocated {
			return fmt.Errorf("%w: only allocated budgets can be activated, budget is %s",
				engine.ErrInvalidState, b.Status)
		}
		b.Status = models.BudgetActive
		return tx.UpdateBudget(ctx, b)
	})
	if err != nil {
		slog.Error("ActivateBudget failed", "budget_id", budgetID, "user_id", userID, "error", err)
		return nil, err
	}
	return b, nil
}

// Archive soft-disables a budget. Legal from any non-completed state.
func (s *BudgetService) Archive(ctx context.Context, userID, budgetID string) (b *models.Budget, err error) {
	defer func() { metrics.Observe("archive_budget", err) }()

	err = s.store.Transact(ctx, func(tx storage.Store) error {
		b, err = tx.GetBudget(ctx, userID, budgetID)
		if err != nil {
			return err
		}
		if b.Completed() {
			return fmt.Errorf("%w: completed budgets cannot be archived", engine.ErrInvalidState)
		}
		b.Status = models.BudgetArchived
		return tx.UpdateBudget(ctx, b)
	})
	if err != nil {
		slog.Error("ArchiveBudget failed", "budget_id", budgetID, "user_id", userID, "error", err)
		return nil, err
	}
	return b, nil
}

// ReturnResult reports what a return-funds transition did.
type ReturnResult struct {
	// Returned is the unspent remainder credited back to the source
	// account. Negative when the category overspent its envelope; no
	// money moves in that case.
	Returned float64

	// Spent is the journal spend the remainder was computed from.
	Spent float64
}

// ReturnUnusedFunds computes the envelope's unspent remainder from the
// journal and credits it back to the source account via a one-legged
// transfer entry tagged budget_return. The budget completes regardless of
// whether anything was returned.
func (s *BudgetService) ReturnUnusedFunds(ctx context.Context, userID, budgetID string) (result ReturnResult, err error) {
	defer func() { metrics.Observe("return_budget_funds", err) }()

	err = s.store.Transact(ctx, func(tx storage.Store) error {
		b, err := tx.GetBudget(ctx, userID, budgetID)
		if err != nil {
			return err
		}
		if !b.Returnable() {
			return fmt.Errorf("%w: only allocated or active budgets can return funds, budget is %s",
				engine.ErrInvalidState, b.Status)
		}
		if b.SourceAccountID == "" {
			return fmt.Errorf("%w: budget has no source account", engine.ErrInvalidState)
		}

		spent, err := tx.SumExpenses(ctx, userID, b.Category, b.Currency, b.StartDate, b.EndDate)
		if err != nil {
			return err
		}
		remaining := engine.Round2(b.Amount - spent)
		result = ReturnResult{Returned: remaining, Spent: spent}

		if remaining > 0 {
			account, err := tx.GetAccountByID(ctx, b.SourceAccountID)
			if err != nil {
				return err
			}
			if account.UserID != userID {
				return fmt.Errorf("%w: source account is not owned by the budget's user",
					engine.ErrAccountMismatch)
			}

			entry := &models.Transaction{
				UserID:       userID,
				Type:         models.Transfer,
				Amount:       remaining,
				Currency:     b.Currency,
				ToAccountID:  b.SourceAccountID,
				Category:     models.CategoryBudgetReturn,
				Description:  fmt.Sprintf("Retour fonds non utilisés: %s", b.Name),
				Date:         time.Now(),
				LinkedModule: models.LinkedBudget,
				LinkedID:     b.ID,
			}
			if err := tx.CreateTransaction(ctx, entry); err != nil {
				return err
			}
			if err := tx.AddToBalance(ctx, userID, b.SourceAccountID, remaining); err != nil {
				return err
			}
		}

		now := time.Now()
		b.Status = models.BudgetCompleted
		b.ReturnedAt = &now
		return tx.UpdateBudget(ctx, b)
	})
	if err != nil {
		slog.Error("ReturnBudgetFunds failed", "budget_id", budgetID, "user_id", userID, "error", err)
		return ReturnResult{}, err
	}

	slog.Info("Budget funds returned",
		"budget_id", budgetID,
		"user_id", userID,
		"returned", result.Returned,
		"spent", result.Spent,
	)
	return result, nil
}

// SweepOutcome is the per-budget result of an expired-budget sweep.
type SweepOutcome struct {
	BudgetID string
	UserID   string
	Returned float64
	Spent    float64
	Err      error
}

// ReturnAllExpiredBudgets returns unused funds for every budget, across all
// users, still holding allocated funds past its end date. Each budget's
// return is its own atomic operation: one budget's failure is captured in
// its outcome and does not abort the sweep of the others.
func (s *BudgetService) ReturnAllExpiredBudgets(ctx context.Context) ([]SweepOutcome, error) {
	expired, err := s.store.ListExpiredAllocatedBudgets(ctx, time.Now())
	if err != nil {
		return nil, err
	}

	outcomes := make([]SweepOutcome, 0, len(expired))
	for _, b := range expired {
		result, err := s.ReturnUnusedFunds(ctx, b.UserID, b.ID)
		outcome := SweepOutcome{BudgetID: b.ID, UserID: b.UserID, Err: err}
		if err == nil {
			outcome.Returned = result.Returned
			outcome.Spent = result.Spent
		}
		outcomes = append(outcomes, outcome)
	}

	slog.Info("Expired budget sweep finished", "candidates", len(expired))
	return outcomes, nil
}

// UpdateBudgetInput carries the editable fields of a budget. Nil means
// "leave unchanged". None of these re-trigger allocation math.
type UpdateBudgetInput struct {
	Name           *string
	Amount         *float64
	StartDate      *time.Time
	EndDate        *time.Time
	Icon           *string
	Color          *string
	AlertThreshold *int
}

// Update edits a budget in any non-completed state.
func (s *BudgetService) Update(ctx context.Context, userID, budgetID string, in UpdateBudgetInput) (b *models.Budget, err error) {
	defer func() { metrics.Observe("update_budget", err) }()

	err = s.store.Transact(ctx, func(tx storage.Store) error {
		b, err = tx.GetBudget(ctx, userID, budgetID)
		if err != nil {
			return err
		}
		if b.Completed() {
			return fmt.Errorf("%w: completed budgets cannot be edited", engine.ErrInvalidState)
		}

		if in.Name != nil {
			b.Name = *in.Name
		}
		if in.Amount != nil {
			if *in.Amount <= 0 {
				return fmt.Errorf("%w: amount must be greater than zero", engine.ErrValidation)
			}
			b.Amount = engine.Round2(*in.Amount)
		}
		if in.StartDate != nil {
			b.StartDate = *in.StartDate
		}
		if in.EndDate != nil {
			b.EndDate = *in.EndDate
		}
		if in.StartDate != nil || in.EndDate != nil {
			if err := engine.ValidateDateWindow(b.StartDate, b.EndDate); err != nil {
				return err
			}
			existing, err := tx.FindOverlappingBudget(ctx, userID, b.Category, b.StartDate, b.EndDate, b.ID)
			if err != nil {
				return err
			}
			if existing != nil {
				return fmt.Errorf("%w: a budget for category %q already covers this period",
					engine.ErrValidation, b.Category)
			}
		}
		if in.Icon != nil {
			b.Icon = *in.Icon
		}
		if in.Color != nil {
			b.Color = *in.Color
		}
		if in.AlertThreshold != nil {
			if err := engine.ValidateAlertThreshold(*in.AlertThreshold); err != nil {
				return err
			}
			b.AlertThreshold = *in.AlertThreshold
		}
		return tx.UpdateBudget(ctx, b)
	})
	if err != nil {
		slog.Error("UpdateBudget failed", "budget_id", budgetID, "user_id", userID, "error", err)
		return nil, err
	}
	return b, nil
}

// Get retrieves a budget with its spend computed fresh from the journal.
func (s *BudgetService) Get(ctx context.Context, userID, budgetID string) (*models.BudgetWithSpend, error) {
	b, err := s.store.GetBudget(ctx, userID, budgetID)
	if err != nil {
		return nil, err
	}
	spent, err := s.store.SumExpenses(ctx, userID, b.Category, b.Currency, b.StartDate, b.EndDate)
	if err != nil {
		return nil, err
	}
	return &models.BudgetWithSpend{Budget: b, Spent: spent}, nil
}

// List returns a user's budgets, each with a fresh spend aggregate.
func (s *BudgetService) List(ctx context.Context, userID string, f storage.BudgetFilter) ([]*models.BudgetWithSpend, error) {
	budgets, err := s.store.ListBudgets(ctx, userID, f)
	if err != nil {
		return nil, err
	}

	out := make([]*models.BudgetWithSpend, 0, len(budgets))
	for _, b := range budgets {
		spent, err := s.store.SumExpenses(ctx, userID, b.Category, b.Currency, b.StartDate, b.EndDate)
		if err != nil {
			return nil, err
		}
		out = append(out, &models.BudgetWithSpend{Budget: b, Spent: spent})
	}
	return out, nil
}

// BudgetStats summarizes a user's live budgets.
type BudgetStats struct {
	TotalBudget float64
	TotalSpent  float64
	Remaining   float64

	TotalBudgets int
	ByAlert      map[models.AlertState]int
}

// Stats aggregates the allocated and active budgets of a user.
func (s *BudgetService) Stats(ctx context.Context, userID string) (BudgetStats, error) {
	stats := BudgetStats{ByAlert: map[models.AlertState]int{
		models.AlertOK:       0,
		models.AlertWarning:  0,
		models.AlertExceeded: 0,
	}}

	for _, status := range []models.BudgetStatus{models.BudgetAllocated, models.BudgetActive} {
		budgets, err := s.List(ctx, userID, storage.BudgetFilter{Status: status})
		if err != nil {
			return BudgetStats{}, err
		}
		for _, b := range budgets {
			stats.TotalBudget += b.Amount
			stats.TotalSpent += b.Spent
			stats.TotalBudgets++
			stats.ByAlert[b.Alert(b.Spent)]++
		}
	}
	stats.Remaining = max(0, engine.Round2(stats.TotalBudget-stats.TotalSpent))
	return stats, nil
}
