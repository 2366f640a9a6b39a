package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MHC32/Rise/internal/engine"
	"github.com/MHC32/Rise/internal/metrics"
	"github.com/MHC32/Rise/internal/models"
	"github.com/MHC32/Rise/internal/storage"
)

// AccountService manages a user's accounts. Balances are never edited here
// directly: after creation the balance only moves through journal
// operations.
type AccountService struct {
	store storage.Store
}

// NewAccountService creates a new AccountService with the given storage
// backend.
func NewAccountService(store storage.Store) *AccountService {
	return &AccountService{store: store}
}

// CreateAccountInput is the caller-supplied shape of a new account.
type CreateAccountInput struct {
	Name        string
	Type        models.AccountType
	Institution string
	Provider    models.MobileProvider
	Currency    models.Currency

	InitialBalance float64

	Color string
	Icon  string

	// ExcludeFromTotal inverts the default: new accounts count toward the
	// per-currency totals unless this is set.
	ExcludeFromTotal bool
}

// Create validates and persists an account. The initial balance is recorded
// both as the starting balance and on the account itself.
func (s *AccountService) Create(ctx context.Context, userID string, in CreateAccountInput) (a *models.Account, err error) {
	defer func() { metrics.Observe("create_account", err) }()

	if in.Name == "" {
		return nil, fmt.Errorf("%w: account name is required", engine.ErrValidation)
	}
	if !models.ValidAccountType(in.Type) {
		return nil, fmt.Errorf("%w: unknown account type %q", engine.ErrValidation, in.Type)
	}
	if !models.ValidCurrency(in.Currency) {
		return nil, fmt.Errorf("%w: unknown currency %q", engine.ErrValidation, in.Currency)
	}
	if in.InitialBalance < 0 {
		return nil, fmt.Errorf("%w: initial balance cannot be negative", engine.ErrValidation)
	}
	if in.Type == models.AccountMobileMoney && in.Provider == "" {
		return nil, fmt.Errorf("%w: mobile money accounts require a provider", engine.ErrValidation)
	}

	balance := engine.Round2(in.InitialBalance)
	a = &models.Account{
		UserID:         userID,
		Name:           in.Name,
		Type:           in.Type,
		Institution:    in.Institution,
		Provider:       in.Provider,
		Currency:       in.Currency,
		Balance:        balance,
		InitialBalance: balance,
		Color:          in.Color,
		Icon:           in.Icon,
		IsActive:       true,
		IncludeInTotal: !in.ExcludeFromTotal,
	}

	if err = s.store.CreateAccount(ctx, a); err != nil {
		slog.Error("CreateAccount failed", "user_id", userID, "name", in.Name, "error", err)
		return nil, err
	}

	slog.Info("Account created",
		"account_id", a.ID,
		"user_id", userID,
		"type", a.Type,
		"currency", a.Currency,
		"balance", a.Balance,
	)
	return a, nil
}

// UpdateAccountInput carries the editable fields of an account. Nil means
// "leave unchanged". Balance and currency are not editable.
type UpdateAccountInput struct {
	Name           *string
	Institution    *string
	Color          *string
	Icon           *string
	IncludeInTotal *bool
}

// Update edits an account's non-financial fields.
func (s *AccountService) Update(ctx context.Context, userID, accountID string, in UpdateAccountInput) (a *models.Account, err error) {
	defer func() { metrics.Observe("update_account", err) }()

	err = s.store.Transact(ctx, func(tx storage.Store) error {
		a, err = tx.GetAccount(ctx, userID, accountID)
		if err != nil {
			return err
		}
		if in.Name != nil {
			if *in.Name == "" {
				return fmt.Errorf("%w: account name is required", engine.ErrValidation)
			}
			a.Name = *in.Name
		}
		if in.Institution != nil {
			a.Institution = *in.Institution
		}
		if in.Color != nil {
			a.Color = *in.Color
		}
		if in.Icon != nil {
			a.Icon = *in.Icon
		}
		if in.IncludeInTotal != nil {
			a.IncludeInTotal = *in.IncludeInTotal
		}
		return tx.UpdateAccount(ctx, a)
	})
	if err != nil {
		slog.Error("UpdateAccount failed", "account_id", accountID, "user_id", userID, "error", err)
		return nil, err
	}
	return a, nil
}

// Deactivate soft-deletes an account. The row and its balance are kept so
// historical journal entries stay resolvable.
func (s *AccountService) Deactivate(ctx context.Context, userID, accountID string) (err error) {
	defer func() { metrics.Observe("deactivate_account", err) }()

	err = s.store.Transact(ctx, func(tx storage.Store) error {
		a, err := tx.GetAccount(ctx, userID, accountID)
		if err != nil {
			return err
		}
		a.IsActive = false
		a.IncludeInTotal = false
		return tx.UpdateAccount(ctx, a)
	})
	if err != nil {
		slog.Error("DeactivateAccount failed", "account_id", accountID, "user_id", userID, "error", err)
		return err
	}
	slog.Info("Account deactivated", "account_id", accountID, "user_id", userID)
	return nil
}

// Get retrieves one of the user's accounts.
func (s *AccountService) Get(ctx context.Context, userID, accountID string) (*models.Account, error) {
	return s.store.GetAccount(ctx, userID, accountID)
}

// AccountList bundles a user's accounts with their per-currency totals.
type AccountList struct {
	Accounts []*models.Account

	// Totals sums the balances of active accounts flagged for inclusion,
	// keyed by currency. Currencies are never converted into each other.
	Totals map[models.Currency]float64
}

// List returns the user's accounts and wealth totals. With activeOnly set,
// soft-deleted accounts are omitted.
func (s *AccountService) List(ctx context.Context, userID string, activeOnly bool) (*AccountList, error) {
	accounts, err := s.store.ListAccounts(ctx, userID, activeOnly)
	if err != nil {
		return nil, err
	}

	totals := make(map[models.Currency]float64)
	for _, a := range accounts {
		if a.IsActive && a.IncludeInTotal {
			totals[a.Currency] = engine.Round2(totals[a.Currency] + a.Balance)
		}
	}
	return &AccountList{Accounts: accounts, Totals: totals}, nil
}
