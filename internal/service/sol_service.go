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

// SolService manages sols, the rotating savings circles: contributions
// scheduled at a fixed frequency, with collaborative sols rotating a payout
// position through their members.
type SolService struct {
	store storage.Store
}

// NewSolService creates a new SolService with the given storage backend.
func NewSolService(store storage.Store) *SolService {
	return &SolService{store: store}
}

// CreateSolInput is the caller-supplied shape of a new sol.
type CreateSolInput struct {
	Name        string
	Type        models.SolType
	Amount      float64
	Currency    models.Currency
	Frequency   models.Frequency
	StartDate   time.Time
	Description string

	// TargetAmount is required for personal sols; ignored for
	// collaborative ones.
	TargetAmount float64

	// Members is required for collaborative sols. Positions are
	// assigned from declaration order.
	Members []models.SolMember
}

// Create validates and persists a sol. The first contribution is due at the
// start date.
func (s *SolService) Create(ctx context.Context, userID string, in CreateSolInput) (sol *models.Sol, err error) {
	defer func() { metrics.Observe("create_sol", err) }()

	if in.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be greater than zero", engine.ErrValidation)
	}
	if !models.ValidCurrency(in.Currency) {
		return nil, fmt.Errorf("%w: unknown currency %q", engine.ErrValidation, in.Currency)
	}
	if !models.ValidFrequency(in.Frequency) {
		return nil, fmt.Errorf("%w: unknown frequency %q", engine.ErrValidation, in.Frequency)
	}
	if !models.ValidSolType(in.Type) {
		return nil, fmt.Errorf("%w: unknown sol type %q", engine.ErrValidation, in.Type)
	}

	sol = &models.Sol{
		UserID:          userID,
		Name:            in.Name,
		Type:            in.Type,
		Amount:          engine.Round2(in.Amount),
		Currency:        in.Currency,
		Frequency:       in.Frequency,
		StartDate:       in.StartDate,
		NextPaymentDate: in.StartDate,
		Description:     in.Description,
		IsActive:        true,
	}

	switch in.Type {
	case models.SolPersonal:
		if in.TargetAmount <= 0 {
			return nil, fmt.Errorf("%w: personal sols require a target amount", engine.ErrValidation)
		}
		sol.TargetAmount = engine.Round2(in.TargetAmount)
	case models.SolCollaborative:
		if len(in.Members) == 0 {
			return nil, fmt.Errorf("%w: collaborative sols require at least one member", engine.ErrValidation)
		}
		sol.Members = make([]models.SolMember, len(in.Members))
		for i, m := range in.Members {
			m.Position = i
			m.HasReceived = false
			m.ReceivedDate = nil
			sol.Members[i] = m
		}
	}

	if err = s.store.CreateSol(ctx, sol); err != nil {
		slog.Error("CreateSol failed", "user_id", userID, "name", in.Name, "error", err)
		return nil, err
	}

	slog.Info("Sol created", "sol_id", sol.ID, "user_id", userID, "type", sol.Type, "amount", sol.Amount)
	return sol, nil
}

// ContributionResult bundles the sol state after a contribution with the
// journal entry that recorded it.
type ContributionResult struct {
	Sol         *models.Sol
	Transaction *models.Transaction
}

// Contribute records one scheduled contribution to a sol from one of the
// user's accounts. The amount is the sol's fixed per-period amount: the
// account is debited by it, an expense entry in the sol category is
// journaled, the running total advances and the next payment date moves one
// frequency step forward. Partial contributions are not a thing; a sol
// collects the same amount every period.
func (s *SolService) Contribute(ctx context.Context, userID, solID, accountID string) (result *ContributionResult, err error) {
	defer func() { metrics.Observe("sol_contribute", err) }()

	var amount float64
	err = s.store.Transact(ctx, func(tx storage.Store) error {
		sol, err := tx.GetSol(ctx, userID, solID)
		if err != nil {
			return err
		}
		if !sol.IsActive {
			return fmt.Errorf("%w: sol is not active", engine.ErrInvalidState)
		}
		amount = sol.Amount

		account, err := tx.GetAccount(ctx, userID, accountID)
		if err != nil {
			return err
		}
		if account.Currency != sol.Currency {
			return fmt.Errorf("%w: sol is %s but account %s is %s",
				engine.ErrCurrencyMismatch, sol.Currency, account.ID, account.Currency)
		}
		if account.Balance < amount {
			metrics.InsufficientFundsTotal.Inc()
			return fmt.Errorf("%w: available %.2f %s, required %.2f %s",
				engine.ErrInsufficientFunds, account.Balance, account.Currency, amount, sol.Currency)
		}

		entry := &models.Transaction{
			UserID:       userID,
			Type:         models.Expense,
			Amount:       amount,
			Currency:     sol.Currency,
			AccountID:    accountID,
			Category:     models.CategorySol,
			Description:  fmt.Sprintf("Cotisation %s", sol.Name),
			Date:         time.Now(),
			LinkedModule: models.LinkedSol,
			LinkedID:     sol.ID,
		}
		if err := tx.CreateTransaction(ctx, entry); err != nil {
			return err
		}
		if err := tx.AddToBalance(ctx, userID, accountID, -amount); err != nil {
			return err
		}

		sol.TotalContributions = engine.Round2(sol.TotalContributions + amount)
		sol.NextPaymentDate = sol.NextPaymentAfter(sol.NextPaymentDate)
		if err := tx.UpdateSol(ctx, sol); err != nil {
			return err
		}

		result = &ContributionResult{Sol: sol, Transaction: entry}
		return nil
	})
	if err != nil {
		slog.Error("SolContribute failed", "sol_id", solID, "user_id", userID, "amount", amount, "error", err)
		return nil, err
	}

	slog.Info("Sol contribution recorded",
		"sol_id", solID,
		"user_id", userID,
		"account_id", accountID,
		"amount", amount,
		"total_contributions", result.Sol.TotalContributions,
		"next_payment", result.Sol.NextPaymentDate,
	)
	return result, nil
}

// MoveToNextRecipient marks the current recipient of a collaborative sol as
// paid and rotates the payout position. Wrapping past the last member
// starts a new season: every member's received flag is cleared.
func (s *SolService) MoveToNextRecipient(ctx context.Context, userID, solID string) (sol *models.Sol, err error) {
	defer func() { metrics.Observe("sol_next_recipient", err) }()

	err = s.store.Transact(ctx, func(tx storage.Store) error {
		sol, err = tx.GetSol(ctx, userID, solID)
		if err != nil {
			return err
		}
		if sol.Type != models.SolCollaborative {
			return fmt.Errorf("%w: only collaborative sols rotate recipients", engine.ErrInvalidState)
		}
		if len(sol.Members) == 0 {
			return fmt.Errorf("%w: sol has no members", engine.ErrInvalidState)
		}
		sol.AdvanceRecipient(time.Now())
		return tx.UpdateSol(ctx, sol)
	})
	if err != nil {
		slog.Error("SolNextRecipient failed", "sol_id", solID, "user_id", userID, "error", err)
		return nil, err
	}

	slog.Info("Sol recipient advanced",
		"sol_id", solID,
		"user_id", userID,
		"current_recipient_index", sol.CurrentRecipientIndex,
	)
	return sol, nil
}

// UpdateSolInput carries the editable fields of a sol. Nil means "leave
// unchanged". Type, currency and member roster are fixed at creation.
type UpdateSolInput struct {
	Name         *string
	Amount       *float64
	TargetAmount *float64
	Description  *string
	IsActive     *bool
}

// Update edits a sol's mutable fields.
func (s *SolService) Update(ctx context.Context, userID, solID string, in UpdateSolInput) (sol *models.Sol, err error) {
	defer func() { metrics.Observe("update_sol", err) }()

	err = s.store.Transact(ctx, func(tx storage.Store) error {
		sol, err = tx.GetSol(ctx, userID, solID)
		if err != nil {
			return err
		}
		if in.Name != nil {
			sol.Name = *in.Name
		}
		if in.Amount != nil {
			if *in.Amount <= 0 {
				return fmt.Errorf("%w: amount must be greater than zero", engine.ErrValidation)
			}
			sol.Amount = engine.Round2(*in.Amount)
		}
		if in.TargetAmount != nil {
			if sol.Type != models.SolPersonal {
				return fmt.Errorf("%w: only personal sols have a target amount", engine.ErrValidation)
			}
			if *in.TargetAmount <= 0 {
				return fmt.Errorf("%w: target amount must be greater than zero", engine.ErrValidation)
			}
			sol.TargetAmount = engine.Round2(*in.TargetAmount)
		}
		if in.Description != nil {
			sol.Description = *in.Description
		}
		if in.IsActive != nil {
			sol.IsActive = *in.IsActive
		}
		return tx.UpdateSol(ctx, sol)
	})
	if err != nil {
		slog.Error("UpdateSol failed", "sol_id", solID, "user_id", userID, "error", err)
		return nil, err
	}
	return sol, nil
}

// Delete removes a sol. Its journal entries are kept; they still reference
// the sol by linked ID for audit.
func (s *SolService) Delete(ctx context.Context, userID, solID string) (err error) {
	defer func() { metrics.Observe("delete_sol", err) }()

	if err = s.store.DeleteSol(ctx, userID, solID); err != nil {
		slog.Error("DeleteSol failed", "sol_id", solID, "user_id", userID, "error", err)
		return err
	}
	slog.Info("Sol deleted", "sol_id", solID, "user_id", userID)
	return nil
}

// Get retrieves a single sol.
func (s *SolService) Get(ctx context.Context, userID, solID string) (*models.Sol, error) {
	return s.store.GetSol(ctx, userID, solID)
}

// List returns a user's sols. With activeOnly set, paused and finished sols
// are omitted.
func (s *SolService) List(ctx context.Context, userID string, activeOnly bool) ([]*models.Sol, error) {
	return s.store.ListSols(ctx, userID, activeOnly)
}

// SolStats summarizes a user's sols.
type SolStats struct {
	TotalSols          int
	ActiveSols         int
	TotalContributions map[models.Currency]float64
}

// Stats aggregates contribution totals per currency across a user's sols.
func (s *SolService) Stats(ctx context.Context, userID string) (SolStats, error) {
	sols, err := s.store.ListSols(ctx, userID, false)
	if err != nil {
		return SolStats{}, err
	}

	stats := SolStats{TotalContributions: make(map[models.Currency]float64)}
	for _, sol := range sols {
		stats.TotalSols++
		if sol.IsActive {
			stats.ActiveSols++
		}
		stats.TotalContributions[sol.Currency] = engine.Round2(
			stats.TotalContributions[sol.Currency] + sol.TotalContributions)
	}
	return stats, nil
}

// History returns the journal entries recorded for a sol's contributions,
// newest first.
func (s *SolService) History(ctx context.Context, userID, solID string) ([]*models.Transaction, error) {
	return s.store.ListTransactions(ctx, userID, storage.TransactionFilter{
		LinkedModule: models.LinkedSol,
		LinkedID:     solID,
	})
}
