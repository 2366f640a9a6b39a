package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MHC32/Rise/internal/engine"
	"github.com/MHC32/Rise/internal/models"
	"github.com/MHC32/Rise/internal/storage"
)

func TestSolServiceCreate(t *testing.T) {
	store, user := newTestStore(t)
	svc := NewSolService(store)
	ctx := context.Background()

	t.Run("personal sol requires a target", func(t *testing.T) {
		start := time.Now()
		sol, err := svc.Create(ctx, user.ID, CreateSolInput{
			Name: "Sol maison", Type: models.SolPersonal, Amount: 100,
			Currency: models.HTG, Frequency: models.Monthly,
			StartDate: start, TargetAmount: 1000,
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if !sol.IsActive {
			t.Error("new sol should be active")
		}
		if !sol.NextPaymentDate.Equal(start) {
			t.Errorf("NextPaymentDate = %v, want start date %v", sol.NextPaymentDate, start)
		}

		_, err = svc.Create(ctx, user.ID, CreateSolInput{
			Name: "Sol sans but", Type: models.SolPersonal, Amount: 100,
			Currency: models.HTG, Frequency: models.Monthly, StartDate: start,
		})
		if !errors.Is(err, engine.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("collaborative sol numbers its members", func(t *testing.T) {
		sol, err := svc.Create(ctx, user.ID, CreateSolInput{
			Name: "Sol fanmi", Type: models.SolCollaborative, Amount: 100,
			Currency: models.HTG, Frequency: models.Weekly, StartDate: time.Now(),
			Members: []models.SolMember{
				{Name: "Marie"}, {Name: "Jean"}, {Name: "Roseline"},
			},
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		for i, m := range sol.Members {
			if m.Position != i {
				t.Errorf("member %s position = %d, want %d", m.Name, m.Position, i)
			}
			if m.HasReceived {
				t.Errorf("member %s should start unreceived", m.Name)
			}
		}

		_, err = svc.Create(ctx, user.ID, CreateSolInput{
			Name: "Sol vide", Type: models.SolCollaborative, Amount: 100,
			Currency: models.HTG, Frequency: models.Weekly, StartDate: time.Now(),
		})
		if !errors.Is(err, engine.ErrValidation) {
			t.Errorf("memberless collaborative: expected ErrValidation, got %v", err)
		}
	})
}

func TestSolContribute(t *testing.T) {
	store, user := newTestStore(t)
	svc := NewSolService(store)
	ctx := context.Background()

	newSol := func(t *testing.T, target float64) *models.Sol {
		t.Helper()
		sol, err := svc.Create(ctx, user.ID, CreateSolInput{
			Name: "Sol épargne", Type: models.SolPersonal, Amount: 100,
			Currency: models.HTG, Frequency: models.Monthly,
			StartDate: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
			TargetAmount: target,
		})
		if err != nil {
			t.Fatalf("Create sol failed: %v", err)
		}
		return sol
	}

	t.Run("five monthly contributions accumulate and advance the schedule", func(t *testing.T) {
		account := newTestAccount(t, store, user.ID, models.HTG, 1000)
		sol := newSol(t, 1000)

		var result *ContributionResult
		for i := 0; i < 5; i++ {
			var err error
			result, err = svc.Contribute(ctx, user.ID, sol.ID, account.ID)
			if err != nil {
				t.Fatalf("Contribute %d failed: %v", i+1, err)
			}
		}

		if result.Sol.TotalContributions != 500 {
			t.Errorf("TotalContributions = %v, want 500", result.Sol.TotalContributions)
		}
		if got := result.Sol.Progress(); got != 50 {
			t.Errorf("Progress = %d, want 50", got)
		}
		want := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
		if !result.Sol.NextPaymentDate.Equal(want) {
			t.Errorf("NextPaymentDate = %v, want %v", result.Sol.NextPaymentDate, want)
		}
		if got := accountBalance(t, store, user.ID, account.ID); got != 500 {
			t.Errorf("balance = %v, want 500", got)
		}

		// Each contribution left a tagged journal entry.
		history, err := svc.History(ctx, user.ID, sol.ID)
		if err != nil {
			t.Fatalf("History failed: %v", err)
		}
		if len(history) != 5 {
			t.Fatalf("got %d history entries, want 5", len(history))
		}
		for _, h := range history {
			if h.Category != models.CategorySol || h.LinkedID != sol.ID {
				t.Errorf("history entry = %+v", h)
			}
		}
	})

	t.Run("every contribution debits the sol's fixed amount", func(t *testing.T) {
		account := newTestAccount(t, store, user.ID, models.HTG, 1000)
		sol := newSol(t, 1000)

		result, err := svc.Contribute(ctx, user.ID, sol.ID, account.ID)
		if err != nil {
			t.Fatalf("Contribute failed: %v", err)
		}
		if result.Transaction.Amount != sol.Amount {
			t.Errorf("entry amount = %v, want the sol amount %v", result.Transaction.Amount, sol.Amount)
		}
		if result.Sol.TotalContributions != sol.Amount {
			t.Errorf("TotalContributions = %v, want %v", result.Sol.TotalContributions, sol.Amount)
		}
		if got := accountBalance(t, store, user.ID, account.ID); got != 1000-sol.Amount {
			t.Errorf("balance = %v, want %v", got, 1000-sol.Amount)
		}
	})

	t.Run("contributing past the target is allowed", func(t *testing.T) {
		account := newTestAccount(t, store, user.ID, models.HTG, 1000)
		sol := newSol(t, 150)

		if _, err := svc.Contribute(ctx, user.ID, sol.ID, account.ID); err != nil {
			t.Fatalf("Contribute failed: %v", err)
		}
		result, err := svc.Contribute(ctx, user.ID, sol.ID, account.ID)
		if err != nil {
			t.Fatalf("over-target contribution should pass: %v", err)
		}
		if result.Sol.TotalContributions != 200 {
			t.Errorf("TotalContributions = %v, want 200", result.Sol.TotalContributions)
		}
		if got := result.Sol.Progress(); got != 100 {
			t.Errorf("Progress = %d, want capped 100", got)
		}
	})

	t.Run("inactive sol rejects contributions", func(t *testing.T) {
		account := newTestAccount(t, store, user.ID, models.HTG, 1000)
		sol := newSol(t, 1000)

		paused := false
		if _, err := svc.Update(ctx, user.ID, sol.ID, UpdateSolInput{IsActive: &paused}); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		_, err := svc.Contribute(ctx, user.ID, sol.ID, account.ID)
		if !errors.Is(err, engine.ErrInvalidState) {
			t.Errorf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("underfunded account rejects atomically", func(t *testing.T) {
		account := newTestAccount(t, store, user.ID, models.HTG, 50)
		sol := newSol(t, 1000)

		_, err := svc.Contribute(ctx, user.ID, sol.ID, account.ID)
		if !errors.Is(err, engine.ErrInsufficientFunds) {
			t.Fatalf("expected ErrInsufficientFunds, got %v", err)
		}

		got, err := svc.Get(ctx, user.ID, sol.ID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.TotalContributions != 0 {
			t.Errorf("TotalContributions = %v, want 0 after rejection", got.TotalContributions)
		}
		if !got.NextPaymentDate.Equal(sol.NextPaymentDate) {
			t.Errorf("NextPaymentDate moved on a failed contribution")
		}
		if bal := accountBalance(t, store, user.ID, account.ID); bal != 50 {
			t.Errorf("balance = %v, want unchanged 50", bal)
		}
	})

	t.Run("currency mismatch rejects", func(t *testing.T) {
		account := newTestAccount(t, store, user.ID, models.USD, 1000)
		sol := newSol(t, 1000)

		_, err := svc.Contribute(ctx, user.ID, sol.ID, account.ID)
		if !errors.Is(err, engine.ErrCurrencyMismatch) {
			t.Errorf("expected ErrCurrencyMismatch, got %v", err)
		}
	})

	t.Run("cross-user account is not found", func(t *testing.T) {
		stranger := models.NewUser("lot@example.ht", "Lòt", "hash")
		if err := store.CreateUser(ctx, stranger); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
		foreign := newTestAccount(t, store, stranger.ID, models.HTG, 1000)
		sol := newSol(t, 1000)

		_, err := svc.Contribute(ctx, user.ID, sol.ID, foreign.ID)
		if !errors.Is(err, engine.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestSolMoveToNextRecipient(t *testing.T) {
	store, user := newTestStore(t)
	svc := NewSolService(store)
	ctx := context.Background()

	sol, err := svc.Create(ctx, user.ID, CreateSolInput{
		Name: "Sol katye", Type: models.SolCollaborative, Amount: 100,
		Currency: models.HTG, Frequency: models.Weekly, StartDate: time.Now(),
		Members: []models.SolMember{
			{Name: "Marie"}, {Name: "Jean"}, {Name: "Roseline"},
		},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	t.Run("advances and persists", func(t *testing.T) {
		got, err := svc.MoveToNextRecipient(ctx, user.ID, sol.ID)
		if err != nil {
			t.Fatalf("MoveToNextRecipient failed: %v", err)
		}
		if got.CurrentRecipientIndex != 1 {
			t.Errorf("CurrentRecipientIndex = %d, want 1", got.CurrentRecipientIndex)
		}

		reloaded, err := svc.Get(ctx, user.ID, sol.ID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !reloaded.Members[0].HasReceived || reloaded.Members[0].ReceivedDate == nil {
			t.Errorf("first member should be marked received: %+v", reloaded.Members[0])
		}
	})

	t.Run("full rotation resets the season", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			if _, err := svc.MoveToNextRecipient(ctx, user.ID, sol.ID); err != nil {
				t.Fatalf("MoveToNextRecipient failed: %v", err)
			}
		}

		got, err := svc.Get(ctx, user.ID, sol.ID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.CurrentRecipientIndex != 0 {
			t.Errorf("CurrentRecipientIndex = %d, want 0 after wrap", got.CurrentRecipientIndex)
		}
		for _, m := range got.Members {
			if m.HasReceived || m.ReceivedDate != nil {
				t.Errorf("member %s should be reset: %+v", m.Name, m)
			}
		}
	})

	t.Run("personal sols do not rotate", func(t *testing.T) {
		personal, err := svc.Create(ctx, user.ID, CreateSolInput{
			Name: "Sol pèsonèl", Type: models.SolPersonal, Amount: 100,
			Currency: models.HTG, Frequency: models.Monthly,
			StartDate: time.Now(), TargetAmount: 1000,
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if _, err := svc.MoveToNextRecipient(ctx, user.ID, personal.ID); !errors.Is(err, engine.ErrInvalidState) {
			t.Errorf("expected ErrInvalidState, got %v", err)
		}
	})
}

func TestSolStats(t *testing.T) {
	store, user := newTestStore(t)
	svc := NewSolService(store)
	ctx := context.Background()
	account := newTestAccount(t, store, user.ID, models.HTG, 1000)

	sol, err := svc.Create(ctx, user.ID, CreateSolInput{
		Name: "Sol A", Type: models.SolPersonal, Amount: 100,
		Currency: models.HTG, Frequency: models.Monthly,
		StartDate: time.Now(), TargetAmount: 1000,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := svc.Contribute(ctx, user.ID, sol.ID, account.ID); err != nil {
			t.Fatalf("Contribute failed: %v", err)
		}
	}

	paused, err := svc.Create(ctx, user.ID, CreateSolInput{
		Name: "Sol B", Type: models.SolPersonal, Amount: 50,
		Currency: models.HTG, Frequency: models.Weekly,
		StartDate: time.Now(), TargetAmount: 500,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	inactive := false
	if _, err := svc.Update(ctx, user.ID, paused.ID, UpdateSolInput{IsActive: &inactive}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	stats, err := svc.Stats(ctx, user.ID)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalSols != 2 || stats.ActiveSols != 1 {
		t.Errorf("stats = %+v, want 2 sols, 1 active", stats)
	}
	if stats.TotalContributions[models.HTG] != 300 {
		t.Errorf("TotalContributions[HTG] = %v, want 300", stats.TotalContributions[models.HTG])
	}
}

func TestSolDelete(t *testing.T) {
	store, user := newTestStore(t)
	svc := NewSolService(store)
	txns := NewTransactionService(store)
	ctx := context.Background()
	account := newTestAccount(t, store, user.ID, models.HTG, 1000)

	sol, err := svc.Create(ctx, user.ID, CreateSolInput{
		Name: "Sol fini", Type: models.SolPersonal, Amount: 100,
		Currency: models.HTG, Frequency: models.Monthly,
		StartDate: time.Now(), TargetAmount: 1000,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Contribute(ctx, user.ID, sol.ID, account.ID); err != nil {
		t.Fatalf("Contribute failed: %v", err)
	}

	if err := svc.Delete(ctx, user.ID, sol.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := svc.Get(ctx, user.ID, sol.ID); !errors.Is(err, engine.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	// The contribution stays in the journal for audit.
	history, _, err := txns.List(ctx, user.ID, storage.TransactionFilter{
		LinkedModule: models.LinkedSol, LinkedID: sol.ID,
	})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("got %d journal entries, want 1 kept after sol deletion", len(history))
	}
}
