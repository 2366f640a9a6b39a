package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MHC32/Rise/internal/engine"
	"github.com/MHC32/Rise/internal/models"
	"github.com/MHC32/Rise/internal/storage"
)

// newTestStore creates a store backed by a throwaway database file with one
// user already inserted.
func newTestStore(t *testing.T) (*SQLiteStore, *models.User) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "rise-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	user := models.NewUser("test@example.ht", "Testeur", "hash")
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return store, user
}

func newTestAccount(t *testing.T, store *SQLiteStore, userID string, currency models.Currency, balance float64) *models.Account {
	t.Helper()

	account := &models.Account{
		UserID:         userID,
		Name:           "Sogebank courant",
		Type:           models.AccountBank,
		Institution:    "Sogebank",
		Currency:       currency,
		Balance:        balance,
		InitialBalance: balance,
		IsActive:       true,
		IncludeInTotal: true,
	}
	if err := store.CreateAccount(context.Background(), account); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	return account
}

func TestSQLiteStore(t *testing.T) {
	store, user := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateAccount generates ID and timestamps", func(t *testing.T) {
		account := newTestAccount(t, store, user.ID, models.HTG, 1000)

		if account.ID == "" {
			t.Error("Expected account ID to be generated")
		}
		if account.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}
	})

	t.Run("GetAccount is scoped by owner", func(t *testing.T) {
		account := newTestAccount(t, store, user.ID, models.HTG, 1000)

		got, err := store.GetAccount(ctx, user.ID, account.ID)
		if err != nil {
			t.Fatalf("GetAccount failed: %v", err)
		}
		if got.Name != account.Name || got.Balance != 1000 {
			t.Errorf("got %+v, want name=%s balance=1000", got, account.Name)
		}

		_, err = store.GetAccount(ctx, "someone-else", account.ID)
		if !errors.Is(err, engine.ErrNotFound) {
			t.Errorf("cross-user lookup: expected ErrNotFound, got %v", err)
		}
	})

	t.Run("GetAccountByID ignores ownership", func(t *testing.T) {
		account := newTestAccount(t, store, user.ID, models.HTG, 1000)

		got, err := store.GetAccountByID(ctx, account.ID)
		if err != nil {
			t.Fatalf("GetAccountByID failed: %v", err)
		}
		if got.UserID != user.ID {
			t.Errorf("UserID = %s, want %s", got.UserID, user.ID)
		}
	})

	t.Run("GetUserByEmail returns nil for unknown email", func(t *testing.T) {
		got, err := store.GetUserByEmail(ctx, "missing@example.ht")
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if got != nil {
			t.Errorf("expected nil user, got %+v", got)
		}
	})

	t.Run("transaction round trip", func(t *testing.T) {
		account := newTestAccount(t, store, user.ID, models.HTG, 1000)

		txn := &models.Transaction{
			UserID:      user.ID,
			Type:        models.Expense,
			Amount:      250,
			Currency:    models.HTG,
			AccountID:   account.ID,
			Category:    "alimentation",
			Description: "Marché",
			Date:        time.Now(),
		}
		if err := store.CreateTransaction(ctx, txn); err != nil {
			t.Fatalf("CreateTransaction failed: %v", err)
		}

		got, err := store.GetTransaction(ctx, user.ID, txn.ID)
		if err != nil {
			t.Fatalf("GetTransaction failed: %v", err)
		}
		if got.Amount != 250 || got.Category != "alimentation" || got.AccountID != account.ID {
			t.Errorf("got %+v", got)
		}

		if err := store.DeleteTransaction(ctx, user.ID, txn.ID); err != nil {
			t.Fatalf("DeleteTransaction failed: %v", err)
		}
		if _, err := store.GetTransaction(ctx, user.ID, txn.ID); !errors.Is(err, engine.ErrNotFound) {
			t.Errorf("after delete: expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListTransactions filters by category and linked module", func(t *testing.T) {
		account := newTestAccount(t, store, user.ID, models.HTG, 10000)

		for _, c := range []string{"transport", "transport", "loisirs"} {
			txn := &models.Transaction{
				UserID: user.ID, Type: models.Expense, Amount: 10,
				Currency: models.HTG, AccountID: account.ID,
				Category: c, Date: time.Now(),
			}
			if err := store.CreateTransaction(ctx, txn); err != nil {
				t.Fatalf("CreateTransaction failed: %v", err)
			}
		}
		linked := &models.Transaction{
			UserID: user.ID, Type: models.Expense, Amount: 10,
			Currency: models.HTG, AccountID: account.ID,
			Category: models.CategorySol, Date: time.Now(),
			LinkedModule: models.LinkedSol, LinkedID: "sol-1",
		}
		if err := store.CreateTransaction(ctx, linked); err != nil {
			t.Fatalf("CreateTransaction failed: %v", err)
		}

		byCategory, err := store.ListTransactions(ctx, user.ID, storage.TransactionFilter{Category: "transport"})
		if err != nil {
			t.Fatalf("ListTransactions failed: %v", err)
		}
		if len(byCategory) != 2 {
			t.Errorf("category filter: got %d transactions, want 2", len(byCategory))
		}

		byLink, err := store.ListTransactions(ctx, user.ID, storage.TransactionFilter{
			LinkedModule: models.LinkedSol, LinkedID: "sol-1",
		})
		if err != nil {
			t.Fatalf("ListTransactions failed: %v", err)
		}
		if len(byLink) != 1 || byLink[0].ID != linked.ID {
			t.Errorf("linked filter: got %d transactions", len(byLink))
		}
	})

	t.Run("SumExpenses respects category, currency and window", func(t *testing.T) {
		account := newTestAccount(t, store, user.ID, models.USD, 10000)
		base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

		entries := []struct {
			amount float64
			cat    string
			date   time.Time
		}{
			{100, "sante", base.AddDate(0, 0, 1)},
			{50, "sante", base.AddDate(0, 0, 10)},
			{75, "sante", base.AddDate(0, 2, 0)}, // outside window
			{30, "loisirs", base.AddDate(0, 0, 5)},
		}
		for _, e := range entries {
			txn := &models.Transaction{
				UserID: user.ID, Type: models.Expense, Amount: e.amount,
				Currency: models.USD, AccountID: account.ID,
				Category: e.cat, Date: e.date,
			}
			if err := store.CreateTransaction(ctx, txn); err != nil {
				t.Fatalf("CreateTransaction failed: %v", err)
			}
		}

		sum, err := store.SumExpenses(ctx, user.ID, "sante", models.USD, base, base.AddDate(0, 1, 0))
		if err != nil {
			t.Fatalf("SumExpenses failed: %v", err)
		}
		if sum != 150 {
			t.Errorf("SumExpenses = %v, want 150", sum)
		}
	})

	t.Run("sol round trip preserves members in order", func(t *testing.T) {
		sol := &models.Sol{
			UserID:    user.ID,
			Name:      "Sol fanmi",
			Type:      models.SolCollaborative,
			Amount:    100,
			Currency:  models.HTG,
			Frequency: models.Monthly,
			StartDate: time.Now(),
			Members: []models.SolMember{
				{Name: "Marie", Position: 0},
				{Name: "Jean", Position: 1},
				{Name: "Roseline", Position: 2},
			},
			NextPaymentDate: time.Now(),
			IsActive:        true,
		}
		if err := store.CreateSol(ctx, sol); err != nil {
			t.Fatalf("CreateSol failed: %v", err)
		}

		got, err := store.GetSol(ctx, user.ID, sol.ID)
		if err != nil {
			t.Fatalf("GetSol failed: %v", err)
		}
		if len(got.Members) != 3 {
			t.Fatalf("got %d members, want 3", len(got.Members))
		}
		for i, name := range []string{"Marie", "Jean", "Roseline"} {
			if got.Members[i].Name != name {
				t.Errorf("member[%d] = %s, want %s", i, got.Members[i].Name, name)
			}
		}

		got.Members[0].HasReceived = true
		got.CurrentRecipientIndex = 1
		if err := store.UpdateSol(ctx, got); err != nil {
			t.Fatalf("UpdateSol failed: %v", err)
		}
		reloaded, err := store.GetSol(ctx, user.ID, sol.ID)
		if err != nil {
			t.Fatalf("GetSol failed: %v", err)
		}
		if !reloaded.Members[0].HasReceived || reloaded.CurrentRecipientIndex != 1 {
			t.Errorf("update lost member state: %+v", reloaded)
		}

		if err := store.DeleteSol(ctx, user.ID, sol.ID); err != nil {
			t.Fatalf("DeleteSol failed: %v", err)
		}
		if _, err := store.GetSol(ctx, user.ID, sol.ID); !errors.Is(err, engine.ErrNotFound) {
			t.Errorf("after delete: expected ErrNotFound, got %v", err)
		}
	})
}

func TestAddToBalance(t *testing.T) {
	store, user := newTestStore(t)
	ctx := context.Background()
	account := newTestAccount(t, store, user.ID, models.HTG, 100)

	t.Run("applies signed deltas", func(t *testing.T) {
		if err := store.AddToBalance(ctx, user.ID, account.ID, -40); err != nil {
			t.Fatalf("AddToBalance failed: %v", err)
		}
		if err := store.AddToBalance(ctx, user.ID, account.ID, 15.50); err != nil {
			t.Fatalf("AddToBalance failed: %v", err)
		}

		got, err := store.GetAccount(ctx, user.ID, account.ID)
		if err != nil {
			t.Fatalf("GetAccount failed: %v", err)
		}
		if got.Balance != 75.50 {
			t.Errorf("Balance = %v, want 75.50", got.Balance)
		}
	})

	t.Run("rejects overdraft and keeps the balance", func(t *testing.T) {
		err := store.AddToBalance(ctx, user.ID, account.ID, -1000)
		if !errors.Is(err, engine.ErrInsufficientFunds) {
			t.Fatalf("expected ErrInsufficientFunds, got %v", err)
		}

		got, err := store.GetAccount(ctx, user.ID, account.ID)
		if err != nil {
			t.Fatalf("GetAccount failed: %v", err)
		}
		if got.Balance != 75.50 {
			t.Errorf("Balance = %v, want unchanged 75.50", got.Balance)
		}
	})

	t.Run("missing account is not found, not insufficient", func(t *testing.T) {
		err := store.AddToBalance(ctx, user.ID, "missing", -10)
		if !errors.Is(err, engine.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestTransact(t *testing.T) {
	store, user := newTestStore(t)
	ctx := context.Background()

	t.Run("error rolls back every step", func(t *testing.T) {
		account := newTestAccount(t, store, user.ID, models.HTG, 500)

		boom := errors.New("boom")
		err := store.Transact(ctx, func(tx storage.Store) error {
			if err := tx.AddToBalance(ctx, user.ID, account.ID, -200); err != nil {
				return err
			}
			txn := &models.Transaction{
				UserID: user.ID, Type: models.Expense, Amount: 200,
				Currency: models.HTG, AccountID: account.ID,
				Category: "autre", Date: time.Now(),
			}
			if err := tx.CreateTransaction(ctx, txn); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}

		got, err := store.GetAccount(ctx, user.ID, account.ID)
		if err != nil {
			t.Fatalf("GetAccount failed: %v", err)
		}
		if got.Balance != 500 {
			t.Errorf("Balance = %v, want 500 after rollback", got.Balance)
		}
		count, err := store.CountTransactions(ctx, user.ID, storage.TransactionFilter{AccountID: account.ID})
		if err != nil {
			t.Fatalf("CountTransactions failed: %v", err)
		}
		if count != 0 {
			t.Errorf("found %d transactions after rollback, want 0", count)
		}
	})

	t.Run("nested Transact joins the outer transaction", func(t *testing.T) {
		account := newTestAccount(t, store, user.ID, models.HTG, 500)

		boom := errors.New("boom")
		err := store.Transact(ctx, func(tx storage.Store) error {
			return tx.Transact(ctx, func(inner storage.Store) error {
				if err := inner.AddToBalance(ctx, user.ID, account.ID, -100); err != nil {
					return err
				}
				return boom
			})
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}

		got, err := store.GetAccount(ctx, user.ID, account.ID)
		if err != nil {
			t.Fatalf("GetAccount failed: %v", err)
		}
		if got.Balance != 500 {
			t.Errorf("Balance = %v, want 500: inner work must abort with the outer", got.Balance)
		}
	})
}

func TestBudgetQueries(t *testing.T) {
	store, user := newTestStore(t)
	ctx := context.Background()

	march := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	april := march.AddDate(0, 1, 0)
	may := march.AddDate(0, 2, 0)

	mk := func(category string, start, end time.Time, status models.BudgetStatus) *models.Budget {
		t.Helper()
		b := &models.Budget{
			UserID: user.ID, Name: "Budget " + category, Category: category,
			Amount: 500, Currency: models.HTG, Period: models.PeriodMonthly,
			StartDate: start, EndDate: end,
			AlertThreshold: models.DefaultAlertThreshold, Status: status,
		}
		if err := store.CreateBudget(ctx, b); err != nil {
			t.Fatalf("CreateBudget failed: %v", err)
		}
		return b
	}

	t.Run("FindOverlappingBudget detects live overlap", func(t *testing.T) {
		existing := mk("transport", march, april, models.BudgetActive)

		got, err := store.FindOverlappingBudget(ctx, user.ID, "transport", march.AddDate(0, 0, 15), may, "")
		if err != nil {
			t.Fatalf("FindOverlappingBudget failed: %v", err)
		}
		if got == nil || got.ID != existing.ID {
			t.Errorf("expected overlap with %s, got %+v", existing.ID, got)
		}

		// Different category, disjoint window, or excluded ID: no match.
		if got, _ := store.FindOverlappingBudget(ctx, user.ID, "loisirs", march, may, ""); got != nil {
			t.Errorf("different category should not overlap, got %+v", got)
		}
		if got, _ := store.FindOverlappingBudget(ctx, user.ID, "transport", april, may, ""); got != nil {
			t.Errorf("adjacent window should not overlap, got %+v", got)
		}
		if got, _ := store.FindOverlappingBudget(ctx, user.ID, "transport", march, may, existing.ID); got != nil {
			t.Errorf("excluded ID should not overlap, got %+v", got)
		}
	})

	t.Run("completed budgets never conflict", func(t *testing.T) {
		mk("sante", march, april, models.BudgetCompleted)

		got, err := store.FindOverlappingBudget(ctx, user.ID, "sante", march, april, "")
		if err != nil {
			t.Fatalf("FindOverlappingBudget failed: %v", err)
		}
		if got != nil {
			t.Errorf("completed budget should not conflict, got %+v", got)
		}
	})

	t.Run("ListExpiredAllocatedBudgets finds past allocations", func(t *testing.T) {
		expired := mk("education", march, april, models.BudgetAllocated)
		mk("logement", march, may, models.BudgetAllocated)   // not expired at `april`
		mk("factures", march, april, models.BudgetDraft)     // draft holds no funds
		mk("shopping", march, april, models.BudgetCompleted) // already returned

		got, err := store.ListExpiredAllocatedBudgets(ctx, april.AddDate(0, 0, 1))
		if err != nil {
			t.Fatalf("ListExpiredAllocatedBudgets failed: %v", err)
		}
		if len(got) != 1 || got[0].ID != expired.ID {
			ids := make([]string, len(got))
			for i, b := range got {
				ids[i] = b.Category
			}
			t.Errorf("got %v, want [education]", ids)
		}
	})
}
