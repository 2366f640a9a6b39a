package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MHC32/Rise/internal/engine"
	"github.com/MHC32/Rise/internal/models"
)

const accountColumns = `id, user_id, name, type, institution, provider, currency, balance,
	initial_balance, color, icon, is_active, include_in_total, created_at, updated_at`

// CreateAccount persists a new account, generating the ID and timestamps
// when unset.
func (s *SQLiteStore) CreateAccount(ctx context.Context, account *models.Account) error {
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	if account.CreatedAt == 0 {
		account.CreatedAt = time.Now().Unix()
	}
	account.UpdatedAt = account.CreatedAt

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		account.ID,
		account.UserID,
		account.Name,
		string(account.Type),
		nullString(account.Institution),
		nullString(string(account.Provider)),
		string(account.Currency),
		account.Balance,
		account.InitialBalance,
		account.Color,
		account.Icon,
		account.IsActive,
		account.IncludeInTotal,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

// GetAccount retrieves an account scoped by owner. A missing account and an
// account owned by another user are both not-found.
func (s *SQLiteStore) GetAccount(ctx context.Context, userID, accountID string) (*models.Account, error) {
	account, err := scanAccount(s.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ? AND user_id = ?`,
		accountID, userID,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("account %s: %w", accountID, engine.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// GetAccountByID retrieves an account without ownership scoping. Callers
// must check UserID themselves.
func (s *SQLiteStore) GetAccountByID(ctx context.Context, accountID string) (*models.Account, error) {
	account, err := scanAccount(s.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`,
		accountID,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("account %s: %w", accountID, engine.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// ListAccounts returns a user's accounts, newest first.
func (s *SQLiteStore) ListAccounts(ctx context.Context, userID string, activeOnly bool) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = ?`
	if activeOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}
	return accounts, nil
}

// UpdateAccount rewrites an account's metadata and flags. The balance column
// is deliberately not touched here; only AddToBalance mutates it.
func (s *SQLiteStore) UpdateAccount(ctx context.Context, account *models.Account) error {
	account.UpdatedAt = time.Now().Unix()

	res, err := s.q.ExecContext(ctx,
		`UPDATE accounts
		 SET name = ?, type = ?, institution = ?, provider = ?, color = ?, icon = ?,
		     is_active = ?, include_in_total = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		account.Name,
		string(account.Type),
		nullString(account.Institution),
		nullString(string(account.Provider)),
		account.Color,
		account.Icon,
		account.IsActive,
		account.IncludeInTotal,
		account.UpdatedAt,
		account.ID,
		account.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("account %s: %w", account.ID, engine.ErrNotFound)
	}
	return nil
}

// AddToBalance applies one signed delta to an account balance. A debit that
// would drive the balance below zero fails with ErrInsufficientFunds and
// leaves the balance unchanged.
func (s *SQLiteStore) AddToBalance(ctx context.Context, userID, accountID string, delta float64) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE accounts
		 SET balance = ROUND(balance + ?, 2), updated_at = ?
		 WHERE id = ? AND user_id = ? AND balance + ? >= -0.005`,
		delta, time.Now().Unix(), accountID, userID, delta,
	)
	if err != nil {
		return fmt.Errorf("failed to apply balance delta: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to apply balance delta: %w", err)
	}
	if n == 0 {
		// Distinguish a missing account from a blocked debit.
		var one int
		err := s.q.QueryRowContext(ctx,
			`SELECT 1 FROM accounts WHERE id = ? AND user_id = ?`, accountID, userID,
		).Scan(&one)
		if err == sql.ErrNoRows {
			return fmt.Errorf("account %s: %w", accountID, engine.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to apply balance delta: %w", err)
		}
		return fmt.Errorf("account %s: %w", accountID, engine.ErrInsufficientFunds)
	}
	return nil
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*models.Account, error) {
	account := &models.Account{}
	var (
		typ         string
		institution sql.NullString
		provider    sql.NullString
		currency    string
	)
	err := row.Scan(
		&account.ID,
		&account.UserID,
		&account.Name,
		&typ,
		&institution,
		&provider,
		&currency,
		&account.Balance,
		&account.InitialBalance,
		&account.Color,
		&account.Icon,
		&account.IsActive,
		&account.IncludeInTotal,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	account.Type = models.AccountType(typ)
	account.Institution = stringOrEmpty(institution)
	account.Provider = models.MobileProvider(stringOrEmpty(provider))
	account.Currency = models.Currency(currency)
	return account, nil
}
