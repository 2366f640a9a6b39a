package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MHC32/Rise/internal/engine"
	"github.com/MHC32/Rise/internal/models"
	"github.com/MHC32/Rise/internal/storage"
)

const transactionColumns = `id, user_id, type, amount, currency, account_id, to_account_id, fee,
	category, description, date, linked_module, linked_id, created_at, updated_at`

// CreateTransaction appends one journal entry, generating the ID and
// timestamps when unset.
func (s *SQLiteStore) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt == 0 {
		t.CreatedAt = time.Now().Unix()
	}
	t.UpdatedAt = t.CreatedAt
	if t.Date.IsZero() {
		t.Date = time.Now()
	}

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID,
		t.UserID,
		string(t.Type),
		t.Amount,
		string(t.Currency),
		nullString(t.AccountID),
		nullString(t.ToAccountID),
		t.Fee,
		nullString(t.Category),
		t.Description,
		t.Date.Unix(),
		nullString(string(t.LinkedModule)),
		nullString(t.LinkedID),
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// GetTransaction retrieves a journal entry scoped by owner.
func (s *SQLiteStore) GetTransaction(ctx context.Context, userID, id string) (*models.Transaction, error) {
	t, err := scanTransaction(s.q.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND user_id = ?`,
		id, userID,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("transaction %s: %w", id, engine.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return t, nil
}

// filterClauses translates a TransactionFilter into WHERE fragments.
func filterClauses(userID string, f storage.TransactionFilter) (string, []any) {
	clauses := []string{"user_id = ?"}
	args := []any{userID}

	if f.Type != "" {
		clauses = append(clauses, "type = ?")
		args = append(args, string(f.Type))
	}
	if f.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, f.Category)
	}
	if f.AccountID != "" {
		clauses = append(clauses, "(account_id = ? OR to_account_id = ?)")
		args = append(args, f.AccountID, f.AccountID)
	}
	if !f.From.IsZero() {
		clauses = append(clauses, "date >= ?")
		args = append(args, f.From.Unix())
	}
	if !f.To.IsZero() {
		clauses = append(clauses, "date <= ?")
		args = append(args, f.To.Unix())
	}
	if f.LinkedModule != "" {
		clauses = append(clauses, "linked_module = ?")
		args = append(args, string(f.LinkedModule))
	}
	if f.LinkedID != "" {
		clauses = append(clauses, "linked_id = ?")
		args = append(args, f.LinkedID)
	}

	return strings.Join(clauses, " AND "), args
}

// ListTransactions returns journal entries matching the filter, newest
// first.
func (s *SQLiteStore) ListTransactions(ctx context.Context, userID string, f storage.TransactionFilter) ([]*models.Transaction, error) {
	where, args := filterClauses(userID, f)
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` + where +
		` ORDER BY date DESC, created_at DESC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return transactions, nil
}

// CountTransactions returns the number of entries matching the filter,
// ignoring paging.
func (s *SQLiteStore) CountTransactions(ctx context.Context, userID string, f storage.TransactionFilter) (int, error) {
	f.Limit = 0
	f.Offset = 0
	where, args := filterClauses(userID, f)

	var count int
	err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE `+where, args...,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// UpdateTransactionDetails rewrites only the non-financial fields:
// description, category and date. Amounts and account references are
// immutable; correcting them means delete and recreate.
func (s *SQLiteStore) UpdateTransactionDetails(ctx context.Context, t *models.Transaction) error {
	t.UpdatedAt = time.Now().Unix()

	res, err := s.q.ExecContext(ctx,
		`UPDATE transactions SET description = ?, category = ?, date = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		t.Description,
		nullString(t.Category),
		t.Date.Unix(),
		t.UpdatedAt,
		t.ID,
		t.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %s: %w", t.ID, engine.ErrNotFound)
	}
	return nil
}

// DeleteTransaction removes a journal entry. Reversing its balance effect is
// the caller's responsibility, inside the same atomic operation.
func (s *SQLiteStore) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := s.q.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %s: %w", id, engine.ErrNotFound)
	}
	return nil
}

// SumExpenses totals expense amounts for one category and currency inside
// [from, to]. This is the budget spend aggregate; it is always computed
// fresh, never cached.
func (s *SQLiteStore) SumExpenses(ctx context.Context, userID, category string, currency models.Currency, from, to time.Time) (float64, error) {
	var total float64
	err := s.q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM transactions
		 WHERE user_id = ? AND type = 'expense' AND category = ? AND currency = ?
		   AND date >= ? AND date <= ?`,
		userID, category, string(currency), from.Unix(), to.Unix(),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum expenses: %w", err)
	}
	return total, nil
}

// SumByType totals income and expense amounts inside [from, to].
func (s *SQLiteStore) SumByType(ctx context.Context, userID string, from, to time.Time) (storage.TypeTotals, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT type, COALESCE(SUM(amount), 0) FROM transactions
		 WHERE user_id = ? AND date >= ? AND date <= ?
		 GROUP BY type`,
		userID, from.Unix(), to.Unix(),
	)
	if err != nil {
		return storage.TypeTotals{}, fmt.Errorf("failed to sum by type: %w", err)
	}
	defer rows.Close()

	var totals storage.TypeTotals
	for rows.Next() {
		var typ string
		var total float64
		if err := rows.Scan(&typ, &total); err != nil {
			return storage.TypeTotals{}, fmt.Errorf("failed to scan type total: %w", err)
		}
		switch models.TransactionType(typ) {
		case models.Income:
			totals.Income = total
		case models.Expense:
			totals.Expense = total
		}
	}
	if err := rows.Err(); err != nil {
		return storage.TypeTotals{}, fmt.Errorf("failed to iterate type totals: %w", err)
	}
	return totals, nil
}

// SumByCategory totals amounts per category for one transaction type from
// `from` onward. Entries without a category are skipped.
func (s *SQLiteStore) SumByCategory(ctx context.Context, userID string, typ models.TransactionType, from time.Time) (map[string]float64, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT category, COALESCE(SUM(amount), 0) FROM transactions
		 WHERE user_id = ? AND type = ? AND date >= ? AND category IS NOT NULL
		 GROUP BY category`,
		userID, string(typ), from.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to sum by category: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]float64)
	for rows.Next() {
		var category string
		var total float64
		if err := rows.Scan(&category, &total); err != nil {
			return nil, fmt.Errorf("failed to scan category total: %w", err)
		}
		totals[category] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate category totals: %w", err)
	}
	return totals, nil
}

func scanTransaction(row scanner) (*models.Transaction, error) {
	t := &models.Transaction{}
	var (
		typ          string
		currency     string
		accountID    sql.NullString
		toAccountID  sql.NullString
		category     sql.NullString
		date         int64
		linkedModule sql.NullString
		linkedID     sql.NullString
	)
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&typ,
		&t.Amount,
		&currency,
		&accountID,
		&toAccountID,
		&t.Fee,
		&category,
		&t.Description,
		&date,
		&linkedModule,
		&linkedID,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Type = models.TransactionType(typ)
	t.Currency = models.Currency(currency)
	t.AccountID = stringOrEmpty(accountID)
	t.ToAccountID = stringOrEmpty(toAccountID)
	t.Category = stringOrEmpty(category)
	t.Date = timeFromUnix(date)
	t.LinkedModule = models.LinkedModule(stringOrEmpty(linkedModule))
	t.LinkedID = stringOrEmpty(linkedID)
	return t, nil
}
