package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MHC32/Rise/internal/engine"
	"github.com/MHC32/Rise/internal/models"
	"github.com/MHC32/Rise/internal/storage"
)

const budgetColumns = `id, user_id, name, category, amount, currency, period, start_date, end_date,
	icon, color, alert_threshold, status, source_account_id, allocated_at, returned_at,
	created_at, updated_at`

// CreateBudget persists a new budget, generating the ID and timestamps when
// unset.
func (s *SQLiteStore) CreateBudget(ctx context.Context, b *models.Budget) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.CreatedAt == 0 {
		b.CreatedAt = time.Now().Unix()
	}
	b.UpdatedAt = b.CreatedAt

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO budgets (`+budgetColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID,
		b.UserID,
		b.Name,
		b.Category,
		b.Amount,
		string(b.Currency),
		string(b.Period),
		b.StartDate.Unix(),
		b.EndDate.Unix(),
		b.Icon,
		b.Color,
		b.AlertThreshold,
		string(b.Status),
		nullString(b.SourceAccountID),
		nullUnix(b.AllocatedAt),
		nullUnix(b.ReturnedAt),
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert budget: %w", err)
	}
	return nil
}

// GetBudget retrieves a budget scoped by owner.
func (s *SQLiteStore) GetBudget(ctx context.Context, userID, id string) (*models.Budget, error) {
	b, err := scanBudget(s.q.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = ? AND user_id = ?`,
		id, userID,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("budget %s: %w", id, engine.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get budget: %w", err)
	}
	return b, nil
}

// ListBudgets returns a user's budgets matching the filter, newest first.
func (s *SQLiteStore) ListBudgets(ctx context.Context, userID string, f storage.BudgetFilter) ([]*models.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE user_id = ?`
	args := []any{userID}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(f.Status))
	}
	if f.Period != "" {
		query += ` AND period = ?`
		args = append(args, string(f.Period))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []*models.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate budgets: %w", err)
	}
	return budgets, nil
}

// UpdateBudget rewrites a budget row.
func (s *SQLiteStore) UpdateBudget(ctx context.Context, b *models.Budget) error {
	b.UpdatedAt = time.Now().Unix()

	res, err := s.q.ExecContext(ctx,
		`UPDATE budgets
		 SET name = ?, category = ?, amount = ?, period = ?, start_date = ?, end_date = ?,
		     icon = ?, color = ?, alert_threshold = ?, status = ?, source_account_id = ?,
		     allocated_at = ?, returned_at = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		b.Name,
		b.Category,
		b.Amount,
		string(b.Period),
		b.StartDate.Unix(),
		b.EndDate.Unix(),
		b.Icon,
		b.Color,
		b.AlertThreshold,
		string(b.Status),
		nullString(b.SourceAccountID),
		nullUnix(b.AllocatedAt),
		nullUnix(b.ReturnedAt),
		b.UpdatedAt,
		b.ID,
		b.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update budget: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update budget: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("budget %s: %w", b.ID, engine.ErrNotFound)
	}
	return nil
}

// FindOverlappingBudget returns a live budget of the same user and category
// whose [start, end) window overlaps the given one, or (nil, nil).
func (s *SQLiteStore) FindOverlappingBudget(ctx context.Context, userID, category string, start, end time.Time, excludeID string) (*models.Budget, error) {
	b, err := scanBudget(s.q.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets
		 WHERE user_id = ? AND category = ?
		   AND status NOT IN ('completed', 'archived')
		   AND start_date < ? AND end_date > ?
		   AND id != ?
		 LIMIT 1`,
		userID, category, end.Unix(), start.Unix(), excludeID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping budget: %w", err)
	}
	return b, nil
}

// ListExpiredAllocatedBudgets returns, across all users, budgets still
// holding allocated funds past their end date.
func (s *SQLiteStore) ListExpiredAllocatedBudgets(ctx context.Context, now time.Time) ([]*models.Budget, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets
		 WHERE status IN ('allocated', 'active') AND end_date < ? AND returned_at IS NULL
		 ORDER BY end_date ASC`,
		now.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired budgets: %w", err)
	}
	defer rows.Close()

	var budgets []*models.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate budgets: %w", err)
	}
	return budgets, nil
}

func scanBudget(row scanner) (*models.Budget, error) {
	b := &models.Budget{}
	var (
		currency        string
		period          string
		startDate       int64
		endDate         int64
		status          string
		sourceAccountID sql.NullString
		allocatedAt     sql.NullInt64
		returnedAt      sql.NullInt64
	)
	err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.Name,
		&b.Category,
		&b.Amount,
		&currency,
		&period,
		&startDate,
		&endDate,
		&b.Icon,
		&b.Color,
		&b.AlertThreshold,
		&status,
		&sourceAccountID,
		&allocatedAt,
		&returnedAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Currency = models.Currency(currency)
	b.Period = models.BudgetPeriod(period)
	b.StartDate = timeFromUnix(startDate)
	b.EndDate = timeFromUnix(endDate)
	b.Status = models.BudgetStatus(status)
	b.SourceAccountID = stringOrEmpty(sourceAccountID)
	b.AllocatedAt = timePtr(allocatedAt)
	b.ReturnedAt = timePtr(returnedAt)
	return b, nil
}
