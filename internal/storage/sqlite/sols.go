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

const solColumns = `id, user_id, name, type, amount, currency, frequency, start_date, end_date,
	current_recipient_index, next_payment_date, total_contributions, target_amount,
	is_active, description, icon, color, created_at, updated_at`

// CreateSol persists a new sol and its member rows as one unit.
func (s *SQLiteStore) CreateSol(ctx context.Context, sol *models.Sol) error {
	if sol.ID == "" {
		sol.ID = uuid.New().String()
	}
	if sol.CreatedAt == 0 {
		sol.CreatedAt = time.Now().Unix()
	}
	sol.UpdatedAt = sol.CreatedAt

	return s.inTx(ctx, func(st *SQLiteStore) error {
		_, err := st.q.ExecContext(ctx,
			`INSERT INTO sols (`+solColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sol.ID,
			sol.UserID,
			sol.Name,
			string(sol.Type),
			sol.Amount,
			string(sol.Currency),
			string(sol.Frequency),
			sol.StartDate.Unix(),
			nullUnix(sol.EndDate),
			sol.CurrentRecipientIndex,
			sol.NextPaymentDate.Unix(),
			sol.TotalContributions,
			sol.TargetAmount,
			sol.IsActive,
			sol.Description,
			sol.Icon,
			sol.Color,
			sol.CreatedAt,
			sol.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert sol: %w", err)
		}
		return st.insertMembers(ctx, sol.ID, sol.Members)
	})
}

// GetSol retrieves a sol and its members, scoped by owner.
func (s *SQLiteStore) GetSol(ctx context.Context, userID, id string) (*models.Sol, error) {
	sol, err := scanSol(s.q.QueryRowContext(ctx,
		`SELECT `+solColumns+` FROM sols WHERE id = ? AND user_id = ?`,
		id, userID,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sol %s: %w", id, engine.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sol: %w", err)
	}

	if err := s.loadMembers(ctx, sol); err != nil {
		return nil, err
	}
	return sol, nil
}

// ListSols returns a user's sols with members, newest first.
func (s *SQLiteStore) ListSols(ctx context.Context, userID string, activeOnly bool) ([]*models.Sol, error) {
	query := `SELECT ` + solColumns + ` FROM sols WHERE user_id = ?`
	if activeOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sols: %w", err)
	}
	defer rows.Close()

	var sols []*models.Sol
	for rows.Next() {
		sol, err := scanSol(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sol: %w", err)
		}
		sols = append(sols, sol)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sols: %w", err)
	}

	for _, sol := range sols {
		if err := s.loadMembers(ctx, sol); err != nil {
			return nil, err
		}
	}
	return sols, nil
}

// UpdateSol rewrites a sol row and its member rows as one unit.
func (s *SQLiteStore) UpdateSol(ctx context.Context, sol *models.Sol) error {
	sol.UpdatedAt = time.Now().Unix()

	return s.inTx(ctx, func(st *SQLiteStore) error {
		res, err := st.q.ExecContext(ctx,
			`UPDATE sols
			 SET name = ?, type = ?, amount = ?, currency = ?, frequency = ?,
			     start_date = ?, end_date = ?, current_recipient_index = ?,
			     next_payment_date = ?, total_contributions = ?, target_amount = ?,
			     is_active = ?, description = ?, icon = ?, color = ?, updated_at = ?
			 WHERE id = ? AND user_id = ?`,
			sol.Name,
			string(sol.Type),
			sol.Amount,
			string(sol.Currency),
			string(sol.Frequency),
			sol.StartDate.Unix(),
			nullUnix(sol.EndDate),
			sol.CurrentRecipientIndex,
			sol.NextPaymentDate.Unix(),
			sol.TotalContributions,
			sol.TargetAmount,
			sol.IsActive,
			sol.Description,
			sol.Icon,
			sol.Color,
			sol.UpdatedAt,
			sol.ID,
			sol.UserID,
		)
		if err != nil {
			return fmt.Errorf("failed to update sol: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to update sol: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("sol %s: %w", sol.ID, engine.ErrNotFound)
		}

		if _, err := st.q.ExecContext(ctx,
			`DELETE FROM sol_members WHERE sol_id = ?`, sol.ID,
		); err != nil {
			return fmt.Errorf("failed to clear sol members: %w", err)
		}
		return st.insertMembers(ctx, sol.ID, sol.Members)
	})
}

// DeleteSol removes a sol; member rows cascade.
func (s *SQLiteStore) DeleteSol(ctx context.Context, userID, id string) error {
	res, err := s.q.ExecContext(ctx,
		`DELETE FROM sols WHERE id = ? AND user_id = ?`, id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete sol: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete sol: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("sol %s: %w", id, engine.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) insertMembers(ctx context.Context, solID string, members []models.SolMember) error {
	for _, m := range members {
		_, err := s.q.ExecContext(ctx,
			`INSERT INTO sol_members (sol_id, position, name, phone, has_received, received_date)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			solID, m.Position, m.Name, m.Phone, m.HasReceived, nullUnix(m.ReceivedDate),
		)
		if err != nil {
			return fmt.Errorf("failed to insert sol member: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) loadMembers(ctx context.Context, sol *models.Sol) error {
	rows, err := s.q.QueryContext(ctx,
		`SELECT position, name, phone, has_received, received_date
		 FROM sol_members WHERE sol_id = ? ORDER BY position`,
		sol.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get sol members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.SolMember
		var receivedDate sql.NullInt64
		if err := rows.Scan(&m.Position, &m.Name, &m.Phone, &m.HasReceived, &receivedDate); err != nil {
			return fmt.Errorf("failed to scan sol member: %w", err)
		}
		m.ReceivedDate = timePtr(receivedDate)
		sol.Members = append(sol.Members, m)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate sol members: %w", err)
	}
	return nil
}

func scanSol(row scanner) (*models.Sol, error) {
	sol := &models.Sol{}
	var (
		typ             string
		currency        string
		frequency       string
		startDate       int64
		endDate         sql.NullInt64
		nextPaymentDate int64
	)
	err := row.Scan(
		&sol.ID,
		&sol.UserID,
		&sol.Name,
		&typ,
		&sol.Amount,
		&currency,
		&frequency,
		&startDate,
		&endDate,
		&sol.CurrentRecipientIndex,
		&nextPaymentDate,
		&sol.TotalContributions,
		&sol.TargetAmount,
		&sol.IsActive,
		&sol.Description,
		&sol.Icon,
		&sol.Color,
		&sol.CreatedAt,
		&sol.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	sol.Type = models.SolType(typ)
	sol.Currency = models.Currency(currency)
	sol.Frequency = models.Frequency(frequency)
	sol.StartDate = timeFromUnix(startDate)
	sol.EndDate = timePtr(endDate)
	sol.NextPaymentDate = timeFromUnix(nextPaymentDate)
	return sol, nil
}
