package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/splitpot/splitpot/internal/ledger"
	"github.com/splitpot/splitpot/internal/models"
	"github.com/splitpot/splitpot/internal/money"
	"github.com/splitpot/splitpot/internal/storage"
)

// CreateExpense persists the expense, its shares and its ledger effect, and
// applies the effect's deltas to the running balances, all in one
// transaction.
func (s *SQLiteStore) CreateExpense(ctx context.Context, exp *models.Expense, effect ledger.Effect) error {
	if exp.ID == "" {
		exp.ID = uuid.New().String()
	}
	if exp.CreatedAt == 0 {
		exp.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, group_id, payer_id, description, amount, created_at, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		exp.ID, exp.GroupID, exp.PayerID, exp.Description, int64(exp.Amount), exp.CreatedAt, exp.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	if err := insertShares(ctx, tx, exp); err != nil {
		return err
	}
	if err := applyEffect(ctx, tx, exp.ID, exp.GroupID, effect); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateExpense replaces the expense record and swaps its ledger effect:
// the deltas persisted at creation time are reversed and the new effect is
// applied, all in one transaction.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, exp *models.Expense, effect ledger.Effect) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE expenses SET payer_id = ?, description = ?, amount = ?
		 WHERE id = ? AND group_id = ?`,
		exp.PayerID, exp.Description, int64(exp.Amount), exp.ID, exp.GroupID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to check update: %w", err)
	} else if n == 0 {
		return fmt.Errorf("expense %s: %w", exp.ID, storage.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM expense_shares WHERE expense_id = ?", exp.ID); err != nil {
		return fmt.Errorf("failed to delete expense shares: %w", err)
	}
	if err := insertShares(ctx, tx, exp); err != nil {
		return err
	}

	if err := reverseEffect(ctx, tx, exp.ID, exp.GroupID); err != nil {
		return err
	}
	if err := applyEffect(ctx, tx, exp.ID, exp.GroupID, effect); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteExpense removes the expense and reverses the deltas persisted when
// it was created, in one transaction.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, groupID, expenseID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := reverseEffect(ctx, tx, expenseID, groupID); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		"DELETE FROM expenses WHERE id = ? AND group_id = ?", expenseID, groupID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to check delete: %w", err)
	} else if n == 0 {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetExpense retrieves an expense with its shares.
func (s *SQLiteStore) GetExpense(ctx context.Context, groupID, expenseID string) (*models.Expense, error) {
	exp := &models.Expense{}
	var amount int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, group_id, payer_id, description, amount, created_at, created_by
		 FROM expenses WHERE id = ? AND group_id = ?`,
		expenseID, groupID,
	).Scan(&exp.ID, &exp.GroupID, &exp.PayerID, &exp.Description, &amount, &exp.CreatedAt, &exp.CreatedBy)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	exp.Amount = money.Cents(amount)

	exp.Shares, err = s.getShares(ctx, exp.ID)
	if err != nil {
		return nil, err
	}
	return exp, nil
}

// ListExpensesByGroup retrieves all expenses for a group, newest first.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, payer_id, description, amount, created_at, created_by
		 FROM expenses WHERE group_id = ? ORDER BY created_at DESC, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		exp := &models.Expense{}
		var amount int64
		if err := rows.Scan(&exp.ID, &exp.GroupID, &exp.PayerID, &exp.Description,
			&amount, &exp.CreatedAt, &exp.CreatedBy); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		exp.Amount = money.Cents(amount)
		expenses = append(expenses, exp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	for _, exp := range expenses {
		if exp.Shares, err = s.getShares(ctx, exp.ID); err != nil {
			return nil, err
		}
	}
	return expenses, nil
}

func insertShares(ctx context.Context, tx *sql.Tx, exp *models.Expense) error {
	for member, share := range exp.Shares {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO expense_shares (expense_id, member_id, amount) VALUES (?, ?, ?)",
			exp.ID, member, int64(share),
		); err != nil {
			return fmt.Errorf("failed to insert expense share: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) getShares(ctx context.Context, expenseID string) (map[string]money.Cents, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT member_id, amount FROM expense_shares WHERE expense_id = ?", expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense shares: %w", err)
	}
	defer rows.Close()

	shares := make(map[string]money.Cents)
	for rows.Next() {
		var member string
		var amount int64
		if err := rows.Scan(&member, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan expense share: %w", err)
		}
		shares[member] = money.Cents(amount)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expense shares: %w", err)
	}
	return shares, nil
}
