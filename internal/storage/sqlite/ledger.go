package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/splitpot/splitpot/internal/ledger"
	"github.com/splitpot/splitpot/internal/money"
)

// GetBalance returns the member's current balance. Members without a ledger
// entry are implicitly at zero.
func (s *SQLiteStore) GetBalance(ctx context.Context, groupID, memberID string) (money.Cents, error) {
	var balance int64
	err := s.db.QueryRowContext(ctx,
		"SELECT balance FROM balances WHERE group_id = ? AND member_id = ?",
		groupID, memberID,
	).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return money.Cents(balance), nil
}

// ListBalances returns a snapshot of every member's balance. Members without
// a ledger entry appear at zero so that presentation always sees the full
// group.
func (s *SQLiteStore) ListBalances(ctx context.Context, groupID string) (map[string]money.Cents, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT gm.member_id, COALESCE(b.balance, 0)
		 FROM group_members gm
		 LEFT JOIN balances b ON b.group_id = gm.group_id AND b.member_id = gm.member_id
		 WHERE gm.group_id = ?`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}
	defer rows.Close()

	balances := make(map[string]money.Cents)
	for rows.Next() {
		var member string
		var balance int64
		if err := rows.Scan(&member, &balance); err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		balances[member] = money.Cents(balance)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate balances: %w", err)
	}
	return balances, nil
}

// applyEffect records the effect's deltas and applies them to the running
// balances inside the caller's transaction. The balance update is an
// additive upsert, a true atomic increment rather than read-modify-write.
func applyEffect(ctx context.Context, tx *sql.Tx, txID, groupID string, effect ledger.Effect) error {
	for _, d := range effect {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO effect_deltas (tx_id, group_id, member_id, delta) VALUES (?, ?, ?, ?)",
			txID, groupID, d.MemberID, int64(d.Amount),
		); err != nil {
			return fmt.Errorf("failed to insert effect delta: %w", err)
		}
		if err := addToBalance(ctx, tx, groupID, d.MemberID, d.Amount); err != nil {
			return err
		}
	}
	return nil
}

// reverseEffect negates and removes the deltas persisted for the given
// transaction, inside the caller's transaction. The record's current fields
// play no part; only the stored deltas are trusted.
func reverseEffect(ctx context.Context, tx *sql.Tx, txID, groupID string) error {
	rows, err := tx.QueryContext(ctx,
		"SELECT member_id, delta FROM effect_deltas WHERE tx_id = ?", txID,
	)
	if err != nil {
		return fmt.Errorf("failed to load effect deltas: %w", err)
	}
	defer rows.Close()

	var deltas []struct {
		member string
		amount int64
	}
	for rows.Next() {
		var d struct {
			member string
			amount int64
		}
		if err := rows.Scan(&d.member, &d.amount); err != nil {
			return fmt.Errorf("failed to scan effect delta: %w", err)
		}
		deltas = append(deltas, d)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate effect deltas: %w", err)
	}
	rows.Close()

	for _, d := range deltas {
		if err := addToBalance(ctx, tx, groupID, d.member, money.Cents(-d.amount)); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM effect_deltas WHERE tx_id = ?", txID); err != nil {
		return fmt.Errorf("failed to delete effect deltas: %w", err)
	}
	return nil
}

func addToBalance(ctx context.Context, tx *sql.Tx, groupID, memberID string, delta money.Cents) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO balances (group_id, member_id, balance) VALUES (?, ?, ?)
		 ON CONFLICT (group_id, member_id) DO UPDATE SET balance = balance + excluded.balance`,
		groupID, memberID, int64(delta),
	)
	if err != nil {
		return fmt.Errorf("failed to apply balance delta: %w", err)
	}
	return nil
}

// SumEffects recomputes per-member balances from all persisted effect
// deltas. Used only by offline reconciliation, never on the hot path.
func (s *SQLiteStore) SumEffects(ctx context.Context, groupID string) (map[string]money.Cents, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT member_id, SUM(delta) FROM effect_deltas WHERE group_id = ? GROUP BY member_id",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to sum effects: %w", err)
	}
	defer rows.Close()

	sums := make(map[string]money.Cents)
	for rows.Next() {
		var member string
		var total int64
		if err := rows.Scan(&member, &total); err != nil {
			return nil, fmt.Errorf("failed to scan effect sum: %w", err)
		}
		sums[member] = money.Cents(total)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate effect sums: %w", err)
	}
	return sums, nil
}

// ReplaceBalances overwrites the group's running balances with the given
// snapshot. Used only by reconciliation repair.
func (s *SQLiteStore) ReplaceBalances(ctx context.Context, groupID string, balances map[string]money.Cents) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM balances WHERE group_id = ?", groupID); err != nil {
		return fmt.Errorf("failed to clear balances: %w", err)
	}
	for member, balance := range balances {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO balances (group_id, member_id, balance) VALUES (?, ?, ?)",
			groupID, member, int64(balance),
		); err != nil {
			return fmt.Errorf("failed to insert balance: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
