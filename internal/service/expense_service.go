package service

import (
	"context"
	"log/slog"

	"github.com/splitpot/splitpot/internal/ledger"
	"github.com/splitpot/splitpot/internal/models"
	"github.com/splitpot/splitpot/internal/storage"
)

// ExpenseService records and removes expenses. Spending policy (who may
// create, edit, delete) is enforced here; the ledger arithmetic and its
// invariants live in the mutator.
type ExpenseService struct {
	store   storage.Store
	mutator *ledger.Mutator
}

// NewExpenseService creates a new ExpenseService with the given storage backend.
func NewExpenseService(store storage.Store) *ExpenseService {
	return &ExpenseService{
		store:   store,
		mutator: ledger.NewMutator(store),
	}
}

// AddExpense records an expense. Any group member may create one. If no
// shares are given the amount is split equally among all group members.
func (s *ExpenseService) AddExpense(ctx context.Context, userID string, exp *models.Expense) error {
	group, err := s.store.GetGroup(ctx, exp.GroupID)
	if err != nil {
		return err
	}
	if !group.HasMember(userID) {
		return ErrNotMember
	}
	exp.CreatedBy = userID

	if len(exp.Shares) == 0 {
		exp.Shares, err = ledger.EqualShares(exp.Amount, group.Members)
		if err != nil {
			return err
		}
	}

	if err := s.mutator.ApplyExpense(ctx, exp); err != nil {
		slog.Warn("add expense failed", "group_id", exp.GroupID, "error", err)
		return err
	}

	slog.Info("expense recorded",
		"group_id", exp.GroupID,
		"expense_id", exp.ID,
		"payer_id", exp.PayerID,
		"amount", exp.Amount.String(),
	)
	return nil
}

// ReplaceExpense edits an expense by full replacement: the original effect
// is reversed and the new one applied in a single storage transaction. Only
// the payer of the stored expense or the group owner may edit.
func (s *ExpenseService) ReplaceExpense(ctx context.Context, userID string, exp *models.Expense) error {
	group, err := s.store.GetGroup(ctx, exp.GroupID)
	if err != nil {
		return err
	}
	existing, err := s.store.GetExpense(ctx, exp.GroupID, exp.ID)
	if err != nil {
		return err
	}
	if userID != existing.PayerID && userID != group.OwnerID {
		return ErrPermissionDenied
	}

	if err := s.mutator.ReplaceExpense(ctx, exp); err != nil {
		slog.Warn("replace expense failed", "expense_id", exp.ID, "error", err)
		return err
	}

	slog.Info("expense replaced", "group_id", exp.GroupID, "expense_id", exp.ID)
	return nil
}

// DeleteExpense removes an expense, reversing the exact deltas applied when
// it was created. Only the payer or the group owner may delete.
func (s *ExpenseService) DeleteExpense(ctx context.Context, userID, groupID, expenseID string) error {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	exp, err := s.store.GetExpense(ctx, groupID, expenseID)
	if err != nil {
		return err
	}
	if userID != exp.PayerID && userID != group.OwnerID {
		return ErrPermissionDenied
	}

	if err := s.mutator.ReverseExpense(ctx, groupID, expenseID); err != nil {
		slog.Warn("delete expense failed", "expense_id", expenseID, "error", err)
		return err
	}

	slog.Info("expense deleted", "group_id", groupID, "expense_id", expenseID)
	return nil
}

// GetExpense retrieves an expense. Requester must be a group member.
func (s *ExpenseService) GetExpense(ctx context.Context, userID, groupID, expenseID string) (*models.Expense, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(userID) {
		return nil, ErrNotMember
	}
	return s.store.GetExpense(ctx, groupID, expenseID)
}

// ListExpenses retrieves all expenses for a group, newest first. Requester
// must be a group member.
func (s *ExpenseService) ListExpenses(ctx context.Context, userID, groupID string) ([]*models.Expense, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(userID) {
		return nil, ErrNotMember
	}
	return s.store.ListExpensesByGroup(ctx, groupID)
}
