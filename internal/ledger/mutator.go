package ledger

import (
	"context"
	"log/slog"

	"github.com/splitpot/splitpot/internal/metrics"
	"github.com/splitpot/splitpot/internal/models"
	"github.com/splitpot/splitpot/internal/money"
)

// Store is the persistence surface the engine needs. Implementations must
// apply a transaction record together with its effect's balance deltas as a
// single atomic unit: a partially applied effect must never be observable.
// Deletion must reverse the deltas persisted at creation time, not deltas
// recomputed from the record's current fields.
type Store interface {
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
	GetBalance(ctx context.Context, groupID, memberID string) (money.Cents, error)
	ListBalances(ctx context.Context, groupID string) (map[string]money.Cents, error)

	CreateExpense(ctx context.Context, exp *models.Expense, effect Effect) error
	UpdateExpense(ctx context.Context, exp *models.Expense, effect Effect) error
	DeleteExpense(ctx context.Context, groupID, expenseID string) error

	CreateSettlement(ctx context.Context, s *models.Settlement, effect Effect) error
	DeleteSettlement(ctx context.Context, groupID, settlementID string) error
}

// Mutator translates transactions into ledger effects and applies or
// reverses them through the store. All validation happens before any
// mutation is attempted; a rejected transaction leaves the ledger untouched.
type Mutator struct {
	store Store
}

// NewMutator creates a Mutator backed by the given store.
func NewMutator(store Store) *Mutator {
	return &Mutator{store: store}
}

// ApplyExpense validates the expense, computes its effect and applies it
// atomically. On success the expense record carries its assigned ID.
func (m *Mutator) ApplyExpense(ctx context.Context, exp *models.Expense) error {
	group, err := m.store.GetGroup(ctx, exp.GroupID)
	if err != nil {
		return &StorageError{Op: "get group", Err: err}
	}
	if err := validateExpense(group, exp); err != nil {
		return err
	}

	effect := ExpenseEffect(exp)
	if err := m.apply(ctx, exp.GroupID, effect, func() error {
		return m.store.CreateExpense(ctx, exp, effect)
	}, "create expense"); err != nil {
		return err
	}

	metrics.LedgerMutations.WithLabelValues("expense", "apply").Inc()
	return nil
}

// ReverseExpense removes the expense and reverses the exact deltas recorded
// when it was applied.
func (m *Mutator) ReverseExpense(ctx context.Context, groupID, expenseID string) error {
	if err := m.store.DeleteExpense(ctx, groupID, expenseID); err != nil {
		return &StorageError{Op: "delete expense", Err: err}
	}
	metrics.LedgerMutations.WithLabelValues("expense", "reverse").Inc()
	return m.checkZeroSum(ctx, groupID)
}

// ReplaceExpense edits an expense by full replacement: the stored effect of
// the old version is reversed and the new version's effect applied within
// one storage transaction. The new fields are validated before anything is
// touched.
func (m *Mutator) ReplaceExpense(ctx context.Context, exp *models.Expense) error {
	group, err := m.store.GetGroup(ctx, exp.GroupID)
	if err != nil {
		return &StorageError{Op: "get group", Err: err}
	}
	if err := validateExpense(group, exp); err != nil {
		return err
	}

	effect := ExpenseEffect(exp)
	if err := m.apply(ctx, exp.GroupID, effect, func() error {
		return m.store.UpdateExpense(ctx, exp, effect)
	}, "update expense"); err != nil {
		return err
	}

	metrics.LedgerMutations.WithLabelValues("expense", "replace").Inc()
	return nil
}

// ApplySettlement validates the settlement, computes its effect and applies
// it atomically.
func (m *Mutator) ApplySettlement(ctx context.Context, s *models.Settlement) error {
	group, err := m.store.GetGroup(ctx, s.GroupID)
	if err != nil {
		return &StorageError{Op: "get group", Err: err}
	}
	if err := validateSettlement(group, s); err != nil {
		return err
	}

	effect := SettlementEffect(s)
	if err := m.apply(ctx, s.GroupID, effect, func() error {
		return m.store.CreateSettlement(ctx, s, effect)
	}, "create settlement"); err != nil {
		return err
	}

	metrics.LedgerMutations.WithLabelValues("settlement", "apply").Inc()
	return nil
}

// ReverseSettlement removes the settlement and reverses its recorded deltas.
func (m *Mutator) ReverseSettlement(ctx context.Context, groupID, settlementID string) error {
	if err := m.store.DeleteSettlement(ctx, groupID, settlementID); err != nil {
		return &StorageError{Op: "delete settlement", Err: err}
	}
	metrics.LedgerMutations.WithLabelValues("settlement", "reverse").Inc()
	return m.checkZeroSum(ctx, groupID)
}

// apply runs one atomic store operation after a final zero-sum check on the
// effect itself, then verifies the group invariant.
func (m *Mutator) apply(ctx context.Context, groupID string, effect Effect, op func() error, opName string) error {
	if sum := effect.Sum(); sum != 0 {
		// Effects sum to zero by construction; reaching this is a bug.
		metrics.InvariantViolations.Inc()
		return &InvariantViolationError{GroupID: groupID, Sum: sum}
	}
	if err := op(); err != nil {
		return &StorageError{Op: opName, Err: err}
	}
	return m.checkZeroSum(ctx, groupID)
}

// checkZeroSum verifies that the group's balances sum to zero after a
// mutation. A violation is logged and surfaced, never silently corrected:
// repairing it here would hide the defect that caused it.
func (m *Mutator) checkZeroSum(ctx context.Context, groupID string) error {
	balances, err := m.store.ListBalances(ctx, groupID)
	if err != nil {
		return &StorageError{Op: "list balances", Err: err}
	}
	var sum money.Cents
	for _, b := range balances {
		sum += b
	}
	if sum != 0 {
		metrics.InvariantViolations.Inc()
		slog.Error("ledger invariant violated",
			"group_id", groupID,
			"balance_sum", sum.String(),
		)
		return &InvariantViolationError{GroupID: groupID, Sum: sum}
	}
	return nil
}

func validateExpense(group *models.Group, exp *models.Expense) error {
	if exp.Amount <= 0 {
		return validationf("amount must be positive, got %s", exp.Amount)
	}
	if len(exp.Shares) == 0 {
		return validationf("expense must have at least one share")
	}
	if !group.HasMember(exp.PayerID) {
		return validationf("payer %s is not a member of group %s", exp.PayerID, group.ID)
	}
	var sum money.Cents
	for member, share := range exp.Shares {
		if share < 0 {
			return validationf("share for %s is negative", member)
		}
		if !group.HasMember(member) {
			return validationf("share holder %s is not a member of group %s", member, group.ID)
		}
		sum += share
	}
	if sum != exp.Amount {
		return validationf("shares sum to %s, want %s", sum, exp.Amount)
	}
	return nil
}

func validateSettlement(group *models.Group, s *models.Settlement) error {
	if s.Amount <= 0 {
		return validationf("amount must be positive, got %s", s.Amount)
	}
	if s.FromUserID == s.ToUserID {
		return validationf("settlement payer and payee must differ")
	}
	if !group.HasMember(s.FromUserID) {
		return validationf("payer %s is not a member of group %s", s.FromUserID, group.ID)
	}
	if !group.HasMember(s.ToUserID) {
		return validationf("payee %s is not a member of group %s", s.ToUserID, group.ID)
	}
	return nil
}
