package ledger

import (
	"fmt"

	"github.com/splitpot/splitpot/internal/money"
)

// ValidationError reports invalid transaction input: share sums that do not
// match the amount, non-positive amounts, unknown members, self-settlements.
// Rejected before any ledger mutation; the caller may correct and resubmit.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// StorageError wraps a persistence failure during an atomic effect
// application. The whole effect was aborted; the caller may retry.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage: %s: %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }

// InvariantViolationError indicates that the zero-sum invariant does not
// hold: the group's balances sum to a nonzero value. This should never occur
// in correct operation; it signals a defect and must be investigated, not
// silently repaired.
type InvariantViolationError struct {
	GroupID string
	Sum     money.Cents
}

func (e *InvariantViolationError) Error() string {
	if e.GroupID == "" {
		return fmt.Sprintf("ledger invariant violated: balances sum to %s, want 0", e.Sum)
	}
	return fmt.Sprintf("ledger invariant violated: group %s balances sum to %s, want 0", e.GroupID, e.Sum)
}
