package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/splitpot/splitpot/internal/metrics"
	"github.com/splitpot/splitpot/internal/money"
)

// Queries is the read-only view over the ledger. It never mutates state and
// is safe to call concurrently and on every page render; results reflect a
// point-in-time snapshot of the store.
type Queries struct {
	store Store
}

// NewQueries creates a Queries facade backed by the given store.
func NewQueries(store Store) *Queries {
	return &Queries{store: store}
}

// MemberBalance returns the member's current net balance in the group.
// Members without a ledger entry are at zero.
func (q *Queries) MemberBalance(ctx context.Context, groupID, memberID string) (money.Cents, error) {
	balance, err := q.store.GetBalance(ctx, groupID, memberID)
	if err != nil {
		return 0, &StorageError{Op: "get balance", Err: err}
	}
	return balance, nil
}

// GroupBalances returns a snapshot of every member's net balance.
func (q *Queries) GroupBalances(ctx context.Context, groupID string) (map[string]money.Cents, error) {
	balances, err := q.store.ListBalances(ctx, groupID)
	if err != nil {
		return nil, &StorageError{Op: "list balances", Err: err}
	}
	return balances, nil
}

// SimplifiedDebts returns a settlement plan for the group's current
// balances.
func (q *Queries) SimplifiedDebts(ctx context.Context, groupID string) ([]Transfer, error) {
	balances, err := q.GroupBalances(ctx, groupID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	plan, err := Simplify(balances)
	metrics.SimplifyDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		var iv *InvariantViolationError
		if errors.As(err, &iv) {
			return nil, &InvariantViolationError{GroupID: groupID, Sum: iv.Sum}
		}
		return nil, err
	}
	return plan, nil
}
