package ledger

import (
	"context"
	"sort"

	"github.com/splitpot/splitpot/internal/money"
)

// ReconcileStore is the storage surface needed by offline reconciliation.
type ReconcileStore interface {
	ListBalances(ctx context.Context, groupID string) (map[string]money.Cents, error)
	SumEffects(ctx context.Context, groupID string) (map[string]money.Cents, error)
	ReplaceBalances(ctx context.Context, groupID string, balances map[string]money.Cents) error
}

// Drift is one member whose running balance disagrees with the balance
// recomputed from persisted transaction effects.
type Drift struct {
	MemberID string
	Stored   money.Cents
	Computed money.Cents
}

// Reconcile recomputes a group's balances from the effects persisted with
// its transactions and compares them to the running balances. It is an
// offline repair tool: the hot path applies incremental deltas and never
// scans the transaction history. Any drift is returned for inspection; when
// repair is true the running balances are overwritten with the recomputed
// values.
func Reconcile(ctx context.Context, store ReconcileStore, groupID string, repair bool) ([]Drift, error) {
	stored, err := store.ListBalances(ctx, groupID)
	if err != nil {
		return nil, &StorageError{Op: "list balances", Err: err}
	}
	computed, err := store.SumEffects(ctx, groupID)
	if err != nil {
		return nil, &StorageError{Op: "sum effects", Err: err}
	}

	members := make(map[string]struct{}, len(stored)+len(computed))
	for m := range stored {
		members[m] = struct{}{}
	}
	for m := range computed {
		members[m] = struct{}{}
	}

	var drifts []Drift
	for m := range members {
		if stored[m] != computed[m] {
			drifts = append(drifts, Drift{MemberID: m, Stored: stored[m], Computed: computed[m]})
		}
	}
	sort.Slice(drifts, func(i, j int) bool { return drifts[i].MemberID < drifts[j].MemberID })

	if len(drifts) > 0 && repair {
		if err := store.ReplaceBalances(ctx, groupID, computed); err != nil {
			return drifts, &StorageError{Op: "replace balances", Err: err}
		}
	}
	return drifts, nil
}
