package ledger

import (
	"sort"

	"github.com/splitpot/splitpot/internal/money"
)

// EqualShares splits an amount evenly among the given members, in integer
// minor units. When the amount does not divide evenly, the remainder is
// distributed one cent at a time to members in ascending ID order, so the
// shares always sum exactly to the amount and the same input always produces
// the same split.
func EqualShares(amount money.Cents, members []string) (map[string]money.Cents, error) {
	if amount <= 0 {
		return nil, validationf("amount must be positive, got %s", amount)
	}
	if len(members) == 0 {
		return nil, validationf("must have at least one member")
	}

	ids := make([]string, len(members))
	copy(ids, members)
	sort.Strings(ids)
	for i := 1; i < len(ids); i++ {
		if ids[i] == ids[i-1] {
			return nil, validationf("duplicate member %s", ids[i])
		}
	}

	n := money.Cents(len(ids))
	base := amount / n
	remainder := amount % n

	shares := make(map[string]money.Cents, len(ids))
	for i, id := range ids {
		share := base
		if money.Cents(i) < remainder {
			share++
		}
		shares[id] = share
	}
	return shares, nil
}
