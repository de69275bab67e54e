package ledger

import (
	"sort"

	"github.com/splitpot/splitpot/internal/money"
)

// Transfer is one payment in a settlement plan: From pays To the given
// amount.
type Transfer struct {
	From   string
	To     string
	Amount money.Cents
}

// Simplify reduces a balance snapshot to a settlement plan: an ordered list
// of transfers that, applied as settlements, would bring every balance to
// exactly zero.
//
// The plan is produced by deterministic greedy matching: creditors sorted by
// balance descending, debtors by balance ascending, ties broken by member ID,
// then a two-pointer sweep pairing the largest creditor with the largest
// debtor. The same snapshot always yields the same plan, and the plan never
// exceeds nonzero-balance-count minus one transfers. It is not guaranteed to
// be globally minimal; finding the true minimum is NP-hard and group sizes
// do not justify it.
//
// A snapshot whose balances do not sum to zero is rejected with an
// InvariantViolationError: it cannot be produced by a correct mutator, and
// emitting a one-sided plan would paper over the defect.
func Simplify(balances map[string]money.Cents) ([]Transfer, error) {
	var sum money.Cents
	for _, b := range balances {
		sum += b
	}
	if sum != 0 {
		return nil, &InvariantViolationError{Sum: sum}
	}

	type entry struct {
		member  string
		balance money.Cents
	}
	var creditors, debtors []entry
	for m, b := range balances {
		switch {
		case b > 0:
			creditors = append(creditors, entry{member: m, balance: b})
		case b < 0:
			debtors = append(debtors, entry{member: m, balance: b})
		}
	}

	// Largest creditor first; largest debt (most negative) first.
	// Member-ID tie-breaks keep the output stable across runs.
	sort.Slice(creditors, func(i, j int) bool {
		if creditors[i].balance != creditors[j].balance {
			return creditors[i].balance > creditors[j].balance
		}
		return creditors[i].member < creditors[j].member
	})
	sort.Slice(debtors, func(i, j int) bool {
		if debtors[i].balance != debtors[j].balance {
			return debtors[i].balance < debtors[j].balance
		}
		return debtors[i].member < debtors[j].member
	})

	var plan []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		owed := -debtors[i].balance
		due := creditors[j].balance

		amount := owed
		if due < amount {
			amount = due
		}

		plan = append(plan, Transfer{
			From:   debtors[i].member,
			To:     creditors[j].member,
			Amount: amount,
		})

		debtors[i].balance += amount
		creditors[j].balance -= amount

		if debtors[i].balance == 0 {
			i++
		}
		if creditors[j].balance == 0 {
			j++
		}
	}

	return plan, nil
}
