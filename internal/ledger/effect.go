// Package ledger implements the group ledger balance engine: incremental
// per-member balance maintenance with a zero-sum invariant, atomic
// apply/reverse of transaction effects, and deterministic debt
// simplification.
package ledger

import (
	"sort"

	"github.com/splitpot/splitpot/internal/models"
	"github.com/splitpot/splitpot/internal/money"
)

// Delta is one member's signed balance change within an effect.
type Delta struct {
	MemberID string
	Amount   money.Cents
}

// Effect is the complete set of balance deltas a single transaction applies
// to a group's ledger. Deltas are ordered by member ID and always sum to
// zero. An effect is computed once, when the transaction is created, and
// persisted alongside it; deletion reverses the persisted deltas verbatim.
type Effect []Delta

// ExpenseEffect computes the ledger effect of an expense: the payer is
// credited the full amount and every share holder is debited their share.
// If the payer also holds a share, the two combine into a single delta.
func ExpenseEffect(exp *models.Expense) Effect {
	deltas := make(map[string]money.Cents, len(exp.Shares)+1)
	deltas[exp.PayerID] += exp.Amount
	for member, share := range exp.Shares {
		deltas[member] -= share
	}
	return fromMap(deltas)
}

// SettlementEffect computes the ledger effect of a settlement: the payer's
// balance improves by the amount, the payee's decreases.
func SettlementEffect(s *models.Settlement) Effect {
	return fromMap(map[string]money.Cents{
		s.FromUserID: s.Amount,
		s.ToUserID:   -s.Amount,
	})
}

// fromMap flattens a delta map into a deterministic, zero-free effect.
func fromMap(deltas map[string]money.Cents) Effect {
	members := make([]string, 0, len(deltas))
	for m := range deltas {
		if deltas[m] != 0 {
			members = append(members, m)
		}
	}
	sort.Strings(members)

	effect := make(Effect, 0, len(members))
	for _, m := range members {
		effect = append(effect, Delta{MemberID: m, Amount: deltas[m]})
	}
	return effect
}

// Sum returns the total of all deltas. Zero for any well-formed effect.
func (e Effect) Sum() money.Cents {
	var sum money.Cents
	for _, d := range e {
		sum += d.Amount
	}
	return sum
}

// Reversed returns the effect with every delta negated. Applying an effect
// and then its reversal leaves every touched balance unchanged.
func (e Effect) Reversed() Effect {
	rev := make(Effect, len(e))
	for i, d := range e {
		rev[i] = Delta{MemberID: d.MemberID, Amount: -d.Amount}
	}
	return rev
}

// Members returns the IDs touched by the effect, in delta order.
func (e Effect) Members() []string {
	ids := make([]string, len(e))
	for i, d := range e {
		ids[i] = d.MemberID
	}
	return ids
}
