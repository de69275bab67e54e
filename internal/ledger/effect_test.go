package ledger

import (
	"reflect"
	"testing"

	"github.com/splitpot/splitpot/internal/models"
	"github.com/splitpot/splitpot/internal/money"
)

func TestExpenseEffect(t *testing.T) {
	tests := []struct {
		name string
		exp  *models.Expense
		want Effect
	}{
		{
			name: "equal three-way split",
			exp: &models.Expense{
				PayerID: "alice",
				Amount:  9000,
				Shares:  map[string]money.Cents{"alice": 3000, "bob": 3000, "carol": 3000},
			},
			want: Effect{
				{MemberID: "alice", Amount: 6000},
				{MemberID: "bob", Amount: -3000},
				{MemberID: "carol", Amount: -3000},
			},
		},
		{
			name: "payer not in shares",
			exp: &models.Expense{
				PayerID: "alice",
				Amount:  5000,
				Shares:  map[string]money.Cents{"bob": 2000, "carol": 3000},
			},
			want: Effect{
				{MemberID: "alice", Amount: 5000},
				{MemberID: "bob", Amount: -2000},
				{MemberID: "carol", Amount: -3000},
			},
		},
		{
			name: "payer's share exactly cancels their credit",
			exp: &models.Expense{
				PayerID: "alice",
				Amount:  4000,
				Shares:  map[string]money.Cents{"alice": 4000},
			},
			want: Effect{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExpenseEffect(tt.exp)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExpenseEffect() = %v, want %v", got, tt.want)
			}
			if sum := got.Sum(); sum != 0 {
				t.Errorf("effect sums to %d, want 0", sum)
			}
		})
	}
}

func TestSettlementEffect(t *testing.T) {
	effect := SettlementEffect(&models.Settlement{
		FromUserID: "bob",
		ToUserID:   "alice",
		Amount:     3000,
	})

	want := Effect{
		{MemberID: "alice", Amount: -3000},
		{MemberID: "bob", Amount: 3000},
	}
	if !reflect.DeepEqual(effect, want) {
		t.Errorf("SettlementEffect() = %v, want %v", effect, want)
	}
	if sum := effect.Sum(); sum != 0 {
		t.Errorf("effect sums to %d, want 0", sum)
	}
}

func TestEffectReversed(t *testing.T) {
	effect := Effect{
		{MemberID: "alice", Amount: 6000},
		{MemberID: "bob", Amount: -3000},
		{MemberID: "carol", Amount: -3000},
	}

	rev := effect.Reversed()
	for i := range effect {
		if rev[i].MemberID != effect[i].MemberID {
			t.Errorf("reversed delta %d member = %s, want %s", i, rev[i].MemberID, effect[i].MemberID)
		}
		if rev[i].Amount != -effect[i].Amount {
			t.Errorf("reversed delta %d amount = %d, want %d", i, rev[i].Amount, -effect[i].Amount)
		}
	}
}

func TestEffectDeterministicOrder(t *testing.T) {
	exp := &models.Expense{
		PayerID: "zed",
		Amount:  300,
		Shares:  map[string]money.Cents{"carol": 100, "alice": 100, "bob": 100},
	}

	first := ExpenseEffect(exp)
	for i := 0; i < 10; i++ {
		if got := ExpenseEffect(exp); !reflect.DeepEqual(got, first) {
			t.Fatalf("ExpenseEffect not deterministic: %v vs %v", got, first)
		}
	}
	if !reflect.DeepEqual(first.Members(), []string{"alice", "bob", "carol", "zed"}) {
		t.Errorf("effect members = %v, want sorted order", first.Members())
	}
}
