package ledger

import (
	"errors"
	"reflect"
	"testing"

	"github.com/splitpot/splitpot/internal/money"
)

func TestSimplify(t *testing.T) {
	tests := []struct {
		name     string
		balances map[string]money.Cents
		want     []Transfer
		wantErr  bool
	}{
		{
			name:     "one creditor two equal debtors",
			balances: map[string]money.Cents{"alice": 6000, "bob": -3000, "carol": -3000},
			want: []Transfer{
				{From: "bob", To: "alice", Amount: 3000},
				{From: "carol", To: "alice", Amount: 3000},
			},
		},
		{
			name:     "one creditor one debtor after partial settlement",
			balances: map[string]money.Cents{"alice": 3000, "bob": 0, "carol": -3000},
			want: []Transfer{
				{From: "carol", To: "alice", Amount: 3000},
			},
		},
		{
			name:     "all settled",
			balances: map[string]money.Cents{"alice": 0, "bob": 0},
			want:     nil,
		},
		{
			name:     "empty snapshot",
			balances: map[string]money.Cents{},
			want:     nil,
		},
		{
			name:     "chain collapses to two transfers",
			balances: map[string]money.Cents{"alice": 5000, "bob": 2000, "carol": -3000, "dave": -4000},
			want: []Transfer{
				{From: "dave", To: "alice", Amount: 4000},
				{From: "carol", To: "alice", Amount: 1000},
				{From: "carol", To: "bob", Amount: 2000},
			},
		},
		{
			name:     "unbalanced snapshot rejected",
			balances: map[string]money.Cents{"alice": 100, "bob": -50},
			wantErr:  true,
		},
		{
			name:     "single nonzero balance rejected",
			balances: map[string]money.Cents{"alice": 100},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Simplify(tt.balances)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Simplify() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				var iv *InvariantViolationError
				if !errors.As(err, &iv) {
					t.Errorf("Simplify() error = %v, want InvariantViolationError", err)
				}
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Simplify() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Applying every emitted transfer as a settlement must bring every balance
// to exactly zero.
func TestSimplifySoundness(t *testing.T) {
	snapshots := []map[string]money.Cents{
		{"alice": 6000, "bob": -3000, "carol": -3000},
		{"alice": 5000, "bob": 2000, "carol": -3000, "dave": -4000},
		{"a": 1, "b": 1, "c": 1, "d": -3},
		{"a": 9999, "b": -9998, "c": -1},
	}

	for _, snapshot := range snapshots {
		plan, err := Simplify(snapshot)
		if err != nil {
			t.Fatalf("Simplify(%v) failed: %v", snapshot, err)
		}

		remaining := make(map[string]money.Cents, len(snapshot))
		for m, b := range snapshot {
			remaining[m] = b
		}
		for _, tr := range plan {
			if tr.Amount <= 0 {
				t.Errorf("transfer %v has non-positive amount", tr)
			}
			remaining[tr.From] += tr.Amount
			remaining[tr.To] -= tr.Amount
		}
		for m, b := range remaining {
			if b != 0 {
				t.Errorf("snapshot %v: member %s left at %d after plan %v", snapshot, m, b, plan)
			}
		}
	}
}

func TestSimplifyDeterminism(t *testing.T) {
	snapshot := map[string]money.Cents{
		"alice": 2500, "bob": 2500, "carol": -2000, "dave": -2000, "erin": -1000,
	}

	first, err := Simplify(snapshot)
	if err != nil {
		t.Fatalf("Simplify failed: %v", err)
	}
	for i := 0; i < 20; i++ {
		got, err := Simplify(snapshot)
		if err != nil {
			t.Fatalf("Simplify failed: %v", err)
		}
		if !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %v vs %v", i, got, first)
		}
	}
}

func TestSimplifyBoundedness(t *testing.T) {
	snapshots := []map[string]money.Cents{
		{"alice": 6000, "bob": -3000, "carol": -3000},
		{"alice": 5000, "bob": 2000, "carol": -3000, "dave": -4000},
		{"a": 10, "b": -10},
		{},
	}

	for _, snapshot := range snapshots {
		nonzero := 0
		for _, b := range snapshot {
			if b != 0 {
				nonzero++
			}
		}
		limit := nonzero - 1
		if limit < 0 {
			limit = 0
		}

		plan, err := Simplify(snapshot)
		if err != nil {
			t.Fatalf("Simplify(%v) failed: %v", snapshot, err)
		}
		if len(plan) > limit {
			t.Errorf("snapshot %v: %d transfers, limit %d", snapshot, len(plan), limit)
		}
	}
}

func TestSimplifyTieBreaksByMemberID(t *testing.T) {
	// Equal balances must be ordered by member ID, not map iteration order.
	plan, err := Simplify(map[string]money.Cents{
		"zoe": -1000, "amy": -1000, "mia": 2000,
	})
	if err != nil {
		t.Fatalf("Simplify failed: %v", err)
	}

	want := []Transfer{
		{From: "amy", To: "mia", Amount: 1000},
		{From: "zoe", To: "mia", Amount: 1000},
	}
	if !reflect.DeepEqual(plan, want) {
		t.Errorf("Simplify() = %v, want %v", plan, want)
	}
}
