package ledger_test

import (
	"context"
	"testing"

	"github.com/splitpot/splitpot/internal/ledger"
	"github.com/splitpot/splitpot/internal/models"
	"github.com/splitpot/splitpot/internal/money"
)

func TestReconcileCleanGroup(t *testing.T) {
	store, group := newTestGroup(t)
	mutator := ledger.NewMutator(store)
	ctx := context.Background()

	exp := &models.Expense{
		GroupID: group.ID,
		PayerID: "alice",
		Amount:  9000,
		Shares:  map[string]money.Cents{"alice": 3000, "bob": 3000, "carol": 3000},
	}
	if err := mutator.ApplyExpense(ctx, exp); err != nil {
		t.Fatalf("ApplyExpense failed: %v", err)
	}

	drifts, err := ledger.Reconcile(ctx, store, group.ID, false)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if len(drifts) != 0 {
		t.Errorf("clean group reported %d drifts, want 0: %v", len(drifts), drifts)
	}
}

func TestReconcileDetectsAndRepairsDrift(t *testing.T) {
	store, group := newTestGroup(t)
	mutator := ledger.NewMutator(store)
	ctx := context.Background()

	exp := &models.Expense{
		GroupID: group.ID,
		PayerID: "alice",
		Amount:  9000,
		Shares:  map[string]money.Cents{"alice": 3000, "bob": 3000, "carol": 3000},
	}
	if err := mutator.ApplyExpense(ctx, exp); err != nil {
		t.Fatalf("ApplyExpense failed: %v", err)
	}

	// Corrupt the running balances behind the engine's back.
	if err := store.ReplaceBalances(ctx, group.ID, map[string]money.Cents{
		"alice": 6000, "bob": -2500, "carol": -3500,
	}); err != nil {
		t.Fatalf("ReplaceBalances failed: %v", err)
	}

	// Dry run: drift reported, balances untouched.
	drifts, err := ledger.Reconcile(ctx, store, group.ID, false)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	want := []ledger.Drift{
		{MemberID: "bob", Stored: -2500, Computed: -3000},
		{MemberID: "carol", Stored: -3500, Computed: -3000},
	}
	if len(drifts) != len(want) {
		t.Fatalf("got %d drifts, want %d: %v", len(drifts), len(want), drifts)
	}
	for i, d := range drifts {
		if d != want[i] {
			t.Errorf("drift[%d] = %+v, want %+v", i, d, want[i])
		}
	}
	balance, err := store.GetBalance(ctx, group.ID, "bob")
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if balance != -2500 {
		t.Errorf("dry run changed bob's balance to %d, want -2500", balance)
	}

	// Repair run: same drift report, balances overwritten.
	drifts, err = ledger.Reconcile(ctx, store, group.ID, true)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if len(drifts) != len(want) {
		t.Fatalf("repair run got %d drifts, want %d", len(drifts), len(want))
	}

	assertBalances(t, store, group.ID, map[string]money.Cents{
		"alice": 6000, "bob": -3000, "carol": -3000,
	})

	drifts, err = ledger.Reconcile(ctx, store, group.ID, false)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if len(drifts) != 0 {
		t.Errorf("after repair still %d drifts: %v", len(drifts), drifts)
	}
}

func TestReconcileEmptyGroup(t *testing.T) {
	store, group := newTestGroup(t)

	drifts, err := ledger.Reconcile(context.Background(), store, group.ID, true)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if len(drifts) != 0 {
		t.Errorf("empty group reported %d drifts, want 0", len(drifts))
	}
}
