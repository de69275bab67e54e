package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/splitpot/splitpot/internal/ledger"
	"github.com/splitpot/splitpot/internal/models"
	"github.com/splitpot/splitpot/internal/money"
	"github.com/splitpot/splitpot/internal/storage"
)

func TestCreateUserDuplicateEmail(t *testing.T) {
	store := New()
	ctx := context.Background()

	if err := store.CreateUser(ctx, models.NewUser("alice@example.com", "Alice", "h1")); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if err := store.CreateUser(ctx, models.NewUser("alice@example.com", "Imposter", "h2")); err == nil {
		t.Error("expected duplicate email to be rejected")
	}
}

// Retrieved records must be copies: mutating them must not leak back into
// the store.
func TestDefensiveCopies(t *testing.T) {
	store := New()
	ctx := context.Background()

	group := &models.Group{Name: "Trip", OwnerID: "alice", Members: []string{"alice", "bob"}}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	got, err := store.GetGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	got.Members[0] = "mallory"
	got.Name = "Hijacked"

	fresh, err := store.GetGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if fresh.Members[0] != "alice" || fresh.Name != "Trip" {
		t.Errorf("store leaked mutable state: %+v", fresh)
	}

	exp := &models.Expense{
		GroupID: group.ID,
		PayerID: "alice",
		Amount:  1000,
		Shares:  map[string]money.Cents{"bob": 1000},
	}
	if err := store.CreateExpense(ctx, exp, ledger.ExpenseEffect(exp)); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	gotExp, err := store.GetExpense(ctx, group.ID, exp.ID)
	if err != nil {
		t.Fatalf("GetExpense failed: %v", err)
	}
	gotExp.Shares["bob"] = 9999

	freshExp, err := store.GetExpense(ctx, group.ID, exp.ID)
	if err != nil {
		t.Fatalf("GetExpense failed: %v", err)
	}
	if freshExp.Shares["bob"] != 1000 {
		t.Errorf("store leaked mutable shares: %v", freshExp.Shares)
	}
}

func TestUpdateExpensePreservesProvenance(t *testing.T) {
	store := New()
	ctx := context.Background()

	group := &models.Group{Name: "Trip", OwnerID: "alice", Members: []string{"alice", "bob"}}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	exp := &models.Expense{
		GroupID:   group.ID,
		PayerID:   "alice",
		Amount:    1000,
		Shares:    map[string]money.Cents{"bob": 1000},
		CreatedAt: 42,
		CreatedBy: "alice",
	}
	if err := store.CreateExpense(ctx, exp, ledger.ExpenseEffect(exp)); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	edited := &models.Expense{
		ID:      exp.ID,
		GroupID: group.ID,
		PayerID: "bob",
		Amount:  500,
		Shares:  map[string]money.Cents{"alice": 500},
	}
	if err := store.UpdateExpense(ctx, edited, ledger.ExpenseEffect(edited)); err != nil {
		t.Fatalf("UpdateExpense failed: %v", err)
	}

	got, err := store.GetExpense(ctx, group.ID, exp.ID)
	if err != nil {
		t.Fatalf("GetExpense failed: %v", err)
	}
	if got.CreatedAt != 42 || got.CreatedBy != "alice" {
		t.Errorf("update lost provenance: CreatedAt=%d CreatedBy=%q", got.CreatedAt, got.CreatedBy)
	}
	if got.PayerID != "bob" || got.Amount != 500 {
		t.Errorf("update not applied: %+v", got)
	}
}

func TestDeleteGroupDropsEffects(t *testing.T) {
	store := New()
	ctx := context.Background()

	group := &models.Group{Name: "Trip", OwnerID: "alice", Members: []string{"alice", "bob"}}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	exp := &models.Expense{
		GroupID: group.ID,
		PayerID: "alice",
		Amount:  1000,
		Shares:  map[string]money.Cents{"bob": 1000},
	}
	if err := store.CreateExpense(ctx, exp, ledger.ExpenseEffect(exp)); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	if err := store.DeleteGroup(ctx, group.ID); err != nil {
		t.Fatalf("DeleteGroup failed: %v", err)
	}

	if _, err := store.GetExpense(ctx, group.ID, exp.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetExpense after group delete error = %v, want ErrNotFound", err)
	}
	sums, err := store.SumEffects(ctx, group.ID)
	if err != nil {
		t.Fatalf("SumEffects failed: %v", err)
	}
	if len(sums) != 0 {
		t.Errorf("effects survived group deletion: %v", sums)
	}
}

func TestWrongGroupScoping(t *testing.T) {
	store := New()
	ctx := context.Background()

	g1 := &models.Group{Name: "A", OwnerID: "alice", Members: []string{"alice", "bob"}}
	g2 := &models.Group{Name: "B", OwnerID: "alice", Members: []string{"alice", "bob"}}
	for _, g := range []*models.Group{g1, g2} {
		if err := store.CreateGroup(ctx, g); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
	}

	exp := &models.Expense{
		GroupID: g1.ID,
		PayerID: "alice",
		Amount:  1000,
		Shares:  map[string]money.Cents{"bob": 1000},
	}
	if err := store.CreateExpense(ctx, exp, ledger.ExpenseEffect(exp)); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	// Lookups and deletes through the wrong group must not match.
	if _, err := store.GetExpense(ctx, g2.ID, exp.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("cross-group GetExpense error = %v, want ErrNotFound", err)
	}
	if err := store.DeleteExpense(ctx, g2.ID, exp.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("cross-group DeleteExpense error = %v, want ErrNotFound", err)
	}
}
