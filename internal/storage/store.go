// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/splitpot/splitpot/internal/ledger"
	"github.com/splitpot/splitpot/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrMemberHasBalance is returned when removing a group member whose ledger
// balance is nonzero. Removal is blocked rather than silently dropping the
// balance entry, which would break the zero-sum invariant.
var ErrMemberHasBalance = errors.New("member has a nonzero balance")

// Store defines the full persistence interface. It embeds the surfaces the
// ledger engine consumes directly and adds the record CRUD around them.
// This abstraction allows swapping storage backends (SQLite, in-memory)
// without changing the service layer.
//
// Implementations must satisfy two hard requirements:
//
//  1. A transaction record's create/update/delete and its ledger effect's
//     balance deltas are applied as one atomic unit. Partial application
//     must never be observable, even on failure.
//  2. The effect deltas persisted at creation time are the only thing
//     reversed at deletion time; effects are never recomputed from the
//     record's current field values.
type Store interface {
	ledger.Store
	ledger.ReconcileStore

	// Users.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// Groups. New members start with an implicit zero balance entry.
	// RemoveGroupMember fails with ErrMemberHasBalance unless the member's
	// balance is exactly zero.
	CreateGroup(ctx context.Context, group *models.Group) error
	ListGroupsByMember(ctx context.Context, memberID string) ([]*models.Group, error)
	AddGroupMembers(ctx context.Context, groupID string, memberIDs []string) error
	RemoveGroupMember(ctx context.Context, groupID, memberID string) error
	DeleteGroup(ctx context.Context, groupID string) error

	// Transaction record reads. Writes go through ledger.Store so that the
	// effect always travels with the record.
	GetExpense(ctx context.Context, groupID, expenseID string) (*models.Expense, error)
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)
	GetSettlement(ctx context.Context, groupID, settlementID string) (*models.Settlement, error)
	ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error)

	// Close releases any resources held by the store.
	Close() error
}
