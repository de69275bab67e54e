package service

import (
	"context"
	"log/slog"

	"github.com/splitpot/splitpot/internal/ledger"
	"github.com/splitpot/splitpot/internal/models"
	"github.com/splitpot/splitpot/internal/storage"
)

// SettlementService records and removes settlements between members.
type SettlementService struct {
	store   storage.Store
	mutator *ledger.Mutator
}

// NewSettlementService creates a new SettlementService with the given storage backend.
func NewSettlementService(store storage.Store) *SettlementService {
	return &SettlementService{
		store:   store,
		mutator: ledger.NewMutator(store),
	}
}

// AddSettlement records a payment between two members. Any group member may
// record one.
func (s *SettlementService) AddSettlement(ctx context.Context, userID string, settlement *models.Settlement) error {
	group, err := s.store.GetGroup(ctx, settlement.GroupID)
	if err != nil {
		return err
	}
	if !group.HasMember(userID) {
		return ErrNotMember
	}
	settlement.CreatedBy = userID

	if err := s.mutator.ApplySettlement(ctx, settlement); err != nil {
		slog.Warn("add settlement failed", "group_id", settlement.GroupID, "error", err)
		return err
	}

	slog.Info("settlement recorded",
		"group_id", settlement.GroupID,
		"settlement_id", settlement.ID,
		"from", settlement.FromUserID,
		"to", settlement.ToUserID,
		"amount", settlement.Amount.String(),
	)
	return nil
}

// DeleteSettlement removes a settlement, reversing the exact deltas applied
// when it was created. Only the payer or the group owner may delete.
func (s *SettlementService) DeleteSettlement(ctx context.Context, userID, groupID, settlementID string) error {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	settlement, err := s.store.GetSettlement(ctx, groupID, settlementID)
	if err != nil {
		return err
	}
	if userID != settlement.FromUserID && userID != group.OwnerID {
		return ErrPermissionDenied
	}

	if err := s.mutator.ReverseSettlement(ctx, groupID, settlementID); err != nil {
		slog.Warn("delete settlement failed", "settlement_id", settlementID, "error", err)
		return err
	}

	slog.Info("settlement deleted", "group_id", groupID, "settlement_id", settlementID)
	return nil
}

// ListSettlements retrieves all settlements for a group, newest first.
// Requester must be a group member.
func (s *SettlementService) ListSettlements(ctx context.Context, userID, groupID string) ([]*models.Settlement, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(userID) {
		return nil, ErrNotMember
	}
	return s.store.ListSettlementsByGroup(ctx, groupID)
}
