package service

import (
	"context"
	"log/slog"

	"github.com/splitpot/splitpot/internal/ledger"
	"github.com/splitpot/splitpot/internal/models"
	"github.com/splitpot/splitpot/internal/money"
	"github.com/splitpot/splitpot/internal/storage"
)

// GroupService manages groups and exposes the read-only ledger views.
type GroupService struct {
	store   storage.Store
	queries *ledger.Queries
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{
		store:   store,
		queries: ledger.NewQueries(store),
	}
}

// CreateGroup creates a new group owned by the requester. The owner is
// always a member; every member starts at a zero balance.
func (s *GroupService) CreateGroup(ctx context.Context, ownerID, name string, members []string) (*models.Group, error) {
	group := &models.Group{
		Name:    name,
		OwnerID: ownerID,
		Members: members,
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("create group failed", "error", err)
		return nil, err
	}

	slog.Info("group created", "group_id", group.ID, "owner_id", ownerID)
	return group, nil
}

// GetGroup retrieves a group. The requester must be a member.
func (s *GroupService) GetGroup(ctx context.Context, userID, groupID string) (*models.Group, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(userID) {
		return nil, ErrNotMember
	}
	return group, nil
}

// ListGroups retrieves all groups the requester belongs to.
func (s *GroupService) ListGroups(ctx context.Context, userID string) ([]*models.Group, error) {
	return s.store.ListGroupsByMember(ctx, userID)
}

// AddMembers adds members to a group. Any existing member may add new ones.
func (s *GroupService) AddMembers(ctx context.Context, userID, groupID string, memberIDs []string) (*models.Group, error) {
	if _, err := s.GetGroup(ctx, userID, groupID); err != nil {
		return nil, err
	}
	if err := s.store.AddGroupMembers(ctx, groupID, memberIDs); err != nil {
		slog.Error("add members failed", "group_id", groupID, "error", err)
		return nil, err
	}
	slog.Info("members added", "group_id", groupID, "members", memberIDs)
	return s.store.GetGroup(ctx, groupID)
}

// RemoveMember removes a member from a group. Only the group owner or the
// member themselves may remove; removal is blocked while the member's
// balance is nonzero (storage.ErrMemberHasBalance).
func (s *GroupService) RemoveMember(ctx context.Context, userID, groupID, memberID string) error {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if userID != group.OwnerID && userID != memberID {
		return ErrPermissionDenied
	}
	if err := s.store.RemoveGroupMember(ctx, groupID, memberID); err != nil {
		slog.Warn("remove member failed", "group_id", groupID, "member_id", memberID, "error", err)
		return err
	}
	slog.Info("member removed", "group_id", groupID, "member_id", memberID)
	return nil
}

// DeleteGroup removes a group and all its ledger state. Owner only.
func (s *GroupService) DeleteGroup(ctx context.Context, userID, groupID string) error {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if userID != group.OwnerID {
		return ErrPermissionDenied
	}
	if err := s.store.DeleteGroup(ctx, groupID); err != nil {
		return err
	}
	slog.Info("group deleted", "group_id", groupID)
	return nil
}

// Balances returns every member's current net balance. Requester must be a
// member.
func (s *GroupService) Balances(ctx context.Context, userID, groupID string) (map[string]money.Cents, error) {
	if _, err := s.GetGroup(ctx, userID, groupID); err != nil {
		return nil, err
	}
	return s.queries.GroupBalances(ctx, groupID)
}

// MemberBalance returns one member's current net balance. Requester must be
// a member.
func (s *GroupService) MemberBalance(ctx context.Context, userID, groupID, memberID string) (money.Cents, error) {
	if _, err := s.GetGroup(ctx, userID, groupID); err != nil {
		return 0, err
	}
	return s.queries.MemberBalance(ctx, groupID, memberID)
}

// SimplifiedDebts returns the settlement plan for the group's current
// balances. Requester must be a member.
func (s *GroupService) SimplifiedDebts(ctx context.Context, userID, groupID string) ([]ledger.Transfer, error) {
	if _, err := s.GetGroup(ctx, userID, groupID); err != nil {
		return nil, err
	}
	return s.queries.SimplifiedDebts(ctx, groupID)
}
