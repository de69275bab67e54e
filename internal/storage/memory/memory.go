// Package memory provides an in-memory implementation of storage.Store,
// used in tests and for running the server without a database file.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/splitpot/splitpot/internal/ledger"
	"github.com/splitpot/splitpot/internal/models"
	"github.com/splitpot/splitpot/internal/money"
	"github.com/splitpot/splitpot/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store implements storage.Store with in-process maps. A single mutex spans
// every effect application, which trivially satisfies the atomicity
// requirement: no partial effect is ever observable.
type Store struct {
	mu sync.RWMutex

	users        map[string]*models.User
	usersByEmail map[string]string

	groups map[string]*models.Group

	expenses    map[string]*models.Expense
	settlements map[string]*models.Settlement

	// balances[groupID][memberID] = running balance
	balances map[string]map[string]money.Cents

	// effects[txID] = deltas persisted when the transaction was created
	effects map[string]ledger.Effect
	// effectGroup[txID] = owning group, for reconciliation sums
	effectGroup map[string]string
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		users:        make(map[string]*models.User),
		usersByEmail: make(map[string]string),
		groups:       make(map[string]*models.Group),
		expenses:     make(map[string]*models.Expense),
		settlements:  make(map[string]*models.Settlement),
		balances:     make(map[string]map[string]money.Cents),
		effects:      make(map[string]ledger.Effect),
		effectGroup:  make(map[string]string),
	}
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error { return nil }

// Users

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if _, exists := s.usersByEmail[user.Email]; exists {
		return fmt.Errorf("user %s already exists", user.Email)
	}
	u := *user
	s.users[u.ID] = &u
	s.usersByEmail[u.Email] = u.ID
	return nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByEmail[email]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", email, storage.ErrNotFound)
	}
	u := *s.users[id]
	return &u, nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	u := *user
	return &u, nil
}

// Groups

func (s *Store) CreateGroup(_ context.Context, group *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}
	if !group.HasMember(group.OwnerID) {
		group.Members = append(group.Members, group.OwnerID)
	}
	s.groups[group.ID] = copyGroup(group)
	s.balances[group.ID] = make(map[string]money.Cents)
	return nil
}

func (s *Store) GetGroup(_ context.Context, groupID string) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getGroupLocked(groupID)
}

func (s *Store) getGroupLocked(groupID string) (*models.Group, error) {
	group, ok := s.groups[groupID]
	if !ok {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	return copyGroup(group), nil
}

func (s *Store) ListGroupsByMember(_ context.Context, memberID string) ([]*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var groups []*models.Group
	for _, g := range s.groups {
		if g.HasMember(memberID) {
			groups = append(groups, copyGroup(g))
		}
	}
	return groups, nil
}

func (s *Store) AddGroupMembers(_ context.Context, groupID string, memberIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	group, ok := s.groups[groupID]
	if !ok {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	for _, m := range memberIDs {
		if !group.HasMember(m) {
			group.Members = append(group.Members, m)
		}
	}
	return nil
}

func (s *Store) RemoveGroupMember(_ context.Context, groupID, memberID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	group, ok := s.groups[groupID]
	if !ok {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if s.balances[groupID][memberID] != 0 {
		return fmt.Errorf("member %s: %w", memberID, storage.ErrMemberHasBalance)
	}
	for i, m := range group.Members {
		if m == memberID {
			group.Members = append(group.Members[:i], group.Members[i+1:]...)
			delete(s.balances[groupID], memberID)
			return nil
		}
	}
	return fmt.Errorf("member %s: %w", memberID, storage.ErrNotFound)
}

func (s *Store) DeleteGroup(_ context.Context, groupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[groupID]; !ok {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	delete(s.groups, groupID)
	delete(s.balances, groupID)
	for id, e := range s.expenses {
		if e.GroupID == groupID {
			delete(s.expenses, id)
			delete(s.effects, id)
			delete(s.effectGroup, id)
		}
	}
	for id, st := range s.settlements {
		if st.GroupID == groupID {
			delete(s.settlements, id)
			delete(s.effects, id)
			delete(s.effectGroup, id)
		}
	}
	return nil
}

// Ledger

func (s *Store) GetBalance(_ context.Context, groupID, memberID string) (money.Cents, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[groupID][memberID], nil
}

func (s *Store) ListBalances(_ context.Context, groupID string) (map[string]money.Cents, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	group, ok := s.groups[groupID]
	if !ok {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}

	snapshot := make(map[string]money.Cents, len(group.Members))
	for _, m := range group.Members {
		snapshot[m] = s.balances[groupID][m]
	}
	return snapshot, nil
}

func (s *Store) applyEffectLocked(txID, groupID string, effect ledger.Effect) {
	if s.balances[groupID] == nil {
		s.balances[groupID] = make(map[string]money.Cents)
	}
	for _, d := range effect {
		s.balances[groupID][d.MemberID] += d.Amount
	}
	stored := make(ledger.Effect, len(effect))
	copy(stored, effect)
	s.effects[txID] = stored
	s.effectGroup[txID] = groupID
}

func (s *Store) reverseEffectLocked(txID, groupID string) {
	for _, d := range s.effects[txID] {
		s.balances[groupID][d.MemberID] -= d.Amount
	}
	delete(s.effects, txID)
	delete(s.effectGroup, txID)
}

// Expenses

func (s *Store) CreateExpense(_ context.Context, exp *models.Expense, effect ledger.Effect) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[exp.GroupID]; !ok {
		return fmt.Errorf("group %s: %w", exp.GroupID, storage.ErrNotFound)
	}
	if exp.ID == "" {
		exp.ID = uuid.New().String()
	}
	if exp.CreatedAt == 0 {
		exp.CreatedAt = time.Now().Unix()
	}
	s.expenses[exp.ID] = copyExpense(exp)
	s.applyEffectLocked(exp.ID, exp.GroupID, effect)
	return nil
}

func (s *Store) UpdateExpense(_ context.Context, exp *models.Expense, effect ledger.Effect) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.expenses[exp.ID]
	if !ok || old.GroupID != exp.GroupID {
		return fmt.Errorf("expense %s: %w", exp.ID, storage.ErrNotFound)
	}
	exp.CreatedAt = old.CreatedAt
	exp.CreatedBy = old.CreatedBy
	s.reverseEffectLocked(exp.ID, exp.GroupID)
	s.expenses[exp.ID] = copyExpense(exp)
	s.applyEffectLocked(exp.ID, exp.GroupID, effect)
	return nil
}

func (s *Store) DeleteExpense(_ context.Context, groupID, expenseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.expenses[expenseID]
	if !ok || exp.GroupID != groupID {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	s.reverseEffectLocked(expenseID, groupID)
	delete(s.expenses, expenseID)
	return nil
}

func (s *Store) GetExpense(_ context.Context, groupID, expenseID string) (*models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exp, ok := s.expenses[expenseID]
	if !ok || exp.GroupID != groupID {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return copyExpense(exp), nil
}

func (s *Store) ListExpensesByGroup(_ context.Context, groupID string) ([]*models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var expenses []*models.Expense
	for _, e := range s.expenses {
		if e.GroupID == groupID {
			expenses = append(expenses, copyExpense(e))
		}
	}
	return expenses, nil
}

// Settlements

func (s *Store) CreateSettlement(_ context.Context, settlement *models.Settlement, effect ledger.Effect) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[settlement.GroupID]; !ok {
		return fmt.Errorf("group %s: %w", settlement.GroupID, storage.ErrNotFound)
	}
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.CreatedAt == 0 {
		settlement.CreatedAt = time.Now().Unix()
	}
	st := *settlement
	s.settlements[st.ID] = &st
	s.applyEffectLocked(st.ID, st.GroupID, effect)
	return nil
}

func (s *Store) DeleteSettlement(_ context.Context, groupID, settlementID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	settlement, ok := s.settlements[settlementID]
	if !ok || settlement.GroupID != groupID {
		return fmt.Errorf("settlement %s: %w", settlementID, storage.ErrNotFound)
	}
	s.reverseEffectLocked(settlementID, groupID)
	delete(s.settlements, settlementID)
	return nil
}

func (s *Store) GetSettlement(_ context.Context, groupID, settlementID string) (*models.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settlement, ok := s.settlements[settlementID]
	if !ok || settlement.GroupID != groupID {
		return nil, fmt.Errorf("settlement %s: %w", settlementID, storage.ErrNotFound)
	}
	st := *settlement
	return &st, nil
}

func (s *Store) ListSettlementsByGroup(_ context.Context, groupID string) ([]*models.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var settlements []*models.Settlement
	for _, settlement := range s.settlements {
		if settlement.GroupID == groupID {
			st := *settlement
			settlements = append(settlements, &st)
		}
	}
	return settlements, nil
}

// Reconciliation

func (s *Store) SumEffects(_ context.Context, groupID string) (map[string]money.Cents, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sums := make(map[string]money.Cents)
	for txID, g := range s.effectGroup {
		if g != groupID {
			continue
		}
		for _, d := range s.effects[txID] {
			sums[d.MemberID] += d.Amount
		}
	}
	for m, sum := range sums {
		if sum == 0 {
			delete(sums, m)
		}
	}
	return sums, nil
}

func (s *Store) ReplaceBalances(_ context.Context, groupID string, balances map[string]money.Cents) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fresh := make(map[string]money.Cents, len(balances))
	for m, b := range balances {
		fresh[m] = b
	}
	s.balances[groupID] = fresh
	return nil
}

func copyGroup(g *models.Group) *models.Group {
	cp := *g
	cp.Members = append([]string(nil), g.Members...)
	return &cp
}

func copyExpense(e *models.Expense) *models.Expense {
	cp := *e
	cp.Shares = make(map[string]money.Cents, len(e.Shares))
	for m, share := range e.Shares {
		cp.Shares[m] = share
	}
	return &cp
}
