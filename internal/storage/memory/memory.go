// Package memory is an in-process implementation of storage.Store used for
// development and tests. Data is lost on restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"budgeteer/internal/core"
	"budgeteer/internal/storage"
)

var _ storage.Store = (*Store)(nil)

type Store struct {
	mu          sync.Mutex
	seq         int
	users       map[string]core.User
	userSeq     map[string]int
	identities  map[string]core.Identity
	categories  map[string]core.Category
	catSeq      map[string]int
	months      map[string]core.BudgetMonth
	allocations map[string]core.Allocation
}

func New() *Store {
	return &Store{
		users:       map[string]core.User{},
		userSeq:     map[string]int{},
		identities:  map[string]core.Identity{},
		categories:  map[string]core.Category{},
		catSeq:      map[string]int{},
		months:      map[string]core.BudgetMonth{},
		allocations: map[string]core.Allocation{},
	}
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

func notFound(what string) error {
	return fmt.Errorf("%s: %w", what, storage.ErrNotFound)
}

func duplicate(what string) error {
	return fmt.Errorf("%s: %w", what, storage.ErrDuplicate)
}

// Users

func (s *Store) GetUser(_ context.Context, id string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, notFound("get user")
	}
	return u, nil
}

func (s *Store) UpsertUser(_ context.Context, u core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		s.seq++
		s.userSeq[u.ID] = s.seq
	}
	s.users[u.ID] = u
	return nil
}

func (s *Store) UpdateCurrency(_ context.Context, userID, currency string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return notFound("update currency")
	}
	u.Currency = currency
	s.users[userID] = u
	return nil
}

func (s *Store) ListUsers(context.Context) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return s.userSeq[out[i].ID] < s.userSeq[out[j].ID] })
	return out, nil
}

// Categories

func (s *Store) ListCategories(_ context.Context, userID string) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.categoriesOf(userID), nil
}

func (s *Store) categoriesOf(userID string) []core.Category {
	var out []core.Category
	for _, c := range s.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return s.catSeq[out[i].ID] < s.catSeq[out[j].ID]
	})
	return out
}

func (s *Store) GetCategory(_ context.Context, userID, id string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok || c.UserID != userID {
		return core.Category{}, notFound("get category")
	}
	return c, nil
}

func (s *Store) MaxSortOrder(_ context.Context, userID string) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	max, found := 0, false
	for _, c := range s.categories {
		if c.UserID != userID {
			continue
		}
		if !found || c.SortOrder > max {
			max, found = c.SortOrder, true
		}
	}
	return max, found, nil
}

func (s *Store) nameTaken(userID, name, exceptID string) bool {
	for _, c := range s.categories {
		if c.UserID == userID && c.Name == name && c.ID != exceptID {
			return true
		}
	}
	return false
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[c.ID]; ok || s.nameTaken(c.UserID, c.Name, "") {
		return duplicate("create category")
	}
	s.insertCategory(c)
	return nil
}

func (s *Store) insertCategory(c core.Category) {
	s.seq++
	s.catSeq[c.ID] = s.seq
	s.categories[c.ID] = c
}

func (s *Store) EnsureCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nameTaken(c.UserID, c.Name, "") {
		return nil
	}
	s.insertCategory(c)
	return nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.categories[c.ID]
	if !ok || cur.UserID != c.UserID {
		return notFound("update category")
	}
	if s.nameTaken(c.UserID, c.Name, c.ID) {
		return duplicate("update category")
	}
	cur.Name, cur.Color = c.Name, c.Color
	s.categories[c.ID] = cur
	return nil
}

func (s *Store) DeleteCategory(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok || c.UserID != userID {
		return notFound("delete category")
	}
	delete(s.categories, id)
	for aid, a := range s.allocations {
		if a.CategoryID == id {
			delete(s.allocations, aid)
		}
	}
	return nil
}

func (s *Store) ReorderCategories(_ context.Context, userID string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if c, ok := s.categories[id]; !ok || c.UserID != userID {
			return notFound("reorder category " + id)
		}
	}
	for i, id := range ids {
		c := s.categories[id]
		c.SortOrder = i
		s.categories[id] = c
	}
	return nil
}

// Months

func (s *Store) GetMonth(_ context.Context, userID, id string) (core.BudgetMonth, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.months[id]
	if !ok || m.UserID != userID {
		return core.BudgetMonth{}, notFound("get month")
	}
	return m, nil
}

func (s *Store) FindMonth(_ context.Context, userID string, ym core.YearMonth) (core.BudgetMonth, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.months {
		if m.UserID == userID && m.Key() == ym {
			return m, nil
		}
	}
	return core.BudgetMonth{}, notFound("find month " + ym.String())
}

func (s *Store) LatestMonthBefore(_ context.Context, userID string, ym core.YearMonth) (core.BudgetMonth, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var (
		best  core.BudgetMonth
		found bool
	)
	for _, m := range s.months {
		if m.UserID != userID || !m.Key().Before(ym) {
			continue
		}
		if !found || best.Key().Before(m.Key()) {
			best, found = m, true
		}
	}
	if !found {
		return core.BudgetMonth{}, notFound("latest month before " + ym.String())
	}
	return best, nil
}

func (s *Store) ListMonths(_ context.Context, userID string) ([]core.BudgetMonth, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.BudgetMonth
	for _, m := range s.months {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key().Before(out[j].Key()) })
	return out, nil
}

func (s *Store) CreateMonth(_ context.Context, m core.BudgetMonth) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.months[m.ID]; ok {
		return duplicate("create month")
	}
	for _, existing := range s.months {
		if existing.UserID == m.UserID && existing.Key() == m.Key() {
			return duplicate("create month")
		}
	}
	s.months[m.ID] = m
	return nil
}

func (s *Store) UpdateMonth(_ context.Context, m core.BudgetMonth) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.months[m.ID]
	if !ok || cur.UserID != m.UserID {
		return notFound("update month")
	}
	cur.Income, cur.SavingsRate, cur.AdjustmentReason = m.Income, m.SavingsRate, m.AdjustmentReason
	s.months[m.ID] = cur
	return nil
}

// Allocations

func (s *Store) details(match func(core.Allocation) bool) []core.AllocationDetail {
	var out []core.AllocationDetail
	for _, a := range s.allocations {
		if !match(a) {
			continue
		}
		c := s.categories[a.CategoryID]
		out = append(out, core.AllocationDetail{
			Allocation:    a,
			CategoryName:  c.Name,
			CategoryColor: c.Color,
			IsSavings:     c.IsSavings,
			SortOrder:     c.SortOrder,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		mi, mj := s.months[out[i].BudgetMonthID].Key(), s.months[out[j].BudgetMonthID].Key()
		if mi != mj {
			return mi.Before(mj)
		}
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].CategoryName < out[j].CategoryName
	})
	return out
}

func (s *Store) ListAllocations(_ context.Context, monthID string) ([]core.AllocationDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.details(func(a core.Allocation) bool { return a.BudgetMonthID == monthID }), nil
}

func (s *Store) ListUserAllocations(_ context.Context, userID string) ([]core.AllocationDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.details(func(a core.Allocation) bool { return s.months[a.BudgetMonthID].UserID == userID }), nil
}

func (s *Store) GetAllocation(_ context.Context, userID, id string) (core.Allocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.allocations[id]
	if !ok || s.months[a.BudgetMonthID].UserID != userID {
		return core.Allocation{}, notFound("get allocation")
	}
	return a, nil
}

func (s *Store) upsert(a core.Allocation) error {
	if _, ok := s.months[a.BudgetMonthID]; !ok {
		return fmt.Errorf("upsert allocation: unknown month %s", a.BudgetMonthID)
	}
	if _, ok := s.categories[a.CategoryID]; !ok {
		return fmt.Errorf("upsert allocation: unknown category %s", a.CategoryID)
	}
	for id, existing := range s.allocations {
		if existing.BudgetMonthID == a.BudgetMonthID && existing.CategoryID == a.CategoryID {
			existing.Amount = a.Amount
			s.allocations[id] = existing
			return nil
		}
	}
	s.allocations[a.ID] = a
	return nil
}

func (s *Store) UpsertAllocation(_ context.Context, a core.Allocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsert(a)
}

func (s *Store) UpsertAllocations(_ context.Context, items []core.Allocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make(map[string]core.Allocation, len(s.allocations))
	for k, v := range s.allocations {
		snapshot[k] = v
	}
	for _, a := range items {
		if err := s.upsert(a); err != nil {
			s.allocations = snapshot
			return err
		}
	}
	return nil
}

func (s *Store) DeleteAllocation(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.allocations[id]; !ok {
		return notFound("delete allocation")
	}
	delete(s.allocations, id)
	return nil
}

func (s *Store) DeleteAllocationFor(_ context.Context, monthID, categoryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, a := range s.allocations {
		if a.BudgetMonthID == monthID && a.CategoryID == categoryID {
			delete(s.allocations, id)
		}
	}
	return nil
}

// Identities

func (s *Store) CreateIdentity(_ context.Context, id core.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id.Email = strings.ToLower(id.Email)
	for _, existing := range s.identities {
		if existing.Email == id.Email {
			return duplicate("create identity")
		}
	}
	if _, ok := s.identities[id.ID]; ok {
		return duplicate("create identity")
	}
	s.identities[id.ID] = id
	return nil
}

func (s *Store) IdentityByID(_ context.Context, id string) (core.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ident, ok := s.identities[id]
	if !ok {
		return core.Identity{}, notFound("get identity")
	}
	return ident, nil
}

func (s *Store) IdentityByEmail(_ context.Context, email string) (core.Identity, error) {
	return s.findIdentity("get identity by email", func(i core.Identity) bool {
		return i.Email == strings.ToLower(email)
	})
}

func (s *Store) IdentityByResetToken(_ context.Context, tokenHash string) (core.Identity, error) {
	return s.findIdentity("get identity by reset token", func(i core.Identity) bool {
		return tokenHash != "" && i.ResetTokenHash == tokenHash
	})
}

func (s *Store) findIdentity(op string, match func(core.Identity) bool) (core.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, i := range s.identities {
		if match(i) {
			return i, nil
		}
	}
	return core.Identity{}, notFound(op)
}

func (s *Store) UpdateIdentity(_ context.Context, id core.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.identities[id.ID]
	if !ok {
		return notFound("update identity")
	}
	cur.PasswordHash = id.PasswordHash
	cur.TokenVersion = id.TokenVersion
	cur.ResetTokenHash = id.ResetTokenHash
	cur.ResetExpiresAt = id.ResetExpiresAt
	s.identities[id.ID] = cur
	return nil
}
