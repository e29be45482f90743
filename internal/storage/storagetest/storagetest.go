// Package storagetest holds behaviour checks shared by every storage.Store implementation.
package storagetest

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgeteer/internal/core"
	"budgeteer/internal/storage"
)

// Run exercises newStore against the storage contract. Each subtest gets a fresh store.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("categories", func(t *testing.T) { testCategories(t, newStore(t)) })
	t.Run("reorder is atomic", func(t *testing.T) { testReorder(t, newStore(t)) })
	t.Run("months", func(t *testing.T) { testMonths(t, newStore(t)) })
	t.Run("allocations", func(t *testing.T) { testAllocations(t, newStore(t)) })
	t.Run("identities", func(t *testing.T) { testIdentities(t, newStore(t)) })
}

func user(t *testing.T, s storage.Store) core.User {
	t.Helper()
	u := core.User{ID: uuid.NewString(), Email: uuid.NewString()[:8] + "@example.com", Currency: "SLE"}
	require.NoError(t, s.UpsertUser(context.Background(), u))
	return u
}

func category(t *testing.T, s storage.Store, userID, name string, sort int, savings bool) core.Category {
	t.Helper()
	c := core.Category{ID: uuid.NewString(), UserID: userID, Name: name, Color: "#112233", SortOrder: sort, IsSavings: savings}
	require.NoError(t, s.CreateCategory(context.Background(), c))
	return c
}

func month(t *testing.T, s storage.Store, userID string, year, m int, income string) core.BudgetMonth {
	t.Helper()
	bm := core.BudgetMonth{
		ID: uuid.NewString(), UserID: userID, Year: year, Month: m,
		Income: decimal.RequireFromString(income), SavingsRate: decimal.RequireFromString("0.2"),
	}
	require.NoError(t, s.CreateMonth(context.Background(), bm))
	return bm
}

func testUsers(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u := user(t, s)

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u, got)

	require.NoError(t, s.UpdateCurrency(ctx, u.ID, "USD"))
	got, err = s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "USD", got.Currency)

	u.Currency = "EUR"
	require.NoError(t, s.UpsertUser(ctx, u))
	got, _ = s.GetUser(ctx, u.ID)
	assert.Equal(t, "EUR", got.Currency)

	_, err = s.GetUser(ctx, uuid.NewString())
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, s.UpdateCurrency(ctx, uuid.NewString(), "USD"), storage.ErrNotFound)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func testCategories(t *testing.T, s storage.Store) {
	ctx := context.Background()
	alice, bob := user(t, s), user(t, s)

	_, ok, err := s.MaxSortOrder(ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	rent := category(t, s, alice.ID, "Rent", 1, false)
	category(t, s, alice.ID, "Savings", 0, true)
	category(t, s, bob.ID, "Rent", 0, false)

	max, ok, err := s.MaxSortOrder(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, max)

	err = s.CreateCategory(ctx, core.Category{ID: uuid.NewString(), UserID: alice.ID, Name: "Rent", Color: "#000000"})
	assert.ErrorIs(t, err, storage.ErrDuplicate)

	list, err := s.ListCategories(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Savings", list[0].Name)
	assert.True(t, list[0].IsSavings)
	assert.Equal(t, "Rent", list[1].Name)

	_, err = s.GetCategory(ctx, bob.ID, rent.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.EnsureCategory(ctx, core.Category{ID: uuid.NewString(), UserID: alice.ID, Name: "Rent", Color: "#ffffff"}))
	list, _ = s.ListCategories(ctx, alice.ID)
	assert.Len(t, list, 2)

	rent.Name, rent.Color = "Housing", "#abcdef"
	require.NoError(t, s.UpdateCategory(ctx, rent))
	got, err := s.GetCategory(ctx, alice.ID, rent.ID)
	require.NoError(t, err)
	assert.Equal(t, "Housing", got.Name)
	assert.Equal(t, "#abcdef", got.Color)

	rent.Name = "Savings"
	assert.ErrorIs(t, s.UpdateCategory(ctx, rent), storage.ErrDuplicate)

	stranger := rent
	stranger.UserID = bob.ID
	assert.ErrorIs(t, s.UpdateCategory(ctx, stranger), storage.ErrNotFound)
	assert.ErrorIs(t, s.DeleteCategory(ctx, bob.ID, rent.ID), storage.ErrNotFound)

	require.NoError(t, s.DeleteCategory(ctx, alice.ID, rent.ID))
	_, err = s.GetCategory(ctx, alice.ID, rent.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testReorder(t *testing.T, s storage.Store) {
	ctx := context.Background()
	alice, bob := user(t, s), user(t, s)
	a := category(t, s, alice.ID, "A", 0, false)
	b := category(t, s, alice.ID, "B", 1, false)
	c := category(t, s, alice.ID, "C", 2, false)
	foreign := category(t, s, bob.ID, "X", 0, false)

	err := s.ReorderCategories(ctx, alice.ID, []string{c.ID, foreign.ID, a.ID})
	assert.ErrorIs(t, err, storage.ErrNotFound)
	list, _ := s.ListCategories(ctx, alice.ID)
	assert.Equal(t, []string{"A", "B", "C"}, names(list))

	require.NoError(t, s.ReorderCategories(ctx, alice.ID, []string{c.ID, a.ID, b.ID}))
	list, _ = s.ListCategories(ctx, alice.ID)
	assert.Equal(t, []string{"C", "A", "B"}, names(list))
	assert.Equal(t, 0, list[0].SortOrder)
	assert.Equal(t, 2, list[2].SortOrder)
}

func names(cs []core.Category) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}

func testMonths(t *testing.T, s storage.Store) {
	ctx := context.Background()
	alice, bob := user(t, s), user(t, s)

	jan := month(t, s, alice.ID, 2025, 1, "1000")
	month(t, s, alice.ID, 2024, 11, "900")
	month(t, s, bob.ID, 2025, 2, "5")

	dup := jan
	dup.ID = uuid.NewString()
	assert.ErrorIs(t, s.CreateMonth(ctx, dup), storage.ErrDuplicate)

	got, err := s.FindMonth(ctx, alice.ID, core.YearMonth{Year: 2025, Month: 1})
	require.NoError(t, err)
	assert.Equal(t, jan.ID, got.ID)
	assert.True(t, got.Income.Equal(decimal.NewFromInt(1000)))
	assert.True(t, got.SavingsRate.Equal(decimal.RequireFromString("0.2")))

	latest, err := s.LatestMonthBefore(ctx, alice.ID, core.YearMonth{Year: 2025, Month: 3})
	require.NoError(t, err)
	assert.Equal(t, jan.ID, latest.ID)
	latest, err = s.LatestMonthBefore(ctx, alice.ID, core.YearMonth{Year: 2025, Month: 1})
	require.NoError(t, err)
	assert.Equal(t, 2024, latest.Year)
	_, err = s.LatestMonthBefore(ctx, alice.ID, core.YearMonth{Year: 2024, Month: 11})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	list, err := s.ListMonths(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 2024, list[0].Year)

	jan.Income = decimal.RequireFromString("1234.56")
	jan.SavingsRate = decimal.RequireFromString("0.1")
	jan.AdjustmentReason = "car broke down"
	require.NoError(t, s.UpdateMonth(ctx, jan))
	got, err = s.GetMonth(ctx, alice.ID, jan.ID)
	require.NoError(t, err)
	assert.True(t, got.Income.Equal(decimal.RequireFromString("1234.56")))
	assert.Equal(t, "car broke down", got.AdjustmentReason)

	_, err = s.GetMonth(ctx, bob.ID, jan.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	jan.UserID = bob.ID
	assert.ErrorIs(t, s.UpdateMonth(ctx, jan), storage.ErrNotFound)
}

func testAllocations(t *testing.T, s storage.Store) {
	ctx := context.Background()
	alice, bob := user(t, s), user(t, s)
	food := category(t, s, alice.ID, "Food", 1, false)
	fun := category(t, s, alice.ID, "Fun", 2, false)
	jan := month(t, s, alice.ID, 2025, 1, "1000")
	feb := month(t, s, alice.ID, 2025, 2, "1000")

	first := core.Allocation{ID: uuid.NewString(), BudgetMonthID: jan.ID, CategoryID: fun.ID, Amount: decimal.NewFromInt(50)}
	require.NoError(t, s.UpsertAllocation(ctx, first))
	require.NoError(t, s.UpsertAllocation(ctx, core.Allocation{
		ID: uuid.NewString(), BudgetMonthID: jan.ID, CategoryID: food.ID, Amount: decimal.NewFromInt(200),
	}))
	// second write for the same (month, category) updates in place
	require.NoError(t, s.UpsertAllocation(ctx, core.Allocation{
		ID: uuid.NewString(), BudgetMonthID: jan.ID, CategoryID: fun.ID, Amount: decimal.RequireFromString("75.5"),
	}))

	list, err := s.ListAllocations(ctx, jan.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Food", list[0].CategoryName)
	assert.Equal(t, first.ID, list[1].ID)
	assert.True(t, list[1].Amount.Equal(decimal.RequireFromString("75.5")))

	got, err := s.GetAllocation(ctx, alice.ID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, jan.ID, got.BudgetMonthID)
	_, err = s.GetAllocation(ctx, bob.ID, first.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.UpsertAllocations(ctx, []core.Allocation{
		{ID: uuid.NewString(), BudgetMonthID: feb.ID, CategoryID: food.ID, Amount: decimal.NewFromInt(1)},
		{ID: uuid.NewString(), BudgetMonthID: feb.ID, CategoryID: fun.ID, Amount: decimal.NewFromInt(2)},
	}))
	all, err := s.ListUserAllocations(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, jan.ID, all[0].BudgetMonthID)

	require.NoError(t, s.DeleteAllocationFor(ctx, feb.ID, fun.ID))
	require.NoError(t, s.DeleteAllocationFor(ctx, feb.ID, fun.ID))
	febList, _ := s.ListAllocations(ctx, feb.ID)
	assert.Len(t, febList, 1)

	require.NoError(t, s.DeleteAllocation(ctx, first.ID))
	assert.ErrorIs(t, s.DeleteAllocation(ctx, first.ID), storage.ErrNotFound)

	// deleting a category removes its allocations
	require.NoError(t, s.DeleteCategory(ctx, alice.ID, food.ID))
	all, _ = s.ListUserAllocations(ctx, alice.ID)
	assert.Empty(t, all)
}

func testIdentities(t *testing.T, s storage.Store) {
	ctx := context.Background()
	id := core.Identity{ID: uuid.NewString(), Email: "Someone@Example.com", PasswordHash: "hash"}
	require.NoError(t, s.CreateIdentity(ctx, id))

	dup := core.Identity{ID: uuid.NewString(), Email: "someone@example.com", PasswordHash: "x"}
	assert.ErrorIs(t, s.CreateIdentity(ctx, dup), storage.ErrDuplicate)

	got, err := s.IdentityByEmail(ctx, "SOMEONE@example.com")
	require.NoError(t, err)
	assert.Equal(t, id.ID, got.ID)
	assert.Equal(t, "someone@example.com", got.Email)

	got.ResetTokenHash = "abc"
	got.TokenVersion = 3
	require.NoError(t, s.UpdateIdentity(ctx, got))
	byToken, err := s.IdentityByResetToken(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, 3, byToken.TokenVersion)

	_, err = s.IdentityByResetToken(ctx, "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.IdentityByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
