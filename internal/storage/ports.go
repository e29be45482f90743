package storage

import (
	"context"
	"errors"

	"budgeteer/internal/core"
)

var (
	// ErrNotFound is returned when a row is missing or not owned by the caller.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned on unique constraint violations.
	ErrDuplicate = errors.New("duplicate entry")
)

// Ports implemented by the SQL repository and the memory store. Every read and
// write that takes a userID is scoped to rows owned by that user.
type (
	UserStore interface {
		GetUser(ctx context.Context, id string) (core.User, error)
		UpsertUser(ctx context.Context, u core.User) error
		UpdateCurrency(ctx context.Context, userID, currency string) error
		ListUsers(ctx context.Context) ([]core.User, error)
	}

	CategoryStore interface {
		ListCategories(ctx context.Context, userID string) ([]core.Category, error)
		GetCategory(ctx context.Context, userID, id string) (core.Category, error)
		// MaxSortOrder reports the highest sort order, ok=false when the user has no categories.
		MaxSortOrder(ctx context.Context, userID string) (max int, ok bool, err error)
		CreateCategory(ctx context.Context, c core.Category) error
		// EnsureCategory inserts c unless a category with the same name already exists.
		EnsureCategory(ctx context.Context, c core.Category) error
		UpdateCategory(ctx context.Context, c core.Category) error
		DeleteCategory(ctx context.Context, userID, id string) error
		// ReorderCategories sets sort order to each id's index, all or nothing.
		ReorderCategories(ctx context.Context, userID string, ids []string) error
	}

	MonthStore interface {
		GetMonth(ctx context.Context, userID, id string) (core.BudgetMonth, error)
		FindMonth(ctx context.Context, userID string, ym core.YearMonth) (core.BudgetMonth, error)
		// LatestMonthBefore returns the most recent month strictly before ym.
		LatestMonthBefore(ctx context.Context, userID string, ym core.YearMonth) (core.BudgetMonth, error)
		// ListMonths returns months oldest first.
		ListMonths(ctx context.Context, userID string) ([]core.BudgetMonth, error)
		CreateMonth(ctx context.Context, m core.BudgetMonth) error
		UpdateMonth(ctx context.Context, m core.BudgetMonth) error
	}

	AllocationStore interface {
		// ListAllocations returns a month's allocations joined with categories, by sort order.
		ListAllocations(ctx context.Context, monthID string) ([]core.AllocationDetail, error)
		ListUserAllocations(ctx context.Context, userID string) ([]core.AllocationDetail, error)
		GetAllocation(ctx context.Context, userID, id string) (core.Allocation, error)
		// UpsertAllocation inserts or updates by (month, category).
		UpsertAllocation(ctx context.Context, a core.Allocation) error
		// UpsertAllocations applies every item in one transaction.
		UpsertAllocations(ctx context.Context, items []core.Allocation) error
		DeleteAllocation(ctx context.Context, id string) error
		DeleteAllocationFor(ctx context.Context, monthID, categoryID string) error
	}

	IdentityStore interface {
		CreateIdentity(ctx context.Context, id core.Identity) error
		IdentityByID(ctx context.Context, id string) (core.Identity, error)
		IdentityByEmail(ctx context.Context, email string) (core.Identity, error)
		IdentityByResetToken(ctx context.Context, tokenHash string) (core.Identity, error)
		UpdateIdentity(ctx context.Context, id core.Identity) error
	}

	// Store is the full persistence surface.
	Store interface {
		UserStore
		CategoryStore
		MonthStore
		AllocationStore
		IdentityStore
		Ping(ctx context.Context) error
		Close() error
	}
)
