package services

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"budgeteer/internal/core"
	"budgeteer/internal/log"
	"budgeteer/internal/storage"
)

// Allocations lists an owned month's allocations ordered by category sort order.
func (s *BudgetService) Allocations(ctx context.Context, userID, monthID string) ([]core.AllocationDetail, error) {
	if _, err := s.ownedMonth(ctx, userID, monthID); err != nil {
		return nil, err
	}
	list, err := s.store.ListAllocations(ctx, monthID)
	if err != nil {
		return nil, s.fail(ctx, "load allocations", err)
	}
	return list, nil
}

// SetAllocation sets the amount for (month, category). Zero removes the row;
// the savings category can never be allocated to directly.
func (s *BudgetService) SetAllocation(ctx context.Context, userID, monthID, categoryID string, amount decimal.Decimal) error {
	if err := core.Check(core.AllocationInput{Amount: amount}); err != nil {
		return err
	}
	if _, err := s.ownedMonth(ctx, userID, monthID); err != nil {
		return err
	}
	cat, err := s.ownedCategory(ctx, userID, categoryID)
	if err != nil {
		return err
	}
	if cat.IsSavings {
		return core.Invalid("Savings allocation is calculated automatically")
	}

	if amount.IsZero() {
		if err := s.store.DeleteAllocationFor(ctx, monthID, categoryID); err != nil {
			return s.fail(ctx, "update allocation", err)
		}
	} else {
		a := core.Allocation{ID: s.newID(), BudgetMonthID: monthID, CategoryID: categoryID, Amount: amount}
		if err := s.store.UpsertAllocation(ctx, a); err != nil {
			return s.fail(ctx, "update allocation", err)
		}
	}
	s.changed(ctx, userID, monthID, log.OpUpdate)
	return nil
}

// DeleteAllocation removes an allocation whose month belongs to userID.
func (s *BudgetService) DeleteAllocation(ctx context.Context, userID, allocationID string) error {
	a, err := s.store.GetAllocation(ctx, userID, allocationID)
	if errors.Is(err, storage.ErrNotFound) {
		return core.NotFound("Allocation")
	}
	if err != nil {
		return s.fail(ctx, "delete allocation", err)
	}
	if err := s.store.DeleteAllocation(ctx, a.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.NotFound("Allocation")
		}
		return s.fail(ctx, "delete allocation", err)
	}
	s.changed(ctx, userID, a.BudgetMonthID, log.OpDelete)
	return nil
}

// CopyAllocations copies every non-savings allocation of source into target in one batch.
// Both months must belong to userID. Returns the number of copied allocations.
func (s *BudgetService) CopyAllocations(ctx context.Context, userID, targetMonthID, sourceMonthID string) (int, error) {
	if _, err := s.ownedMonth(ctx, userID, targetMonthID); err != nil {
		return 0, err
	}
	if _, err := s.ownedMonth(ctx, userID, sourceMonthID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return 0, core.NotFound("Source month")
		}
		return 0, err
	}
	source, err := s.store.ListAllocations(ctx, sourceMonthID)
	if err != nil {
		return 0, s.fail(ctx, "copy allocations", err)
	}

	items := make([]core.Allocation, 0, len(source))
	for _, a := range source {
		if a.IsSavings || !a.Amount.IsPositive() {
			continue
		}
		items = append(items, core.Allocation{
			ID:            s.newID(),
			BudgetMonthID: targetMonthID,
			CategoryID:    a.CategoryID,
			Amount:        a.Amount,
		})
	}
	if len(items) == 0 {
		return 0, nil
	}
	if err := s.store.UpsertAllocations(ctx, items); err != nil {
		return 0, s.fail(ctx, "copy allocations", err)
	}
	s.changed(ctx, userID, targetMonthID, log.OpCopy)
	return len(items), nil
}

// CopyFromPreviousMonth copies the previous calendar month's allocations into the
// target, which must be the current calendar month.
func (s *BudgetService) CopyFromPreviousMonth(ctx context.Context, userID, targetMonthID string) (int, error) {
	target, err := s.ownedMonth(ctx, userID, targetMonthID)
	if err != nil {
		return 0, err
	}
	if target.Key() != s.CurrentMonth() {
		return 0, core.Invalid("Cannot copy into a historical month")
	}
	prev, err := s.store.FindMonth(ctx, userID, target.Key().Previous())
	if errors.Is(err, storage.ErrNotFound) {
		return 0, core.NotFoundMessage("No budget found for the previous month")
	}
	if err != nil {
		return 0, s.fail(ctx, "copy allocations", err)
	}
	return s.CopyAllocations(ctx, userID, target.ID, prev.ID)
}
