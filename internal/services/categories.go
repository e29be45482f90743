package services

import (
	"context"
	"errors"
	"strings"

	"budgeteer/internal/core"
	"budgeteer/internal/log"
	"budgeteer/internal/storage"
)

const duplicateCategoryMessage = "A category with this name already exists"

// Categories returns the user's categories by sort order.
func (s *BudgetService) Categories(ctx context.Context, userID string) ([]core.Category, error) {
	list, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return nil, s.fail(ctx, "load categories", err)
	}
	return list, nil
}

// CreateCategory appends a new category after the user's last one.
func (s *BudgetService) CreateCategory(ctx context.Context, userID, name, color string) (core.Category, error) {
	name = strings.TrimSpace(name)
	color = strings.TrimSpace(color)
	if color == "" {
		color = core.DefaultCategoryColor
	}
	if err := core.Check(core.CategoryInput{Name: name, Color: color}); err != nil {
		return core.Category{}, err
	}

	max, ok, err := s.store.MaxSortOrder(ctx, userID)
	if err != nil {
		return core.Category{}, s.fail(ctx, "create category", err)
	}
	sortOrder := 0
	if ok {
		sortOrder = max + 1
	}

	c := core.Category{ID: s.newID(), UserID: userID, Name: name, Color: color, SortOrder: sortOrder}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return core.Category{}, core.Conflict(duplicateCategoryMessage)
		}
		return core.Category{}, s.fail(ctx, "create category", err)
	}
	s.changed(ctx, userID, "", log.OpCreate)
	return c, nil
}

// CategoryUpdate carries optional fields; nil leaves a field unchanged.
type CategoryUpdate struct {
	Name  *string
	Color *string
}

// UpdateCategory renames and/or recolours a category. The savings category keeps its name.
func (s *BudgetService) UpdateCategory(ctx context.Context, userID, categoryID string, upd CategoryUpdate) (core.Category, error) {
	if upd.Name != nil {
		trimmed := strings.TrimSpace(*upd.Name)
		upd.Name = &trimmed
	}
	if upd.Color != nil {
		trimmed := strings.TrimSpace(*upd.Color)
		upd.Color = &trimmed
	}
	if err := core.Check(core.CategoryUpdateInput{Name: upd.Name, Color: upd.Color}); err != nil {
		return core.Category{}, err
	}

	c, err := s.ownedCategory(ctx, userID, categoryID)
	if err != nil {
		return core.Category{}, err
	}
	if upd.Name != nil && *upd.Name != c.Name {
		if c.IsSavings {
			return core.Category{}, core.Invalid("Cannot rename the Savings category")
		}
		c.Name = *upd.Name
	}
	if upd.Color != nil {
		c.Color = *upd.Color
	}

	if err := s.store.UpdateCategory(ctx, c); err != nil {
		switch {
		case errors.Is(err, storage.ErrDuplicate):
			return core.Category{}, core.Conflict(duplicateCategoryMessage)
		case errors.Is(err, storage.ErrNotFound):
			return core.Category{}, core.NotFound("Category")
		}
		return core.Category{}, s.fail(ctx, "update category", err)
	}
	s.changed(ctx, userID, "", log.OpUpdate)
	return c, nil
}

// DeleteCategory removes a category and its allocations. The savings category cannot be deleted.
func (s *BudgetService) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	c, err := s.ownedCategory(ctx, userID, categoryID)
	if err != nil {
		return err
	}
	if c.IsSavings {
		return core.Invalid("Cannot delete the Savings category")
	}
	if err := s.store.DeleteCategory(ctx, userID, categoryID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.NotFound("Category")
		}
		return s.fail(ctx, "delete category", err)
	}
	s.logger.InfoContext(ctx, "Category deleted", log.FieldUserID, userID, log.FieldCategoryID, categoryID)
	s.changed(ctx, userID, "", log.OpDelete)
	return nil
}

// ReorderCategories assigns each id its position as sort order, all or nothing.
func (s *BudgetService) ReorderCategories(ctx context.Context, userID string, ids []string) error {
	if err := core.Check(core.ReorderInput{IDs: ids}); err != nil {
		return err
	}
	if err := s.store.ReorderCategories(ctx, userID, ids); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.NotFound("Category")
		}
		return s.fail(ctx, "reorder categories", err)
	}
	s.changed(ctx, userID, "", log.OpReorder)
	return nil
}
