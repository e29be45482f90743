package services

import (
	"context"
	"errors"

	"budgeteer/internal/core"
	"budgeteer/internal/log"
	"budgeteer/internal/storage"
)

// Profile returns the user's profile.
func (s *BudgetService) Profile(ctx context.Context, userID string) (core.User, error) {
	u, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return core.User{}, core.NotFound("Profile")
	}
	if err != nil {
		return core.User{}, s.fail(ctx, "load profile", err)
	}
	return u, nil
}

// UpdateCurrency changes the display currency.
func (s *BudgetService) UpdateCurrency(ctx context.Context, userID, currency string) error {
	if err := core.Check(core.CurrencyInput{Currency: currency}); err != nil {
		return err
	}
	if err := s.store.UpdateCurrency(ctx, userID, currency); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.NotFound("Profile")
		}
		return s.fail(ctx, "update currency", err)
	}
	s.changed(ctx, userID, "", log.OpUpdate)
	return nil
}
