package services

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"budgeteer/internal/core"
	"budgeteer/internal/log"
	"budgeteer/internal/storage"
)

// NeedsOnboarding is true until the user has a profile, categories and at least one month.
func (s *BudgetService) NeedsOnboarding(ctx context.Context, userID string) (bool, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return true, nil
		}
		return false, s.fail(ctx, "check onboarding status", err)
	}
	cats, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return false, s.fail(ctx, "check onboarding status", err)
	}
	months, err := s.store.ListMonths(ctx, userID)
	if err != nil {
		return false, s.fail(ctx, "check onboarding status", err)
	}
	return len(cats) == 0 || len(months) == 0, nil
}

// CompleteOnboarding records the currency, creates the default categories and
// sets income on the current month. Running it again only updates currency and income.
func (s *BudgetService) CompleteOnboarding(ctx context.Context, userID, email string, income decimal.Decimal, currency string) (core.BudgetMonth, error) {
	if err := core.Check(core.OnboardingInput{Income: income, Currency: currency}); err != nil {
		return core.BudgetMonth{}, err
	}

	if err := s.store.UpsertUser(ctx, core.User{ID: userID, Email: email, Currency: currency}); err != nil {
		return core.BudgetMonth{}, s.fail(ctx, "save profile", err)
	}
	if err := s.EnsureDefaultCategories(ctx, userID); err != nil {
		return core.BudgetMonth{}, err
	}

	ym := s.CurrentMonth()
	m, err := s.store.FindMonth(ctx, userID, ym)
	switch {
	case err == nil:
		m.Income = income
		if err := s.store.UpdateMonth(ctx, m); err != nil {
			return core.BudgetMonth{}, s.fail(ctx, "create budget", err)
		}
	case errors.Is(err, storage.ErrNotFound):
		m = core.BudgetMonth{
			ID:          s.newID(),
			UserID:      userID,
			Year:        ym.Year,
			Month:       ym.Month,
			Income:      income,
			SavingsRate: core.MinSavingsRate,
		}
		if err := s.store.CreateMonth(ctx, m); err != nil {
			return core.BudgetMonth{}, s.fail(ctx, "create budget", err)
		}
	default:
		return core.BudgetMonth{}, s.fail(ctx, "create budget", err)
	}

	s.logger.InfoContext(ctx, "Onboarding completed", log.FieldUserID, userID, "currency", currency)
	s.changed(ctx, userID, m.ID, log.OpCreate)
	return m, nil
}

// EnsureDefaultCategories inserts any missing default category by name.
func (s *BudgetService) EnsureDefaultCategories(ctx context.Context, userID string) error {
	for _, d := range core.DefaultCategories {
		c := core.Category{
			ID:        s.newID(),
			UserID:    userID,
			Name:      d.Name,
			Color:     d.Color,
			IsSavings: d.IsSavings,
			IsDefault: true,
			SortOrder: d.SortOrder,
		}
		if err := s.store.EnsureCategory(ctx, c); err != nil {
			return s.fail(ctx, "create default categories", err)
		}
	}
	return nil
}
