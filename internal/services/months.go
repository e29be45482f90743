package services

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"budgeteer/internal/core"
	"budgeteer/internal/log"
	"budgeteer/internal/storage"
)

// MonthView is everything a month page needs.
type MonthView struct {
	Month       core.BudgetMonth
	Allocations []core.AllocationDetail
	Summary     core.MonthSummary
	IsCurrent   bool
	// HasPrevious reports whether the previous calendar month has a record to copy from.
	HasPrevious bool
}

// Month returns the month for ym. A missing current month is created by rolling
// income and savings rate over from the latest earlier month; a missing
// historical month is not found.
func (s *BudgetService) Month(ctx context.Context, userID string, ym core.YearMonth) (MonthView, error) {
	if !ym.Valid() {
		return MonthView{}, core.NotFound("Budget month")
	}

	m, err := s.store.FindMonth(ctx, userID, ym)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		if ym != s.CurrentMonth() {
			return MonthView{}, core.NotFound("Budget month")
		}
		if m, err = s.rollover(ctx, userID, ym); err != nil {
			return MonthView{}, err
		}
	case err != nil:
		return MonthView{}, s.fail(ctx, "load budget month", err)
	}
	return s.view(ctx, userID, m)
}

// MonthByID returns the view of an owned month.
func (s *BudgetService) MonthByID(ctx context.Context, userID, monthID string) (MonthView, error) {
	m, err := s.ownedMonth(ctx, userID, monthID)
	if err != nil {
		return MonthView{}, err
	}
	return s.view(ctx, userID, m)
}

func (s *BudgetService) view(ctx context.Context, userID string, m core.BudgetMonth) (MonthView, error) {
	allocations, err := s.store.ListAllocations(ctx, m.ID)
	if err != nil {
		return MonthView{}, s.fail(ctx, "load allocations", err)
	}
	_, err = s.store.FindMonth(ctx, userID, m.Key().Previous())
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return MonthView{}, s.fail(ctx, "load budget month", err)
	}
	return MonthView{
		Month:       m,
		Allocations: allocations,
		Summary:     core.Summarize(m, allocations),
		IsCurrent:   m.Key() == s.CurrentMonth(),
		HasPrevious: err == nil,
	}, nil
}

func (s *BudgetService) rollover(ctx context.Context, userID string, ym core.YearMonth) (core.BudgetMonth, error) {
	m := core.BudgetMonth{
		ID:          s.newID(),
		UserID:      userID,
		Year:        ym.Year,
		Month:       ym.Month,
		Income:      decimal.Zero,
		SavingsRate: core.MinSavingsRate,
	}
	prev, err := s.store.LatestMonthBefore(ctx, userID, ym)
	switch {
	case err == nil:
		m.Income, m.SavingsRate, m.AdjustmentReason = prev.Income, prev.SavingsRate, prev.AdjustmentReason
	case !errors.Is(err, storage.ErrNotFound):
		return core.BudgetMonth{}, s.fail(ctx, "create budget month", err)
	}

	if err := s.store.CreateMonth(ctx, m); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			// created concurrently by another request
			existing, ferr := s.store.FindMonth(ctx, userID, ym)
			if ferr != nil {
				return core.BudgetMonth{}, s.fail(ctx, "create budget month", ferr)
			}
			return existing, nil
		}
		return core.BudgetMonth{}, s.fail(ctx, "create budget month", err)
	}
	s.logger.InfoContext(ctx, "Budget month rolled over",
		log.FieldUserID, userID, log.FieldYear, ym.Year, log.FieldMonth, ym.Month)
	s.changed(ctx, userID, m.ID, log.OpCreate)
	return m, nil
}

// History returns every month of the user with its summary, oldest first.
func (s *BudgetService) History(ctx context.Context, userID string) ([]core.MonthWithAllocations, error) {
	months, err := s.store.ListMonths(ctx, userID)
	if err != nil {
		return nil, s.fail(ctx, "load budget history", err)
	}
	allocations, err := s.store.ListUserAllocations(ctx, userID)
	if err != nil {
		return nil, s.fail(ctx, "load budget history", err)
	}
	byMonth := make(map[string][]core.AllocationDetail, len(months))
	for _, a := range allocations {
		byMonth[a.BudgetMonthID] = append(byMonth[a.BudgetMonthID], a)
	}
	out := make([]core.MonthWithAllocations, 0, len(months))
	for _, m := range months {
		out = append(out, core.MonthWithAllocations{BudgetMonth: m, Allocations: byMonth[m.ID]})
	}
	return out, nil
}

// UpdateIncome sets the month's income.
func (s *BudgetService) UpdateIncome(ctx context.Context, userID, monthID string, amount decimal.Decimal) (core.BudgetMonth, error) {
	if err := core.Check(core.IncomeInput{Amount: amount}); err != nil {
		return core.BudgetMonth{}, err
	}
	m, err := s.ownedMonth(ctx, userID, monthID)
	if err != nil {
		return core.BudgetMonth{}, err
	}
	m.Income = amount
	if err := s.store.UpdateMonth(ctx, m); err != nil {
		return core.BudgetMonth{}, s.fail(ctx, "update income", err)
	}
	s.changed(ctx, userID, m.ID, log.OpUpdate)
	return m, nil
}

// UpdateSavingsRate sets the rate from a 0-100 percentage. Rates under the
// recommended minimum need a reason; otherwise any stored reason is cleared.
func (s *BudgetService) UpdateSavingsRate(ctx context.Context, userID, monthID string, percent decimal.Decimal, reason string) (core.BudgetMonth, error) {
	reason = strings.TrimSpace(reason)
	if err := core.Check(core.SavingsRateInput{Percent: percent, Reason: reason}); err != nil {
		return core.BudgetMonth{}, err
	}
	m, err := s.ownedMonth(ctx, userID, monthID)
	if err != nil {
		return core.BudgetMonth{}, err
	}
	m.SavingsRate = core.RateFromPercent(percent)
	m.AdjustmentReason = ""
	if m.SavingsRate.LessThan(core.MinSavingsRate) {
		m.AdjustmentReason = reason
	}
	if err := s.store.UpdateMonth(ctx, m); err != nil {
		return core.BudgetMonth{}, s.fail(ctx, "update savings rate", err)
	}
	s.changed(ctx, userID, m.ID, log.OpUpdate)
	return m, nil
}
