package api

import (
	"time"

	"github.com/shopspring/decimal"

	"budgeteer/internal/auth"
	"budgeteer/internal/core"
	"budgeteer/internal/services"
)

// Amounts are encoded as decimal strings ("1234.50") so no precision is lost.

type (
	credentialsRequest struct {
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}

	resetRequest struct {
		Token           string `json:"token"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}

	onboardingRequest struct {
		Income   decimal.Decimal `json:"income"`
		Currency string          `json:"currency"`
	}

	currencyRequest struct {
		Currency string `json:"currency"`
	}

	amountRequest struct {
		Amount decimal.Decimal `json:"amount"`
	}

	savingsRateRequest struct {
		Percent decimal.Decimal `json:"percent"`
		Reason  string          `json:"reason"`
	}

	allocationRequest struct {
		CategoryID string          `json:"categoryId"`
		Amount     decimal.Decimal `json:"amount"`
	}

	categoryRequest struct {
		Name  *string `json:"name"`
		Color *string `json:"color"`
	}

	reorderRequest struct {
		IDs []string `json:"ids"`
	}
)

type sessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      identityJSON `json:"user"`
}

type identityJSON struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func newSessionResponse(s auth.Session) sessionResponse {
	return sessionResponse{
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
		User:      identityJSON{ID: s.Identity.ID, Email: s.Identity.Email},
	}
}

type profileJSON struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	Currency        string `json:"currency"`
	NeedsOnboarding bool   `json:"needsOnboarding"`
}

type categoryJSON struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	IsSavings bool   `json:"isSavings"`
	IsDefault bool   `json:"isDefault"`
	SortOrder int    `json:"sortOrder"`
}

func newCategoryJSON(c core.Category) categoryJSON {
	return categoryJSON{
		ID:        c.ID,
		Name:      c.Name,
		Color:     c.Color,
		IsSavings: c.IsSavings,
		IsDefault: c.IsDefault,
		SortOrder: c.SortOrder,
	}
}

func newCategoryList(cats []core.Category) []categoryJSON {
	out := make([]categoryJSON, 0, len(cats))
	for _, c := range cats {
		out = append(out, newCategoryJSON(c))
	}
	return out
}

type monthJSON struct {
	ID               string          `json:"id"`
	Year             int             `json:"year"`
	Month            int             `json:"month"`
	Income           decimal.Decimal `json:"income"`
	SavingsRate      decimal.Decimal `json:"savingsRate"`
	AdjustmentReason string          `json:"adjustmentReason,omitempty"`
}

func newMonthJSON(m core.BudgetMonth) monthJSON {
	return monthJSON{
		ID:               m.ID,
		Year:             m.Year,
		Month:            m.Month,
		Income:           m.Income,
		SavingsRate:      m.SavingsRate,
		AdjustmentReason: m.AdjustmentReason,
	}
}

type allocationJSON struct {
	ID            string          `json:"id"`
	CategoryID    string          `json:"categoryId"`
	CategoryName  string          `json:"categoryName"`
	CategoryColor string          `json:"categoryColor"`
	Amount        decimal.Decimal `json:"amount"`
}

func newAllocationList(allocs []core.AllocationDetail) []allocationJSON {
	out := make([]allocationJSON, 0, len(allocs))
	for _, a := range allocs {
		out = append(out, allocationJSON{
			ID:            a.ID,
			CategoryID:    a.CategoryID,
			CategoryName:  a.CategoryName,
			CategoryColor: a.CategoryColor,
			Amount:        a.Amount,
		})
	}
	return out
}

type summaryJSON struct {
	Income         decimal.Decimal `json:"income"`
	SavingsRate    decimal.Decimal `json:"savingsRate"`
	SavingsAmount  decimal.Decimal `json:"savingsAmount"`
	Allocated      decimal.Decimal `json:"allocated"`
	TotalAllocated decimal.Decimal `json:"totalAllocated"`
	Remaining      decimal.Decimal `json:"remaining"`
	OverBudget     bool            `json:"overBudget"`
}

type monthViewJSON struct {
	Month       monthJSON        `json:"month"`
	Allocations []allocationJSON `json:"allocations"`
	Summary     summaryJSON      `json:"summary"`
	IsCurrent   bool             `json:"isCurrent"`
	HasPrevious bool             `json:"hasPrevious"`
}

func newMonthView(v services.MonthView) monthViewJSON {
	s := v.Summary
	return monthViewJSON{
		Month:       newMonthJSON(v.Month),
		Allocations: newAllocationList(v.Allocations),
		Summary: summaryJSON{
			Income:         s.Income,
			SavingsRate:    s.SavingsRate,
			SavingsAmount:  s.SavingsAmount,
			Allocated:      s.Allocated,
			TotalAllocated: s.TotalAllocated,
			Remaining:      s.Remaining,
			OverBudget:     s.OverBudget,
		},
		IsCurrent:   v.IsCurrent,
		HasPrevious: v.HasPrevious,
	}
}

type historyJSON struct {
	monthJSON
	Allocations []allocationJSON `json:"allocations"`
}

type categoryTotalJSON struct {
	CategoryID string          `json:"categoryId"`
	Name       string          `json:"name"`
	Color      string          `json:"color"`
	Total      decimal.Decimal `json:"total"`
}

type trendJSON struct {
	Year             int             `json:"year"`
	Month            int             `json:"month"`
	Income           decimal.Decimal `json:"income"`
	SavingsRate      decimal.Decimal `json:"savingsRate"`
	SavingsAmount    decimal.Decimal `json:"savingsAmount"`
	TotalAllocated   decimal.Decimal `json:"totalAllocated"`
	AdjustmentReason string          `json:"adjustmentReason,omitempty"`
}

func newTrendList(trends []core.MonthlyTrend) []trendJSON {
	out := make([]trendJSON, 0, len(trends))
	for _, t := range trends {
		out = append(out, trendJSON{
			Year:             t.Year,
			Month:            t.Month,
			Income:           t.Income,
			SavingsRate:      t.SavingsRate,
			SavingsAmount:    t.SavingsAmount,
			TotalAllocated:   t.TotalAllocated,
			AdjustmentReason: t.AdjustmentReason,
		})
	}
	return out
}

type insightsJSON struct {
	AverageIncome        decimal.Decimal     `json:"averageIncome"`
	AverageSavingsRate   decimal.Decimal     `json:"averageSavingsRate"`
	AverageSavingsAmount decimal.Decimal     `json:"averageSavingsAmount"`
	TotalSaved           decimal.Decimal     `json:"totalSaved"`
	TotalMonths          int                 `json:"totalMonths"`
	MonthsWithLowSavings []trendJSON         `json:"monthsWithLowSavings"`
	TopCategories        []categoryTotalJSON `json:"topCategories"`
	MonthlyTrends        []trendJSON         `json:"monthlyTrends"`
}

func newInsightsJSON(in core.Insights) insightsJSON {
	out := insightsJSON{
		AverageIncome:        in.AverageIncome,
		AverageSavingsRate:   in.AverageSavingsRate,
		AverageSavingsAmount: in.AverageSavingsAmount,
		TotalSaved:           in.TotalSaved,
		TotalMonths:          in.TotalMonths,
		MonthsWithLowSavings: newTrendList(in.MonthsWithLowSavings),
		TopCategories:        make([]categoryTotalJSON, 0, len(in.TopCategories)),
		MonthlyTrends:        newTrendList(in.MonthlyTrends),
	}
	for _, c := range in.TopCategories {
		out.TopCategories = append(out.TopCategories, categoryTotalJSON{
			CategoryID: c.CategoryID, Name: c.Name, Color: c.Color, Total: c.Total,
		})
	}
	return out
}
