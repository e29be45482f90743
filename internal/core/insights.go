package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// TopCategoryLimit caps Insights.TopCategories.
const TopCategoryLimit = 5

type (
	CategoryTotal struct {
		CategoryID string
		Name       string
		Color      string
		Total      decimal.Decimal
	}

	MonthlyTrend struct {
		YearMonth
		Income         decimal.Decimal
		SavingsRate    decimal.Decimal
		SavingsAmount  decimal.Decimal
		TotalAllocated decimal.Decimal

		// AdjustmentReason is set only when the rate is below MinSavingsRate.
		AdjustmentReason string
	}

	// Insights aggregates a user's whole budget history.
	Insights struct {
		AverageIncome        decimal.Decimal
		AverageSavingsRate   decimal.Decimal
		AverageSavingsAmount decimal.Decimal
		TotalSaved           decimal.Decimal
		TotalMonths          int
		// MonthsWithLowSavings lists months whose rate is below MinSavingsRate, oldest first.
		MonthsWithLowSavings []MonthlyTrend
		TopCategories        []CategoryTotal
		MonthlyTrends        []MonthlyTrend
	}
)

// ComputeInsights aggregates months in chronological order. An empty history
// yields zero values and empty slices.
func ComputeInsights(months []MonthWithAllocations) Insights {
	out := Insights{
		AverageIncome:        decimal.Zero,
		AverageSavingsRate:   decimal.Zero,
		AverageSavingsAmount: decimal.Zero,
		TotalSaved:           decimal.Zero,
		MonthsWithLowSavings: []MonthlyTrend{},
		TopCategories:        []CategoryTotal{},
		MonthlyTrends:        []MonthlyTrend{},
	}
	if len(months) == 0 {
		return out
	}

	ordered := make([]MonthWithAllocations, len(months))
	copy(ordered, months)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Key().Before(ordered[j].Key())
	})

	incomeSum := decimal.Zero
	rateSum := decimal.Zero
	totals := map[string]*CategoryTotal{}
	var seen []string

	for _, m := range ordered {
		s := Summarize(m.BudgetMonth, m.Allocations)
		incomeSum = incomeSum.Add(m.Income)
		rateSum = rateSum.Add(m.SavingsRate)
		out.TotalSaved = out.TotalSaved.Add(s.SavingsAmount)
		trend := MonthlyTrend{
			YearMonth:      m.Key(),
			Income:         m.Income,
			SavingsRate:    m.SavingsRate,
			SavingsAmount:  s.SavingsAmount,
			TotalAllocated: s.TotalAllocated,
		}
		if m.SavingsRate.LessThan(MinSavingsRate) {
			trend.AdjustmentReason = m.AdjustmentReason
			out.MonthsWithLowSavings = append(out.MonthsWithLowSavings, trend)
		}
		out.MonthlyTrends = append(out.MonthlyTrends, trend)

		for _, a := range m.Allocations {
			if a.IsSavings {
				continue
			}
			t, ok := totals[a.CategoryID]
			if !ok {
				t = &CategoryTotal{CategoryID: a.CategoryID, Total: decimal.Zero}
				totals[a.CategoryID] = t
				seen = append(seen, a.CategoryID)
			}
			t.Name = a.CategoryName
			t.Color = a.CategoryColor
			t.Total = t.Total.Add(a.Amount)
		}
	}

	n := decimal.NewFromInt(int64(len(ordered)))
	out.TotalMonths = len(ordered)
	out.AverageIncome = incomeSum.Div(n)
	out.AverageSavingsRate = rateSum.Div(n)
	out.AverageSavingsAmount = out.TotalSaved.Div(n)

	ranked := make([]CategoryTotal, 0, len(seen))
	for _, id := range seen {
		ranked = append(ranked, *totals[id])
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Total.GreaterThan(ranked[j].Total)
	})
	if len(ranked) > TopCategoryLimit {
		ranked = ranked[:TopCategoryLimit]
	}
	out.TopCategories = ranked
	return out
}
