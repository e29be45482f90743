package core

import "github.com/shopspring/decimal"

// MonthSummary is the derived arithmetic of a single month.
type MonthSummary struct {
	Income         decimal.Decimal
	SavingsRate    decimal.Decimal
	SavingsAmount  decimal.Decimal
	Allocated      decimal.Decimal // non-savings allocations only
	TotalAllocated decimal.Decimal // savings + allocated
	Remaining      decimal.Decimal
	OverBudget     bool
}

// SavingsAmount returns income × rate.
func SavingsAmount(income, rate decimal.Decimal) decimal.Decimal {
	return income.Mul(rate)
}

// Summarize computes the month summary. Allocations against the savings category are ignored.
func Summarize(m BudgetMonth, allocations []AllocationDetail) MonthSummary {
	allocated := decimal.Zero
	for _, a := range allocations {
		if a.IsSavings {
			continue
		}
		allocated = allocated.Add(a.Amount)
	}
	savings := SavingsAmount(m.Income, m.SavingsRate)
	total := savings.Add(allocated)
	remaining := m.Income.Sub(total)
	return MonthSummary{
		Income:         m.Income,
		SavingsRate:    m.SavingsRate,
		SavingsAmount:  savings,
		Allocated:      allocated,
		TotalAllocated: total,
		Remaining:      remaining,
		OverBudget:     remaining.IsNegative(),
	}
}
