package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func month(year, m int, income, rate string, allocs ...AllocationDetail) MonthWithAllocations {
	return MonthWithAllocations{
		BudgetMonth: BudgetMonth{Year: year, Month: m, Income: dec(income), SavingsRate: dec(rate)},
		Allocations: allocs,
	}
}

func TestComputeInsightsEmpty(t *testing.T) {
	got := ComputeInsights(nil)
	assert.True(t, got.AverageIncome.IsZero())
	assert.True(t, got.AverageSavingsRate.IsZero())
	assert.True(t, got.AverageSavingsAmount.IsZero())
	assert.True(t, got.TotalSaved.IsZero())
	assert.Zero(t, got.TotalMonths)
	assert.NotNil(t, got.MonthsWithLowSavings)
	assert.Empty(t, got.MonthsWithLowSavings)
	assert.NotNil(t, got.TopCategories)
	assert.Empty(t, got.TopCategories)
	assert.NotNil(t, got.MonthlyTrends)
	assert.Empty(t, got.MonthlyTrends)
}

func TestComputeInsightsAggregates(t *testing.T) {
	months := []MonthWithAllocations{
		month(2025, 2, "2000", "0.10", detail("food", "300", false)),
		month(2025, 1, "1000", "0.20", detail("food", "200", false), detail("fun", "100", false)),
	}
	got := ComputeInsights(months)

	assert.Equal(t, 2, got.TotalMonths)
	require.Len(t, got.MonthsWithLowSavings, 1)
	assert.Equal(t, YearMonth{2025, 2}, got.MonthsWithLowSavings[0].YearMonth)
	assert.True(t, got.AverageIncome.Equal(dec("1500")))
	assert.True(t, got.AverageSavingsRate.Equal(dec("0.15")))
	assert.True(t, got.TotalSaved.Equal(dec("400")))
	assert.True(t, got.AverageSavingsAmount.Equal(dec("200")))

	require.Len(t, got.MonthlyTrends, 2)
	assert.Equal(t, YearMonth{2025, 1}, got.MonthlyTrends[0].YearMonth)
	assert.True(t, got.MonthlyTrends[0].TotalAllocated.Equal(dec("500")))
	assert.Equal(t, YearMonth{2025, 2}, got.MonthlyTrends[1].YearMonth)

	require.Len(t, got.TopCategories, 2)
	assert.Equal(t, "food", got.TopCategories[0].CategoryID)
	assert.True(t, got.TopCategories[0].Total.Equal(dec("500")))
	assert.Equal(t, "fun", got.TopCategories[1].CategoryID)
}

func TestComputeInsightsTopCategoriesLimitAndTies(t *testing.T) {
	got := ComputeInsights([]MonthWithAllocations{
		month(2025, 3, "10000", "0.2",
			detail("a", "10", false),
			detail("b", "50", false),
			detail("c", "10", false),
			detail("d", "40", false),
			detail("e", "10", false),
			detail("f", "30", false),
			detail("savings", "5000", true),
		),
	})
	require.Len(t, got.TopCategories, TopCategoryLimit)
	var ids []string
	for _, c := range got.TopCategories {
		ids = append(ids, c.CategoryID)
	}
	// ties keep first-seen order
	assert.Equal(t, []string{"b", "d", "f", "a", "c"}, ids)
}

func TestComputeInsightsListsLowSavingsMonths(t *testing.T) {
	jan := month(2025, 1, "1000", "0.10")
	jan.AdjustmentReason = "Car repair this month"
	feb := month(2025, 2, "1000", "0.25")
	feb.AdjustmentReason = "stale reason"

	got := ComputeInsights([]MonthWithAllocations{feb, jan})

	require.Len(t, got.MonthsWithLowSavings, 1)
	low := got.MonthsWithLowSavings[0]
	assert.Equal(t, YearMonth{2025, 1}, low.YearMonth)
	assert.True(t, low.SavingsRate.Equal(dec("0.10")))
	assert.Equal(t, "Car repair this month", low.AdjustmentReason)

	require.Len(t, got.MonthlyTrends, 2)
	assert.Empty(t, got.MonthlyTrends[1].AdjustmentReason)
}
