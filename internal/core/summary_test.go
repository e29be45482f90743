package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func detail(categoryID string, amount string, savings bool) AllocationDetail {
	return AllocationDetail{
		Allocation:   Allocation{CategoryID: categoryID, Amount: dec(amount)},
		CategoryName: categoryID,
		IsSavings:    savings,
	}
}

func TestSummarize(t *testing.T) {
	cases := []struct {
		name      string
		income    string
		rate      string
		allocs    []AllocationDetail
		savings   string
		total     string
		remaining string
		over      bool
	}{
		{
			name: "example month", income: "5000", rate: "0.20",
			allocs:  []AllocationDetail{detail("transport", "1500", false), detail("utilities", "800", false)},
			savings: "1000", total: "3300", remaining: "1700",
		},
		{
			name: "over budget", income: "1000", rate: "0.5",
			allocs:  []AllocationDetail{detail("fun", "600", false)},
			savings: "500", total: "1100", remaining: "-100", over: true,
		},
		{
			name: "zero income", income: "0", rate: "0.2",
			savings: "0", total: "0", remaining: "0",
		},
		{
			name: "savings rows ignored", income: "100", rate: "0.1",
			allocs:  []AllocationDetail{detail("savings", "999", true), detail("fun", "10", false)},
			savings: "10", total: "20", remaining: "80",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := Summarize(BudgetMonth{Income: dec(tc.income), SavingsRate: dec(tc.rate)}, tc.allocs)
			assert.True(t, s.SavingsAmount.Equal(dec(tc.savings)), "savings %s", s.SavingsAmount)
			assert.True(t, s.TotalAllocated.Equal(dec(tc.total)), "total %s", s.TotalAllocated)
			assert.True(t, s.Remaining.Equal(dec(tc.remaining)), "remaining %s", s.Remaining)
			assert.Equal(t, tc.over, s.OverBudget)
		})
	}
}

func TestSavingsAmountIsExact(t *testing.T) {
	got := SavingsAmount(dec("0.1"), dec("0.3"))
	assert.Equal(t, "0.03", got.String())
}
