package google

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	ports "budgeteer/internal/sheets"
)

const lastColumn = "K"

var header = []string{
	"User ID", "Email", "Year", "Month", "Currency",
	"Income", "Savings Rate %", "Savings", "Allocated", "Remaining", "Updated At",
}

func headerValues() []any {
	out := make([]any, len(header))
	for i, h := range header {
		out[i] = h
	}
	return out
}

// rowValues renders a row in column order. Amounts are written as fixed two
// decimal strings so the sheet never sees binary floats.
func rowValues(r ports.MonthRow) []any {
	return []any{
		r.UserID,
		r.Email,
		r.Year,
		r.Month,
		r.Currency,
		r.Income.StringFixed(2),
		r.SavingsRate.Shift(2).StringFixed(2),
		r.Savings.StringFixed(2),
		r.Allocated.StringFixed(2),
		r.Remaining.StringFixed(2),
		r.UpdatedAt.Format(time.RFC3339),
	}
}

// findRow returns the 0-based index of the row matching r's key in the A:D values, or -1.
func findRow(values [][]any, r ports.MonthRow) int {
	for i, row := range values {
		if len(row) < 4 {
			continue
		}
		cells := toStrings(row)
		if cells[0] != r.UserID {
			continue
		}
		year, err1 := strconv.Atoi(cells[2])
		month, err2 := strconv.Atoi(cells[3])
		if err1 == nil && err2 == nil && year == r.Year && month == r.Month {
			return i
		}
	}
	return -1
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
