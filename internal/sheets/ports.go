package sheets

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"budgeteer/internal/core"
)

// MonthRow is one exported budget month. Rows are keyed by (UserID, Year, Month).
type MonthRow struct {
	UserID      string
	Email       string
	Currency    string
	Year        int
	Month       int
	Income      decimal.Decimal
	SavingsRate decimal.Decimal
	Savings     decimal.Decimal
	Allocated   decimal.Decimal
	Remaining   decimal.Decimal
	UpdatedAt   time.Time
}

// NewMonthRow flattens a month and its summary for export.
func NewMonthRow(u core.User, m core.BudgetMonth, s core.MonthSummary, at time.Time) MonthRow {
	return MonthRow{
		UserID:      u.ID,
		Email:       u.Email,
		Currency:    u.Currency,
		Year:        m.Year,
		Month:       m.Month,
		Income:      s.Income,
		SavingsRate: s.SavingsRate,
		Savings:     s.SavingsAmount,
		Allocated:   s.TotalAllocated,
		Remaining:   s.Remaining,
		UpdatedAt:   at.UTC(),
	}
}

// Key identifies the row within the sheet.
func (r MonthRow) Key() string {
	return core.YearMonth{Year: r.Year, Month: r.Month}.String() + "/" + r.UserID
}

// Ports for outbound adapters.
type (
	// MonthExporter writes a month row, replacing any existing row with the same key.
	MonthExporter interface {
		ExportMonth(ctx context.Context, row MonthRow) (rowRef string, err error)
	}
)
