package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type (
	// User owns categories and budget months. Currency is a display label only.
	User struct {
		ID        string
		Email     string
		Currency  string
		CreatedAt time.Time
	}

	Category struct {
		ID        string
		UserID    string
		Name      string
		Color     string
		IsSavings bool // system managed, exactly one per user
		IsDefault bool
		SortOrder int
	}

	// BudgetMonth is unique per (user, year, month).
	BudgetMonth struct {
		ID               string
		UserID           string
		Year             int
		Month            int
		Income           decimal.Decimal
		SavingsRate      decimal.Decimal // fraction in [0, 1]
		AdjustmentReason string
	}

	// Allocation is unique per (month, category). Rows only exist for amounts > 0.
	Allocation struct {
		ID            string
		BudgetMonthID string
		CategoryID    string
		Amount        decimal.Decimal
	}

	// AllocationDetail is an allocation joined with its category.
	AllocationDetail struct {
		Allocation
		CategoryName  string
		CategoryColor string
		IsSavings     bool
		SortOrder     int
	}

	// MonthWithAllocations is the unit consumed by summaries and insights.
	MonthWithAllocations struct {
		BudgetMonth
		Allocations []AllocationDetail
	}
)

// Key identifies the calendar month of m.
func (m BudgetMonth) Key() YearMonth {
	return YearMonth{Year: m.Year, Month: m.Month}
}

// Percent returns the savings rate as a 0-100 percentage.
func (m BudgetMonth) Percent() decimal.Decimal {
	return m.SavingsRate.Mul(decimal.NewFromInt(100))
}

// Identity is the credential record behind a User. They share the same id.
type Identity struct {
	ID             string
	Email          string
	PasswordHash   string
	TokenVersion   int
	ResetTokenHash string
	ResetExpiresAt time.Time
}
