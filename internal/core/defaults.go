package core

import "github.com/shopspring/decimal"

// DefaultCurrency is assigned to new users.
const DefaultCurrency = "SLE"

// DefaultCategoryColor is used when a category is created without a color.
const DefaultCategoryColor = "#6366f1"

// MinSavingsRate is the recommended savings rate. Lower rates need an adjustment reason.
var MinSavingsRate = decimal.RequireFromString("0.20")

// MaxIncome bounds income updates.
var MaxIncome = decimal.RequireFromString("999999999999")

// Currency is a supported display currency.
type Currency struct {
	Code   string
	Symbol string
	Name   string
}

// Currencies lists supported currencies in display order.
var Currencies = []Currency{
	{Code: "SLE", Symbol: "Le", Name: "Sierra Leonean Leone"},
	{Code: "USD", Symbol: "$", Name: "US Dollar"},
	{Code: "GBP", Symbol: "£", Name: "British Pound"},
	{Code: "EUR", Symbol: "€", Name: "Euro"},
	{Code: "NGN", Symbol: "₦", Name: "Nigerian Naira"},
}

// LookupCurrency returns the currency for code.
func LookupCurrency(code string) (Currency, bool) {
	for _, c := range Currencies {
		if c.Code == code {
			return c, true
		}
	}
	return Currency{}, false
}

// CurrencySymbol returns the symbol for code, or the code itself when unknown.
func CurrencySymbol(code string) string {
	if c, ok := LookupCurrency(code); ok {
		return c.Symbol
	}
	return code
}

// DefaultCategory describes a category created during onboarding.
type DefaultCategory struct {
	Name      string
	Color     string
	IsSavings bool
	SortOrder int
}

// DefaultCategories is the set every user starts with.
var DefaultCategories = []DefaultCategory{
	{Name: "Savings", Color: "#6366f1", IsSavings: true, SortOrder: 0},
	{Name: "Transport & Food", Color: "#f59e0b", SortOrder: 1},
	{Name: "Utilities", Color: "#10b981", SortOrder: 2},
	{Name: "Partner & Child Support", Color: "#ec4899", SortOrder: 3},
	{Name: "Subscriptions", Color: "#8b5cf6", SortOrder: 4},
	{Name: "Fun", Color: "#06b6d4", SortOrder: 5},
	{Name: "Remittance", Color: "#f97316", SortOrder: 6},
}
