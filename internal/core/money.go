// Package core holds the budget domain: entities, money handling, validation
// and the pure arithmetic behind month summaries and insights.
package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// ErrInvalidAmount is returned when an amount string cannot be parsed.
var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount converts user input into a decimal rounded half-up to two places.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted. The sign is
// preserved so callers can report negative amounts with a specific message.
//
//	ParseAmount("12,345") -> 12.35
//	ParseAmount("-4")     -> -4
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 || strings.ContainsAny(s, "eE") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d.Round(2), nil
}

// ParsePercent parses a 0-100 savings percentage and returns it unchanged.
// Range checks are done by the validator.
func ParsePercent(s string) (decimal.Decimal, error) {
	d, err := ParseAmount(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if err != nil {
		return decimal.Zero, errors.New("invalid percentage")
	}
	return d, nil
}

// RateFromPercent converts 0-100 into a 0-1 fraction.
func RateFromPercent(p decimal.Decimal) decimal.Decimal {
	return p.Div(decimal.NewFromInt(100))
}

var printer = message.NewPrinter(language.English)

// FormatMoney renders d with thousands separators, two decimals and the currency symbol.
func FormatMoney(d decimal.Decimal, currency string) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	f, _ := d.Round(2).Float64()
	return sign + CurrencySymbol(currency) + " " + printer.Sprint(number.Decimal(f, number.Scale(2)))
}

// FormatPercent renders a 0-1 rate as a percentage with at most one decimal.
func FormatPercent(rate decimal.Decimal) string {
	return rate.Mul(decimal.NewFromInt(100)).Round(1).String() + "%"
}
