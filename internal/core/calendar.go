package core

import (
	"fmt"
	"time"
)

// Bounds for months addressable by URL.
const (
	MinYear = 2020
	MaxYear = 2100
)

// YearMonth is a calendar month.
type YearMonth struct {
	Year  int
	Month int
}

// MonthOf returns the calendar month containing t.
func MonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: int(t.Month())}
}

// Previous returns the calendar month before ym, rolling January back to December.
func (ym YearMonth) Previous() YearMonth {
	if ym.Month == 1 {
		return YearMonth{Year: ym.Year - 1, Month: 12}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month - 1}
}

// Next returns the calendar month after ym.
func (ym YearMonth) Next() YearMonth {
	if ym.Month == 12 {
		return YearMonth{Year: ym.Year + 1, Month: 1}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month + 1}
}

// Before reports whether ym is strictly earlier than other.
func (ym YearMonth) Before(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year < other.Year
	}
	return ym.Month < other.Month
}

// Valid reports whether ym lies inside the addressable range.
func (ym YearMonth) Valid() bool {
	return ym.Year >= MinYear && ym.Year <= MaxYear && ym.Month >= 1 && ym.Month <= 12
}

// Label renders e.g. "March 2025".
func (ym YearMonth) Label() string {
	return fmt.Sprintf("%s %d", time.Month(ym.Month), ym.Year)
}

// Short renders e.g. "Mar 2025", used for chart labels.
func (ym YearMonth) Short() string {
	return fmt.Sprintf("%s %d", time.Month(ym.Month).String()[:3], ym.Year)
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, ym.Month)
}
