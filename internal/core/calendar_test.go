package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestYearMonthPrevious(t *testing.T) {
	assert.Equal(t, YearMonth{2024, 12}, YearMonth{2025, 1}.Previous())
	assert.Equal(t, YearMonth{2025, 5}, YearMonth{2025, 6}.Previous())
	assert.Equal(t, YearMonth{2026, 1}, YearMonth{2025, 12}.Next())
}

func TestYearMonthValid(t *testing.T) {
	cases := []struct {
		ym    YearMonth
		valid bool
	}{
		{YearMonth{2020, 1}, true},
		{YearMonth{2100, 12}, true},
		{YearMonth{2019, 12}, false},
		{YearMonth{2101, 1}, false},
		{YearMonth{2025, 0}, false},
		{YearMonth{2025, 13}, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.valid, tc.ym.Valid(), tc.ym.String())
	}
}

func TestYearMonthOrderingAndLabels(t *testing.T) {
	assert.True(t, YearMonth{2024, 12}.Before(YearMonth{2025, 1}))
	assert.False(t, YearMonth{2025, 1}.Before(YearMonth{2025, 1}))
	assert.Equal(t, YearMonth{2025, 3}, MonthOf(time.Date(2025, 3, 31, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, "March 2025", YearMonth{2025, 3}.Label())
	assert.Equal(t, "Mar 2025", YearMonth{2025, 3}.Short())
	assert.Equal(t, "2025-03", YearMonth{2025, 3}.String())
}
