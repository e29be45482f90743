package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgeteer/internal/core"
)

func TestParseYearMonthPath(t *testing.T) {
	tests := []struct {
		year, month string
		want        core.YearMonth
		ok          bool
	}{
		{"2025", "3", core.YearMonth{Year: 2025, Month: 3}, true},
		{"2020", "1", core.YearMonth{Year: 2020, Month: 1}, true},
		{"2100", "12", core.YearMonth{Year: 2100, Month: 12}, true},
		{"2019", "12", core.YearMonth{}, false},
		{"2101", "1", core.YearMonth{}, false},
		{"2025", "13", core.YearMonth{}, false},
		{"2025", "0", core.YearMonth{}, false},
		{"abcd", "1", core.YearMonth{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.year+"-"+tt.month, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.SetPathValue("year", tt.year)
			r.SetPathValue("month", tt.month)
			got, err := ParseYearMonthPath(r)
			if !tt.ok {
				assert.ErrorIs(t, err, core.ErrNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequestBodyParserForm(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("name=+Food%01+&id=a&id=b&empty="))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	p := NewRequestBodyParser(r)
	require.NoError(t, p.Err())

	assert.False(t, p.IsJSON())
	assert.Equal(t, "Food", p.Get("name"))
	assert.Equal(t, []string{"a", "b"}, p.Values("id"))
	assert.True(t, p.Has("empty"))
	assert.False(t, p.Has("missing"))
}

func TestRequestBodyParserJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"ids":["x","y"],"amount":12.5,"flag":true}`))
	p := NewRequestBodyParser(r)
	require.NoError(t, p.Err())

	assert.True(t, p.IsJSON())
	assert.Equal(t, []string{"x", "y"}, p.Values("ids"))
	assert.Equal(t, "12.5", p.Get("amount"))
	assert.Equal(t, "true", p.Get("flag"))
	assert.Empty(t, p.Values("missing"))
}

func TestRequestBodyParserBadJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"ids":`))
	assert.Error(t, NewRequestBodyParser(r).Err())
}

func TestParseAmountField(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("amount=1234,5&bad=abc&pct=15%25"))
	p := NewRequestBodyParser(r)

	d, err := ParseAmountField(p, "amount")
	require.NoError(t, err)
	assert.Equal(t, "1234.5", d.String())

	_, err = ParseAmountField(p, "bad")
	assert.ErrorIs(t, err, core.ErrValidation)

	pct, err := ParsePercentField(p, "pct")
	require.NoError(t, err)
	assert.Equal(t, "15", pct.String())
}
