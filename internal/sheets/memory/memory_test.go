package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgeteer/internal/sheets"
)

func TestExportMonthReplacesByKey(t *testing.T) {
	e := New()
	ctx := context.Background()
	row := sheets.MonthRow{UserID: "u1", Year: 2025, Month: 3, Income: decimal.NewFromInt(100)}

	ref1, err := e.ExportMonth(ctx, row)
	require.NoError(t, err)
	row.Income = decimal.NewFromInt(200)
	ref2, err := e.ExportMonth(ctx, row)
	require.NoError(t, err)
	assert.Equal(t, ref1, ref2)

	_, err = e.ExportMonth(ctx, sheets.MonthRow{UserID: "u1", Year: 2025, Month: 2})
	require.NoError(t, err)

	rows := e.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Month)
	assert.True(t, rows[1].Income.Equal(decimal.NewFromInt(200)))
}
