package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgeteer/internal/core"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestSeedThenInspect(t *testing.T) {
	db := filepath.Join(t.TempDir(), "data", "budget.db")
	cfg := writeConfig(t, "log:\n  level: error\n")
	global := []string{"--config", cfg, "--backend", "sqlite", "--sqlite-path", db}

	out := run(t, append(global, "migrate")...)
	assert.Contains(t, out, "Database migrated")

	out = run(t, append(global, "seed", "--user-id", "u1", "--email", "demo@example.com", "--income", "4000", "--currency", "usd")...)
	assert.Contains(t, out, "Seeded demo@example.com")
	assert.Contains(t, out, "$ 4,000.00")

	out = run(t, append(global, "categories", "list", "--user-id", "u1")...)
	for _, d := range core.DefaultCategories {
		assert.Contains(t, out, d.Name)
	}
	assert.Contains(t, out, "savings")

	out = run(t, append(global, "insights", "--user-id", "u1")...)
	assert.Contains(t, out, "Savings insights")
	assert.Contains(t, out, "$ 4,000.00")
}

func TestVersion(t *testing.T) {
	cfg := writeConfig(t, "database:\n  backend: memory\n")
	assert.Equal(t, "budgetctl dev\n", run(t, "--config", cfg, "version"))
}

func TestRenderInsightsEmpty(t *testing.T) {
	assert.Contains(t, renderInsights(core.ComputeInsights(nil), "USD"), "No budget history yet.")
}

func TestRenderInsightsListsLowSavingsMonths(t *testing.T) {
	in := core.Insights{
		TotalMonths: 2,
		MonthsWithLowSavings: []core.MonthlyTrend{{
			YearMonth:        core.YearMonth{Year: 2025, Month: 1},
			SavingsRate:      decimal.RequireFromString("0.10"),
			AdjustmentReason: "Car repair this month",
		}},
	}
	out := renderInsights(in, "USD")
	assert.Contains(t, out, "Low month")
	assert.Contains(t, out, "Jan 2025")
	assert.Contains(t, out, "10%")
	assert.Contains(t, out, "Car repair this month")
}

func TestCategoriesTable(t *testing.T) {
	out := categoriesTable([]core.Category{
		{ID: "c1", Name: "Savings", Color: "#10b981", IsSavings: true, IsDefault: true},
		{ID: "c2", Name: "Pets", Color: "#f59e0b", SortOrder: 7},
	})
	assert.Contains(t, out, "Savings")
	assert.Contains(t, out, "Pets")
	assert.Contains(t, out, "savings")
}
