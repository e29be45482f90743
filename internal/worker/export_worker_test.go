package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgeteer/internal/amqp"
	"budgeteer/internal/core"
	"budgeteer/internal/sheets"
	sheetsmem "budgeteer/internal/sheets/memory"
	"budgeteer/internal/storage/memory"
)

type flakyExporter struct {
	mu       sync.Mutex
	failures int
	calls    int
	inner    *sheetsmem.Exporter
}

func (f *flakyExporter) ExportMonth(ctx context.Context, row sheets.MonthRow) (string, error) {
	f.mu.Lock()
	f.calls++
	fail := f.calls <= f.failures
	f.mu.Unlock()
	if fail {
		return "", errors.New("sheets unavailable")
	}
	return f.inner.ExportMonth(ctx, row)
}

func fastBackoff() retry.Backoff {
	return retry.WithMaxRetries(3, retry.NewConstant(time.Millisecond))
}

var exportTime = time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)

func seed(t *testing.T) (*memory.Store, core.BudgetMonth) {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.UpsertUser(ctx, core.User{ID: "u1", Email: "a@example.com", Currency: "USD"}))
	require.NoError(t, store.CreateCategory(ctx, core.Category{ID: "c1", UserID: "u1", Name: "Food", Color: "#f59e0b", SortOrder: 1}))
	month := core.BudgetMonth{ID: "m1", UserID: "u1", Year: 2025, Month: 3,
		Income: decimal.NewFromInt(5000), SavingsRate: decimal.RequireFromString("0.2")}
	require.NoError(t, store.CreateMonth(ctx, month))
	require.NoError(t, store.UpsertAllocation(ctx, core.Allocation{ID: "a1", BudgetMonthID: "m1", CategoryID: "c1", Amount: decimal.NewFromInt(1500)}))
	return store, month
}

func TestHandleMonthChangedExportsSummary(t *testing.T) {
	store, _ := seed(t)
	out := sheetsmem.New()
	w := NewExportWorker(store, out, WithBackoff(fastBackoff), WithClock(func() time.Time { return exportTime }))

	err := w.HandleMonthChanged(context.Background(), amqp.NewMonthChangedMessage("u1", "m1", "update"))
	require.NoError(t, err)

	rows := out.Rows()
	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, "a@example.com", row.Email)
	assert.True(t, row.Savings.Equal(decimal.NewFromInt(1000)))
	assert.True(t, row.Allocated.Equal(decimal.NewFromInt(2500)))
	assert.True(t, row.Remaining.Equal(decimal.NewFromInt(2500)))
	assert.Equal(t, exportTime, row.UpdatedAt)
}

func TestHandleMonthChangedSkipsMissingRecords(t *testing.T) {
	store, _ := seed(t)
	out := sheetsmem.New()
	w := NewExportWorker(store, out, WithBackoff(fastBackoff))
	ctx := context.Background()

	assert.NoError(t, w.HandleMonthChanged(ctx, amqp.NewMonthChangedMessage("u1", "gone", "delete")))
	assert.NoError(t, w.HandleMonthChanged(ctx, amqp.NewMonthChangedMessage("ghost", "m1", "update")))
	assert.Empty(t, out.Rows())
}

func TestExportRetriesTransientFailures(t *testing.T) {
	store, _ := seed(t)
	exp := &flakyExporter{failures: 2, inner: sheetsmem.New()}
	w := NewExportWorker(store, exp, WithBackoff(fastBackoff))

	require.NoError(t, w.HandleMonthChanged(context.Background(), amqp.NewMonthChangedMessage("u1", "m1", "update")))
	assert.Equal(t, 3, exp.calls)
	assert.Len(t, exp.inner.Rows(), 1)
}

func TestExportGivesUpAfterRetries(t *testing.T) {
	store, _ := seed(t)
	exp := &flakyExporter{failures: 100, inner: sheetsmem.New()}
	w := NewExportWorker(store, exp, WithBackoff(fastBackoff))

	err := w.HandleMonthChanged(context.Background(), amqp.NewMonthChangedMessage("u1", "m1", "update"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "sheets unavailable")
	assert.Equal(t, 4, exp.calls)
}

func TestExportAll(t *testing.T) {
	store, _ := seed(t)
	ctx := context.Background()
	require.NoError(t, store.CreateMonth(ctx, core.BudgetMonth{ID: "m0", UserID: "u1", Year: 2025, Month: 2,
		Income: decimal.NewFromInt(4000), SavingsRate: decimal.RequireFromString("0.25")}))
	require.NoError(t, store.UpsertUser(ctx, core.User{ID: "u2", Email: "b@example.com", Currency: "SLE"}))
	require.NoError(t, store.CreateMonth(ctx, core.BudgetMonth{ID: "m2", UserID: "u2", Year: 2025, Month: 3,
		Income: decimal.NewFromInt(100), SavingsRate: decimal.RequireFromString("0.2")}))

	out := sheetsmem.New()
	w := NewExportWorker(store, out, WithBackoff(fastBackoff))
	n, err := w.ExportAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Len(t, out.Rows(), 3)
}

func TestRunStopsOnCancel(t *testing.T) {
	store, _ := seed(t)
	out := sheetsmem.New()
	w := NewExportWorker(store, out, WithBackoff(fastBackoff))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx, time.Hour)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(out.Rows()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
