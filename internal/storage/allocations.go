package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"budgeteer/internal/core"
)

const allocationDetailQuery = `
	SELECT a.id, a.budget_month_id, a.category_id, a.amount, c.name, c.color, c.is_savings, c.sort_order
	FROM allocations a
	JOIN categories c ON c.id = a.category_id`

func scanAllocationDetail(rows *sql.Rows) (core.AllocationDetail, error) {
	var d core.AllocationDetail
	err := rows.Scan(&d.ID, &d.BudgetMonthID, &d.CategoryID, &d.Amount,
		&d.CategoryName, &d.CategoryColor, &d.IsSavings, &d.SortOrder)
	return d, err
}

func (r *SQLRepository) listAllocationDetails(ctx context.Context, query string, args ...any) ([]core.AllocationDetail, error) {
	rows, err := r.query(ctx, r.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	defer rows.Close()

	var out []core.AllocationDetail
	for rows.Next() {
		d, err := scanAllocationDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *SQLRepository) ListAllocations(ctx context.Context, monthID string) ([]core.AllocationDetail, error) {
	return r.listAllocationDetails(ctx,
		allocationDetailQuery+` WHERE a.budget_month_id = ? ORDER BY c.sort_order, c.name`, monthID)
}

func (r *SQLRepository) ListUserAllocations(ctx context.Context, userID string) ([]core.AllocationDetail, error) {
	return r.listAllocationDetails(ctx,
		allocationDetailQuery+` JOIN budget_months m ON m.id = a.budget_month_id
		WHERE m.user_id = ? ORDER BY m.year, m.month, c.sort_order, c.name`, userID)
}

func (r *SQLRepository) GetAllocation(ctx context.Context, userID, id string) (core.Allocation, error) {
	var a core.Allocation
	err := r.queryRow(ctx, r.db, `
		SELECT a.id, a.budget_month_id, a.category_id, a.amount
		FROM allocations a JOIN budget_months m ON m.id = a.budget_month_id
		WHERE a.id = ? AND m.user_id = ?`, id, userID).
		Scan(&a.ID, &a.BudgetMonthID, &a.CategoryID, &a.Amount)
	if err != nil {
		return core.Allocation{}, fmt.Errorf("get allocation: %w", notFound(err))
	}
	return a, nil
}

const upsertAllocation = `
	INSERT INTO allocations (id, budget_month_id, category_id, amount) VALUES (?, ?, ?, ?)
	ON CONFLICT (budget_month_id, category_id)
	DO UPDATE SET amount = excluded.amount, updated_at = CURRENT_TIMESTAMP`

func (r *SQLRepository) UpsertAllocation(ctx context.Context, a core.Allocation) error {
	if _, err := r.exec(ctx, r.db, upsertAllocation, a.ID, a.BudgetMonthID, a.CategoryID, a.Amount); err != nil {
		return fmt.Errorf("upsert allocation: %w", err)
	}
	slog.DebugContext(ctx, "Allocation saved",
		"month_id", a.BudgetMonthID, "category_id", a.CategoryID, "amount", a.Amount.String())
	return nil
}

func (r *SQLRepository) UpsertAllocations(ctx context.Context, items []core.Allocation) error {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		for _, a := range items {
			if _, err := r.exec(ctx, tx, upsertAllocation, a.ID, a.BudgetMonthID, a.CategoryID, a.Amount); err != nil {
				return fmt.Errorf("upsert allocation for category %s: %w", a.CategoryID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Allocations saved", "count", len(items))
	return nil
}

func (r *SQLRepository) DeleteAllocation(ctx context.Context, id string) error {
	res, err := r.exec(ctx, r.db, `DELETE FROM allocations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete allocation: %w", err)
	}
	if err := expectOne(res); err != nil {
		return fmt.Errorf("delete allocation: %w", err)
	}
	return nil
}

// DeleteAllocationFor removes the (month, category) row if present. Missing rows are not an error.
func (r *SQLRepository) DeleteAllocationFor(ctx context.Context, monthID, categoryID string) error {
	if _, err := r.exec(ctx, r.db,
		`DELETE FROM allocations WHERE budget_month_id = ? AND category_id = ?`, monthID, categoryID); err != nil {
		return fmt.Errorf("delete allocation: %w", err)
	}
	return nil
}
