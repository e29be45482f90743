package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"budgeteer/internal/core"
)

const monthColumns = `id, user_id, year, month, income, savings_rate, adjustment_reason`

func scanMonth(row interface{ Scan(...any) error }) (core.BudgetMonth, error) {
	var (
		m      core.BudgetMonth
		reason sql.NullString
	)
	err := row.Scan(&m.ID, &m.UserID, &m.Year, &m.Month, &m.Income, &m.SavingsRate, &reason)
	m.AdjustmentReason = reason.String
	return m, err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *SQLRepository) GetMonth(ctx context.Context, userID, id string) (core.BudgetMonth, error) {
	m, err := scanMonth(r.queryRow(ctx, r.db,
		`SELECT `+monthColumns+` FROM budget_months WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		return core.BudgetMonth{}, fmt.Errorf("get month: %w", notFound(err))
	}
	return m, nil
}

func (r *SQLRepository) FindMonth(ctx context.Context, userID string, ym core.YearMonth) (core.BudgetMonth, error) {
	m, err := scanMonth(r.queryRow(ctx, r.db,
		`SELECT `+monthColumns+` FROM budget_months WHERE user_id = ? AND year = ? AND month = ?`,
		userID, ym.Year, ym.Month))
	if err != nil {
		return core.BudgetMonth{}, fmt.Errorf("find month %s: %w", ym, notFound(err))
	}
	return m, nil
}

func (r *SQLRepository) LatestMonthBefore(ctx context.Context, userID string, ym core.YearMonth) (core.BudgetMonth, error) {
	m, err := scanMonth(r.queryRow(ctx, r.db,
		`SELECT `+monthColumns+` FROM budget_months
		WHERE user_id = ? AND (year < ? OR (year = ? AND month < ?))
		ORDER BY year DESC, month DESC LIMIT 1`,
		userID, ym.Year, ym.Year, ym.Month))
	if err != nil {
		return core.BudgetMonth{}, fmt.Errorf("latest month before %s: %w", ym, notFound(err))
	}
	return m, nil
}

func (r *SQLRepository) ListMonths(ctx context.Context, userID string) ([]core.BudgetMonth, error) {
	rows, err := r.query(ctx, r.db,
		`SELECT `+monthColumns+` FROM budget_months WHERE user_id = ? ORDER BY year, month`, userID)
	if err != nil {
		return nil, fmt.Errorf("list months: %w", err)
	}
	defer rows.Close()

	var out []core.BudgetMonth
	for rows.Next() {
		m, err := scanMonth(rows)
		if err != nil {
			return nil, fmt.Errorf("scan month: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *SQLRepository) CreateMonth(ctx context.Context, m core.BudgetMonth) error {
	_, err := r.exec(ctx, r.db,
		`INSERT INTO budget_months (`+monthColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.Year, m.Month, m.Income, m.SavingsRate, nullString(m.AdjustmentReason))
	if err != nil {
		return fmt.Errorf("create month: %w", err)
	}
	slog.InfoContext(ctx, "Budget month created", "user_id", m.UserID, "year", m.Year, "month", m.Month)
	return nil
}

func (r *SQLRepository) UpdateMonth(ctx context.Context, m core.BudgetMonth) error {
	res, err := r.exec(ctx, r.db,
		`UPDATE budget_months SET income = ?, savings_rate = ?, adjustment_reason = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ?`,
		m.Income, m.SavingsRate, nullString(m.AdjustmentReason), m.ID, m.UserID)
	if err != nil {
		return fmt.Errorf("update month: %w", err)
	}
	if err := expectOne(res); err != nil {
		return fmt.Errorf("update month: %w", err)
	}
	return nil
}
