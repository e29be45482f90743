package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"budgeteer/internal/core"
)

const categoryColumns = `id, user_id, name, color, is_savings, is_default, sort_order`

func scanCategory(row interface{ Scan(...any) error }) (core.Category, error) {
	var c core.Category
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Color, &c.IsSavings, &c.IsDefault, &c.SortOrder)
	return c, err
}

func (r *SQLRepository) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := r.query(ctx, r.db,
		`SELECT `+categoryColumns+` FROM categories WHERE user_id = ? ORDER BY sort_order, created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLRepository) GetCategory(ctx context.Context, userID, id string) (core.Category, error) {
	c, err := scanCategory(r.queryRow(ctx, r.db,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", notFound(err))
	}
	return c, nil
}

func (r *SQLRepository) MaxSortOrder(ctx context.Context, userID string) (int, bool, error) {
	var max sql.NullInt64
	if err := r.queryRow(ctx, r.db, `SELECT MAX(sort_order) FROM categories WHERE user_id = ?`, userID).Scan(&max); err != nil {
		return 0, false, fmt.Errorf("max sort order: %w", err)
	}
	return int(max.Int64), max.Valid, nil
}

func (r *SQLRepository) CreateCategory(ctx context.Context, c core.Category) error {
	_, err := r.exec(ctx, r.db,
		`INSERT INTO categories (`+categoryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Name, c.Color, c.IsSavings, c.IsDefault, c.SortOrder)
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	slog.InfoContext(ctx, "Category created", "user_id", c.UserID, "category_id", c.ID, "name", c.Name)
	return nil
}

func (r *SQLRepository) EnsureCategory(ctx context.Context, c core.Category) error {
	_, err := r.exec(ctx, r.db,
		`INSERT INTO categories (`+categoryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, name) DO NOTHING`,
		c.ID, c.UserID, c.Name, c.Color, c.IsSavings, c.IsDefault, c.SortOrder)
	if err != nil {
		return fmt.Errorf("ensure category: %w", err)
	}
	return nil
}

func (r *SQLRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := r.exec(ctx, r.db,
		`UPDATE categories SET name = ?, color = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ?`,
		c.Name, c.Color, c.ID, c.UserID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if err := expectOne(res); err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

// DeleteCategory removes the category; allocations go with it through the foreign key cascade.
func (r *SQLRepository) DeleteCategory(ctx context.Context, userID, id string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := r.exec(ctx, tx, `DELETE FROM allocations WHERE category_id = ?
			AND category_id IN (SELECT id FROM categories WHERE user_id = ?)`, id, userID); err != nil {
			return fmt.Errorf("delete category allocations: %w", err)
		}
		res, err := r.exec(ctx, tx, `DELETE FROM categories WHERE id = ? AND user_id = ?`, id, userID)
		if err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		if err := expectOne(res); err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		return nil
	})
}

func (r *SQLRepository) ReorderCategories(ctx context.Context, userID string, ids []string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		for i, id := range ids {
			res, err := r.exec(ctx, tx,
				`UPDATE categories SET sort_order = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ?`,
				i, id, userID)
			if err != nil {
				return fmt.Errorf("reorder category %s: %w", id, err)
			}
			if err := expectOne(res); err != nil {
				return fmt.Errorf("reorder category %s: %w", id, err)
			}
		}
		return nil
	})
}
