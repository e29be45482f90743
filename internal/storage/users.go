package storage

import (
	"context"
	"fmt"
	"log/slog"

	"budgeteer/internal/core"
)

func (r *SQLRepository) GetUser(ctx context.Context, id string) (core.User, error) {
	var u core.User
	err := r.queryRow(ctx, r.db, `SELECT id, email, currency FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Email, &u.Currency)
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", notFound(err))
	}
	return u, nil
}

// UpsertUser inserts u or updates its email and currency.
func (r *SQLRepository) UpsertUser(ctx context.Context, u core.User) error {
	_, err := r.exec(ctx, r.db, `
		INSERT INTO users (id, email, currency) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET email = excluded.email, currency = excluded.currency, updated_at = CURRENT_TIMESTAMP`,
		u.ID, u.Email, u.Currency)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	slog.DebugContext(ctx, "User saved", "user_id", u.ID, "currency", u.Currency)
	return nil
}

func (r *SQLRepository) UpdateCurrency(ctx context.Context, userID, currency string) error {
	res, err := r.exec(ctx, r.db, `UPDATE users SET currency = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, currency, userID)
	if err != nil {
		return fmt.Errorf("update currency: %w", err)
	}
	if err := expectOne(res); err != nil {
		return fmt.Errorf("update currency: %w", err)
	}
	return nil
}

func (r *SQLRepository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.query(ctx, r.db, `SELECT id, email, currency FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []core.User
	for rows.Next() {
		var u core.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Currency); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
