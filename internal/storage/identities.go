package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"budgeteer/internal/core"
)

const identityColumns = `id, email, password_hash, token_version, reset_token_hash, reset_expires_at`

func scanIdentity(row *sql.Row) (core.Identity, error) {
	var (
		id      core.Identity
		token   sql.NullString
		expires sql.NullInt64
	)
	if err := row.Scan(&id.ID, &id.Email, &id.PasswordHash, &id.TokenVersion, &token, &expires); err != nil {
		return core.Identity{}, notFound(err)
	}
	id.ResetTokenHash = token.String
	if expires.Valid {
		id.ResetExpiresAt = time.Unix(expires.Int64, 0).UTC()
	}
	return id, nil
}

func nullUnix(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func (r *SQLRepository) CreateIdentity(ctx context.Context, id core.Identity) error {
	_, err := r.exec(ctx, r.db,
		`INSERT INTO identities (`+identityColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		id.ID, strings.ToLower(id.Email), id.PasswordHash, id.TokenVersion,
		nullString(id.ResetTokenHash), nullUnix(id.ResetExpiresAt))
	if err != nil {
		return fmt.Errorf("create identity: %w", err)
	}
	return nil
}

func (r *SQLRepository) IdentityByID(ctx context.Context, id string) (core.Identity, error) {
	ident, err := scanIdentity(r.queryRow(ctx, r.db, `SELECT `+identityColumns+` FROM identities WHERE id = ?`, id))
	if err != nil {
		return core.Identity{}, fmt.Errorf("get identity: %w", err)
	}
	return ident, nil
}

func (r *SQLRepository) IdentityByEmail(ctx context.Context, email string) (core.Identity, error) {
	ident, err := scanIdentity(r.queryRow(ctx, r.db,
		`SELECT `+identityColumns+` FROM identities WHERE email = ?`, strings.ToLower(email)))
	if err != nil {
		return core.Identity{}, fmt.Errorf("get identity by email: %w", err)
	}
	return ident, nil
}

func (r *SQLRepository) IdentityByResetToken(ctx context.Context, tokenHash string) (core.Identity, error) {
	ident, err := scanIdentity(r.queryRow(ctx, r.db,
		`SELECT `+identityColumns+` FROM identities WHERE reset_token_hash = ?`, tokenHash))
	if err != nil {
		return core.Identity{}, fmt.Errorf("get identity by reset token: %w", err)
	}
	return ident, nil
}

func (r *SQLRepository) UpdateIdentity(ctx context.Context, id core.Identity) error {
	res, err := r.exec(ctx, r.db,
		`UPDATE identities SET password_hash = ?, token_version = ?, reset_token_hash = ?, reset_expires_at = ? WHERE id = ?`,
		id.PasswordHash, id.TokenVersion, nullString(id.ResetTokenHash), nullUnix(id.ResetExpiresAt), id.ID)
	if err != nil {
		return fmt.Errorf("update identity: %w", err)
	}
	if err := expectOne(res); err != nil {
		return fmt.Errorf("update identity: %w", err)
	}
	return nil
}
