// Package auth is the identity provider: sign-up, sign-in, sessions and password resets.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"budgeteer/internal/core"
	"budgeteer/internal/log"
	"budgeteer/internal/storage"
)

// ResetTokenTTL bounds how long a password reset link stays valid.
const ResetTokenTTL = time.Hour

// Session is a signed-in session.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Identity  core.Identity
}

// Provider is the identity boundary used by the presentation layers.
type Provider interface {
	SignUp(ctx context.Context, email, password, confirm string) (Session, error)
	SignIn(ctx context.Context, email, password string) (Session, error)
	SignOut(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (core.Identity, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password, confirm string) error
	UpdatePassword(ctx context.Context, userID, password, confirm string) error
}

// Store is the persistence the local provider needs.
type Store interface {
	storage.IdentityStore
	UpsertUser(ctx context.Context, u core.User) error
}

// LocalProvider keeps credentials in the application database.
type LocalProvider struct {
	store    Store
	tokens   *TokenService
	mailer   Mailer
	resetURL string
	now      func() time.Time
	cost     int
	logger   *log.Logger
}

type ProviderOption func(*LocalProvider)

// WithBcryptCost lowers the hashing cost; tests use bcrypt.MinCost.
func WithBcryptCost(cost int) ProviderOption {
	return func(p *LocalProvider) { p.cost = cost }
}

func WithProviderClock(now func() time.Time) ProviderOption {
	return func(p *LocalProvider) {
		p.now = now
		p.tokens.now = now
	}
}

func WithProviderLogger(l *log.Logger) ProviderOption {
	return func(p *LocalProvider) { p.logger = l }
}

// NewLocalProvider builds a provider. resetURL is the absolute URL of the reset
// confirmation page; the token is appended as a query parameter.
func NewLocalProvider(store Store, tokens *TokenService, mailer Mailer, resetURL string, opts ...ProviderOption) *LocalProvider {
	p := &LocalProvider{
		store:    store,
		tokens:   tokens,
		mailer:   mailer,
		resetURL: resetURL,
		now:      time.Now,
		cost:     bcrypt.DefaultCost,
		logger:   log.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.WithComponent(log.ComponentAuth)
	return p
}

var _ Provider = (*LocalProvider)(nil)

func invalidCredentials() error {
	return &core.UserError{Kind: core.ErrUnauthenticated, Message: "Invalid email or password"}
}

// SignUp creates the identity and its user record with the default currency, then signs in.
// A failed user record write is logged and tolerated.
func (p *LocalProvider) SignUp(ctx context.Context, email, password, confirm string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := core.Check(core.SignUpInput{Email: email, Password: password, ConfirmPassword: confirm}); err != nil {
		return Session{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return Session{}, core.Failed("create account", err)
	}

	id := core.Identity{ID: uuid.NewString(), Email: email, PasswordHash: string(hash)}
	if err := p.store.CreateIdentity(ctx, id); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return Session{}, core.Conflict("An account with this email already exists")
		}
		return Session{}, p.fail(ctx, "create account", err)
	}
	// CompleteOnboarding writes the user record again.
	if err := p.store.UpsertUser(ctx, core.User{ID: id.ID, Email: email, Currency: core.DefaultCurrency}); err != nil {
		p.logger.WarnContext(ctx, "User record not created at sign up",
			log.FieldUserID, id.ID, log.FieldError, err, log.FieldErrorType, log.ErrorTypeDatabase)
	}
	p.logger.InfoContext(ctx, "Account created", log.FieldUserID, id.ID)
	return p.issue(id)
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := core.Check(core.SignInInput{Email: email, Password: password}); err != nil {
		return Session{}, err
	}
	id, err := p.store.IdentityByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return Session{}, invalidCredentials()
	}
	if err != nil {
		return Session{}, p.fail(ctx, "sign in", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(id.PasswordHash), []byte(password)); err != nil {
		p.logger.WarnContext(ctx, "Sign in rejected", log.FieldUserID, id.ID, log.FieldErrorType, log.ErrorTypeAuth)
		return Session{}, invalidCredentials()
	}
	return p.issue(id)
}

func (p *LocalProvider) issue(id core.Identity) (Session, error) {
	token, expires, err := p.tokens.GenerateToken(id.ID, id.Email, id.TokenVersion)
	if err != nil {
		return Session{}, core.Failed("sign in", err)
	}
	return Session{Token: token, ExpiresAt: expires, Identity: id}, nil
}

// SignOut revokes every session of the token's identity by bumping its token version.
// Invalid or expired tokens are ignored.
func (p *LocalProvider) SignOut(ctx context.Context, token string) error {
	id, err := p.CurrentUser(ctx, token)
	if err != nil {
		return nil
	}
	id.TokenVersion++
	if err := p.store.UpdateIdentity(ctx, id); err != nil {
		return p.fail(ctx, "sign out", err)
	}
	return nil
}

// CurrentUser resolves a session token into its identity.
func (p *LocalProvider) CurrentUser(ctx context.Context, token string) (core.Identity, error) {
	if token == "" {
		return core.Identity{}, core.Unauthenticated()
	}
	claims, err := p.tokens.ParseToken(token)
	if err != nil {
		return core.Identity{}, core.Unauthenticated()
	}
	id, err := p.store.IdentityByID(ctx, claims.Subject)
	if errors.Is(err, storage.ErrNotFound) {
		return core.Identity{}, core.Unauthenticated()
	}
	if err != nil {
		return core.Identity{}, p.fail(ctx, "load session", err)
	}
	if id.TokenVersion != claims.Version {
		return core.Identity{}, core.Unauthenticated()
	}
	return id, nil
}

// RequestPasswordReset mails a one-time link. Unknown emails succeed silently.
func (p *LocalProvider) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := core.Check(core.EmailInput{Email: email}); err != nil {
		return err
	}
	id, err := p.store.IdentityByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return p.fail(ctx, "send reset email", err)
	}

	raw, err := randomToken()
	if err != nil {
		return core.Failed("send reset email", err)
	}
	id.ResetTokenHash = hashToken(raw)
	id.ResetExpiresAt = p.now().Add(ResetTokenTTL)
	if err := p.store.UpdateIdentity(ctx, id); err != nil {
		return p.fail(ctx, "send reset email", err)
	}
	if err := p.mailer.SendPasswordReset(ctx, id.Email, p.resetURL+"?token="+raw); err != nil {
		return p.fail(ctx, "send reset email", err)
	}
	return nil
}

// ResetPassword completes a reset started by RequestPasswordReset.
func (p *LocalProvider) ResetPassword(ctx context.Context, token, password, confirm string) error {
	if err := core.Check(core.PasswordInput{Password: password, ConfirmPassword: confirm}); err != nil {
		return err
	}
	expired := core.Invalid("This reset link is invalid or has expired")
	if token == "" {
		return expired
	}
	id, err := p.store.IdentityByResetToken(ctx, hashToken(token))
	if errors.Is(err, storage.ErrNotFound) {
		return expired
	}
	if err != nil {
		return p.fail(ctx, "reset password", err)
	}
	if p.now().After(id.ResetExpiresAt) {
		return expired
	}
	return p.setPassword(ctx, id, password, "reset password")
}

// UpdatePassword changes the password of a signed-in user and revokes existing sessions.
func (p *LocalProvider) UpdatePassword(ctx context.Context, userID, password, confirm string) error {
	if err := core.Check(core.PasswordInput{Password: password, ConfirmPassword: confirm}); err != nil {
		return err
	}
	id, err := p.store.IdentityByID(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return core.Unauthenticated()
	}
	if err != nil {
		return p.fail(ctx, "update password", err)
	}
	return p.setPassword(ctx, id, password, "update password")
}

func (p *LocalProvider) setPassword(ctx context.Context, id core.Identity, password, action string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return core.Failed(action, err)
	}
	id.PasswordHash = string(hash)
	id.TokenVersion++
	id.ResetTokenHash = ""
	id.ResetExpiresAt = time.Time{}
	if err := p.store.UpdateIdentity(ctx, id); err != nil {
		return p.fail(ctx, action, err)
	}
	p.logger.InfoContext(ctx, "Password changed", log.FieldUserID, id.ID)
	return nil
}

func (p *LocalProvider) fail(ctx context.Context, action string, err error) error {
	p.logger.ErrorContext(ctx, "Identity operation failed", log.FieldOperation, action, log.FieldError, err)
	return core.Failed(action, err)
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
