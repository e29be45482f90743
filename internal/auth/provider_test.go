package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"budgeteer/internal/core"
	"budgeteer/internal/storage/memory"
)

type recordingMailer struct {
	mu    sync.Mutex
	links map[string]string
}

func (m *recordingMailer) SendPasswordReset(_ context.Context, email, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.links == nil {
		m.links = map[string]string{}
	}
	m.links[email] = link
	return nil
}

func (m *recordingMailer) token(t *testing.T, email string) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	link, ok := m.links[email]
	require.True(t, ok, "no reset mail for %s", email)
	_, token, found := strings.Cut(link, "?token=")
	require.True(t, found)
	return token
}

type fixture struct {
	provider *LocalProvider
	store    *memory.Store
	mailer   *recordingMailer
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: memory.New(), mailer: &recordingMailer{}, now: time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)}
	f.provider = NewLocalProvider(f.store, NewTokenService("test-secret", 24*time.Hour), f.mailer,
		"http://localhost/reset-password",
		WithBcryptCost(bcrypt.MinCost),
		WithProviderClock(func() time.Time { return f.now }))
	return f
}

func TestSignUpCreatesUserWithDefaultCurrency(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, err := f.provider.SignUp(ctx, " Alice@Example.com ", "Secret123", "Secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "alice@example.com", session.Identity.Email)

	user, err := f.store.GetUser(ctx, session.Identity.ID)
	require.NoError(t, err)
	assert.Equal(t, core.DefaultCurrency, user.Currency)

	id, err := f.provider.CurrentUser(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.Identity.ID, id.ID)
}

// userWriteFailingStore accepts identities but cannot write user records.
type userWriteFailingStore struct {
	*memory.Store
}

func (userWriteFailingStore) UpsertUser(context.Context, core.User) error {
	return errors.New("users table locked")
}

func TestSignUpSurvivesUserRecordFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	provider := NewLocalProvider(userWriteFailingStore{store}, NewTokenService("test-secret", 24*time.Hour),
		&recordingMailer{}, "http://localhost/reset-password", WithBcryptCost(bcrypt.MinCost))

	session, err := provider.SignUp(ctx, "bob@example.com", "Secret123", "Secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)

	_, err = store.GetUser(ctx, session.Identity.ID)
	assert.Error(t, err)

	signedIn, err := provider.SignIn(ctx, "bob@example.com", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, session.Identity.ID, signedIn.Identity.ID)

	_, err = provider.SignUp(ctx, "bob@example.com", "Secret123", "Secret123")
	assert.True(t, errors.Is(err, core.ErrConflict))
}

func TestSignUpRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.provider.SignUp(ctx, "bob@example.com", "Secret123", "Secret123")
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		confirm  string
		kind     error
	}{
		{"bad email", "not-an-email", "Secret123", "Secret123", core.ErrValidation},
		{"short password", "c@example.com", "Sec1", "Sec1", core.ErrValidation},
		{"no digit", "c@example.com", "SecretPass", "SecretPass", core.ErrValidation},
		{"mismatch", "c@example.com", "Secret123", "Secret124", core.ErrValidation},
		{"duplicate", "BOB@example.com", "Secret123", "Secret123", core.ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.provider.SignUp(ctx, tt.email, tt.password, tt.confirm)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestSignInAndSignOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.provider.SignUp(ctx, "carol@example.com", "Secret123", "Secret123")
	require.NoError(t, err)

	_, err = f.provider.SignIn(ctx, "carol@example.com", "Wrong1234")
	assert.ErrorIs(t, err, core.ErrUnauthenticated)
	_, err = f.provider.SignIn(ctx, "nobody@example.com", "Secret123")
	assert.ErrorIs(t, err, core.ErrUnauthenticated)

	session, err := f.provider.SignIn(ctx, "CAROL@example.com", "Secret123")
	require.NoError(t, err)

	require.NoError(t, f.provider.SignOut(ctx, session.Token))
	_, err = f.provider.CurrentUser(ctx, session.Token)
	assert.ErrorIs(t, err, core.ErrUnauthenticated)

	assert.NoError(t, f.provider.SignOut(ctx, "garbage"))
}

func TestCurrentUserRejectsExpiredAndForeignTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session, err := f.provider.SignUp(ctx, "dan@example.com", "Secret123", "Secret123")
	require.NoError(t, err)

	_, err = f.provider.CurrentUser(ctx, "")
	assert.ErrorIs(t, err, core.ErrUnauthenticated)

	other := NewTokenService("other-secret", time.Hour)
	forged, _, err := other.GenerateToken(session.Identity.ID, "dan@example.com", 0)
	require.NoError(t, err)
	_, err = f.provider.CurrentUser(ctx, forged)
	assert.ErrorIs(t, err, core.ErrUnauthenticated)

	f.now = f.now.Add(25 * time.Hour)
	_, err = f.provider.CurrentUser(ctx, session.Token)
	assert.ErrorIs(t, err, core.ErrUnauthenticated)
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	old, err := f.provider.SignUp(ctx, "erin@example.com", "Secret123", "Secret123")
	require.NoError(t, err)

	require.NoError(t, f.provider.RequestPasswordReset(ctx, "unknown@example.com"))
	require.NoError(t, f.provider.RequestPasswordReset(ctx, "erin@example.com"))
	token := f.mailer.token(t, "erin@example.com")

	err = f.provider.ResetPassword(ctx, "wrong-token", "NewSecret1", "NewSecret1")
	assert.ErrorIs(t, err, core.ErrValidation)

	require.NoError(t, f.provider.ResetPassword(ctx, token, "NewSecret1", "NewSecret1"))

	_, err = f.provider.CurrentUser(ctx, old.Token)
	assert.ErrorIs(t, err, core.ErrUnauthenticated, "old sessions are revoked")
	_, err = f.provider.SignIn(ctx, "erin@example.com", "NewSecret1")
	require.NoError(t, err)

	err = f.provider.ResetPassword(ctx, token, "Another12", "Another12")
	assert.ErrorIs(t, err, core.ErrValidation, "reset tokens are single use")
}

func TestPasswordResetExpires(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.provider.SignUp(ctx, "fay@example.com", "Secret123", "Secret123")
	require.NoError(t, err)
	require.NoError(t, f.provider.RequestPasswordReset(ctx, "fay@example.com"))
	token := f.mailer.token(t, "fay@example.com")

	f.now = f.now.Add(ResetTokenTTL + time.Minute)
	err = f.provider.ResetPassword(ctx, token, "NewSecret1", "NewSecret1")
	require.Error(t, err)
	assert.Equal(t, "This reset link is invalid or has expired", core.UserMessage(err))
}

func TestUpdatePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session, err := f.provider.SignUp(ctx, "gus@example.com", "Secret123", "Secret123")
	require.NoError(t, err)

	err = f.provider.UpdatePassword(ctx, session.Identity.ID, "weak", "weak")
	assert.ErrorIs(t, err, core.ErrValidation)

	require.NoError(t, f.provider.UpdatePassword(ctx, session.Identity.ID, "Changed123", "Changed123"))
	_, err = f.provider.CurrentUser(ctx, session.Token)
	assert.ErrorIs(t, err, core.ErrUnauthenticated)
	_, err = f.provider.SignIn(ctx, "gus@example.com", "Changed123")
	assert.NoError(t, err)

	err = f.provider.UpdatePassword(ctx, "missing", "Changed123", "Changed123")
	assert.ErrorIs(t, err, core.ErrUnauthenticated)
}
