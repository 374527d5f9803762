package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/blog_service/internal/hash"
	"github.com/Skotchmaster/blog_service/internal/models"
	"github.com/Skotchmaster/blog_service/internal/mykafka"
	"github.com/Skotchmaster/blog_service/internal/tokens"
)

func TestAuthService_Register(t *testing.T) {
	t.Parallel()

	env := newTestAuthService(t)
	ctx := context.Background()

	u, err := env.svc.Register(ctx, "alice", "alice@example.com", "password1")
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.True(t, u.Active)
	assert.NotEqual(t, "password1", u.PasswordHash)

	_, err = env.svc.Register(ctx, "alice", "other@example.com", "password1")
	assert.ErrorIs(t, err, ErrUsernameTaken)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = env.svc.Register(ctx, "alice2", "alice@example.com", "password1")
	assert.ErrorIs(t, err, ErrEmailTaken)

	assert.Contains(t, env.events.Types(), mykafka.EventUserRegistered)
}

func TestAuthService_Register_Validation(t *testing.T) {
	t.Parallel()

	env := newTestAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{name: "short username", username: "ab", email: "ab@example.com", password: "secret1"},
		{name: "long username", username: "abcdefghijklmnopqrstu", email: "x@example.com", password: "secret1"},
		{name: "bad email", username: "carol", email: "not-an-email", password: "secret1"},
		{name: "empty email", username: "carol", email: "", password: "secret1"},
		{name: "short password", username: "carol", email: "carol@example.com", password: "123"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Register(ctx, tt.username, tt.email, tt.password)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestAuthService_SignIn_Validation(t *testing.T) {
	t.Parallel()

	env := newTestAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
	}{
		{name: "empty username", username: "", password: "secret"},
		{name: "blank username", username: "   ", password: "secret"},
		{name: "empty password", username: "user", password: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			res, err := env.svc.SignIn(ctx, tt.username, tt.password, models.ClientMeta{})
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestAuthService_SignIn_IssuesSession(t *testing.T) {
	t.Parallel()

	env := newTestAuthService(t)
	ctx := context.Background()
	env.register(t, "alice", "password1")

	res, err := env.svc.SignIn(ctx, "alice", "password1", models.ClientMeta{IP: "10.0.0.1", UserAgent: "curl"})
	require.NoError(t, err)
	require.NotNil(t, res.Session)
	assert.False(t, res.MfaRequired)
	assert.Equal(t, "alice", res.Session.User.Username)
	assert.WithinDuration(t, time.Now().Add(time.Hour), res.Session.ExpiresAt, 2*time.Second)

	user, err := env.svc.ValidateToken(ctx, res.Session.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	sessions, err := env.svc.MySessions(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "10.0.0.1", sessions[0].ClientIP)
	assert.Equal(t, "curl", sessions[0].UserAgent)
}

func TestAuthService_SignIn_SingleActiveSession(t *testing.T) {
	t.Parallel()

	env := newTestAuthService(t)
	ctx := context.Background()
	env.register(t, "alice", "password1")

	first, err := env.svc.SignIn(ctx, "alice", "password1", models.ClientMeta{})
	require.NoError(t, err)
	second, err := env.svc.SignIn(ctx, "alice", "password1", models.ClientMeta{})
	require.NoError(t, err)
	require.NotEqual(t, first.Session.Token, second.Session.Token)

	_, err = env.svc.ValidateToken(ctx, first.Session.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = env.svc.ValidateToken(ctx, second.Session.Token)
	assert.NoError(t, err)

	sessions, err := env.svc.MySessions(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestAuthService_SignIn_InvalidCredentials(t *testing.T) {
	t.Parallel()

	env := newTestAuthService(t)
	ctx := context.Background()
	env.register(t, "alice", "password1")

	_, err := env.svc.SignIn(ctx, "alice", "wrong-password", models.ClientMeta{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.svc.SignIn(ctx, "nobody", "password1", models.ClientMeta{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	u, err := env.repo.FindUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, u.FailedLoginAttempts)
}

func TestAuthService_SignIn_LockoutAfterFiveFailures(t *testing.T) {
	t.Parallel()

	env := newTestAuthService(t)
	ctx := context.Background()
	env.register(t, "alice", "password1")

	for i := 1; i <= 4; i++ {
		_, err := env.svc.SignIn(ctx, "alice", "wrong-password", models.ClientMeta{})
		require.ErrorIs(t, err, ErrInvalidCredentials, "attempt %d", i)
	}

	_, err := env.svc.SignIn(ctx, "alice", "wrong-password", models.ClientMeta{})
	require.ErrorIs(t, err, ErrAccountLocked)
	var locked *AccountLockedError
	require.True(t, errors.As(err, &locked))
	assert.True(t, locked.JustLocked)
	assert.Equal(t, 10, locked.Minutes)
	assert.Equal(t, "Account is locked due to too many failed attempts. Try again in 10 minutes.", err.Error())

	// the correct password is not even checked while locked
	res, err := env.svc.SignIn(ctx, "alice", "password1", models.ClientMeta{})
	require.ErrorIs(t, err, ErrAccountLocked)
	assert.Nil(t, res)
	require.True(t, errors.As(err, &locked))
	assert.False(t, locked.JustLocked)
	assert.Equal(t, "Account is locked. Try again in 11 minutes.", err.Error())

	sessions, err := env.svc.MySessions(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, sessions)

	env.clock.Advance(10*time.Minute + time.Second)
	res, err = env.svc.SignIn(ctx, "alice", "password1", models.ClientMeta{})
	require.NoError(t, err)
	require.NotNil(t, res.Session)

	assert.Contains(t, env.events.Types(), mykafka.EventUserLockedOut)
}

func TestAuthService_SignIn_SuccessResetsCounter(t *testing.T) {
	t.Parallel()

	env := newTestAuthService(t)
	ctx := context.Background()
	env.register(t, "alice", "password1")

	for i := 0; i < 4; i++ {
		_, err := env.svc.SignIn(ctx, "alice", "wrong-password", models.ClientMeta{})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}
	_, err := env.svc.SignIn(ctx, "alice", "password1", models.ClientMeta{})
	require.NoError(t, err)

	u, err := env.repo.FindUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, u.FailedLoginAttempts)

	for i := 0; i < 4; i++ {
		_, err := env.svc.SignIn(ctx, "alice", "wrong-password", models.ClientMeta{})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}
}

func TestAuthService_SignIn_UnknownUserIsLimitedToo(t *testing.T) {
	t.Parallel()

	env := newTestAuthService(t)
	ctx := context.Background()

	var err error
	for i := 0; i < 5; i++ {
		_, err = env.svc.SignIn(ctx, "ghost", "whatever", models.ClientMeta{})
	}
	assert.ErrorIs(t, err, ErrAccountLocked)
}

func TestAuthService_SignIn_InactiveAccount(t *testing.T) {
	t.Parallel()

	env := newTestAuthService(t)
	ctx := context.Background()
	u := env.register(t, "alice", "password1")
	require.NoError(t, env.repo.SetActive(ctx, u.ID, false))

	_, err := env.svc.SignIn(ctx, "alice", "password1", models.ClientMeta{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_MfaTwoStepFlow(t *testing.T) {
	t.Parallel()

	env := newTestAuthService(t)
	ctx := context.Background()
	u := env.register(t, "bob", "password1")
	secret := env.enableMfa(t, u)

	res, err := env.svc.SignIn(ctx, "bob", "password1", models.ClientMeta{})
	require.NoError(t, err)
	require.True(t, res.MfaRequired)
	require.Nil(t, res.Session)
	require.NotEmpty(t, res.PendingToken)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), res.PendingExpiresAt, 2*time.Second)

	// no session exists until the code is verified
	sessions, err := env.svc.MySessions(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, sessions)

	// the pending token is not a session token
	_, err = env.svc.ValidateToken(ctx, res.PendingToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = env.svc.VerifyMfa(ctx, res.PendingToken, wrongCode(t, secret), models.ClientMeta{})
	require.ErrorIs(t, err, ErrInvalidMfaCode)

	sessions, err = env.svc.MySessions(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, sessions)

	sess, err := env.svc.VerifyMfa(ctx, res.PendingToken, currentCode(t, secret), models.ClientMeta{})
	require.NoError(t, err)
	assert.NotEqual(t, res.PendingToken, sess.Token)

	user, err := env.svc.ValidateToken(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "bob", user.Username)
}

func TestAuthService_VerifyMfa_InvalidPendingToken(t *testing.T) {
	t.Parallel()

	env := newTestAuthService(t)
	ctx := context.Background()
	u := env.register(t, "bob", "password1")
	secret := env.enableMfa(t, u)

	_, err := env.svc.VerifyMfa(ctx, "not-a-valid-jwt", currentCode(t, secret), models.ClientMeta{})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_Logout(t *testing.T) {
	t.Parallel()

	env := newTestAuthService(t)
	ctx := context.Background()
	env.register(t, "alice", "password1")

	res, err := env.svc.SignIn(ctx, "alice", "password1", models.ClientMeta{})
	require.NoError(t, err)
	token := res.Session.Token

	require.NoError(t, env.svc.Logout(ctx, token))

	_, err = env.svc.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	err = env.svc.Logout(ctx, token)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	err = env.svc.Logout(ctx, "not-a-valid-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	assert.Contains(t, env.events.Types(), mykafka.EventUserLoggedOut)
}

func TestAuthService_RevocationIsIndependentOfTokenStore(t *testing.T) {
	t.Parallel()

	env := newTestAuthService(t)
	ctx := context.Background()
	env.register(t, "alice", "password1")

	res, err := env.svc.SignIn(ctx, "alice", "password1", models.ClientMeta{})
	require.NoError(t, err)
	token := res.Session.Token

	_, err = env.repo.AddRevocation(ctx, token, res.Session.ExpiresAt, nil, "compromised", time.Now())
	require.NoError(t, err)

	// drop the token store row so only the registry knows about the token
	require.NoError(t, env.repo.DB.Where("token_hash = ?", hash.Sha256Hex(token)).Delete(&models.SessionToken{}).Error)
	valid, err := env.repo.IsTokenValid(ctx, token, time.Now())
	require.NoError(t, err)
	require.False(t, valid)

	_, err = env.svc.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	// a token that never had a row at all
	stray, _, err := env.svc.Issuer.IssueSessionToken("alice")
	require.NoError(t, err)
	_, err = env.repo.AddRevocation(ctx, stray, time.Now().Add(time.Hour), nil, "compromised", time.Now())
	require.NoError(t, err)
	_, err = env.svc.ValidateToken(ctx, stray)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestAuthService_ExpiredPendingTokenKeepsPriorSession(t *testing.T) {
	t.Parallel()

	env := newTestAuthService(t)
	ctx := context.Background()
	user := env.register(t, "alice", "password1")

	res, err := env.svc.SignIn(ctx, "alice", "password1", models.ClientMeta{})
	require.NoError(t, err)
	prior := res.Session.Token

	past := tokens.NewIssuer(testSecret, time.Hour, 5*time.Minute, tokens.WithClock(func() time.Time {
		return time.Now().Add(-10 * time.Minute)
	}))
	expired, _, err := past.IssuePendingMfaToken("alice")
	require.NoError(t, err)

	sess, err := env.svc.issueSession(ctx, slog.Default(), user, models.ClientMeta{}, func() (string, time.Time, error) {
		return env.svc.Issuer.IssueTokenFromPendingToken(expired)
	})
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, sess)

	got, err := env.svc.ValidateToken(ctx, prior)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
}

func TestAuthService_BlacklistFailureAbortsIssuance(t *testing.T) {
	t.Parallel()

	env := newTestAuthService(t)
	ctx := context.Background()
	env.register(t, "alice", "password1")
	env.svc.Tokens = &faultyTokens{TokenStore: env.repo, failBlacklistAll: true}

	res, err := env.svc.SignIn(ctx, "alice", "password1", models.ClientMeta{})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Nil(t, res)
}

func TestAuthService_StoreFailureStillReturnsToken(t *testing.T) {
	t.Parallel()

	env := newTestAuthService(t)
	ctx := context.Background()
	env.register(t, "alice", "password1")
	env.svc.Tokens = &faultyTokens{TokenStore: env.repo, failCreate: true}

	res, err := env.svc.SignIn(ctx, "alice", "password1", models.ClientMeta{})
	require.NoError(t, err)
	require.NotEmpty(t, res.Session.Token)

	// without a token store row the filter refuses it
	_, err = env.svc.ValidateToken(ctx, res.Session.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_AliceScenario(t *testing.T) {
	t.Parallel()

	env := newTestAuthService(t)
	ctx := context.Background()
	env.register(t, "alice", "password1")

	laptop, err := env.svc.SignIn(ctx, "alice", "password1", models.ClientMeta{UserAgent: "laptop"})
	require.NoError(t, err)
	_, err = env.svc.ValidateToken(ctx, laptop.Session.Token)
	require.NoError(t, err)

	phone, err := env.svc.SignIn(ctx, "alice", "password1", models.ClientMeta{UserAgent: "phone"})
	require.NoError(t, err)

	_, err = env.svc.ValidateToken(ctx, laptop.Session.Token)
	require.ErrorIs(t, err, ErrInvalidToken)

	require.NoError(t, env.svc.Logout(ctx, phone.Session.Token))
	_, err = env.svc.ValidateToken(ctx, phone.Session.Token)
	require.ErrorIs(t, err, ErrTokenRevoked)

	again, err := env.svc.SignIn(ctx, "alice", "password1", models.ClientMeta{UserAgent: "phone"})
	require.NoError(t, err)
	_, err = env.svc.ValidateToken(ctx, again.Session.Token)
	require.NoError(t, err)
}
