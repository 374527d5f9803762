package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/blog_service/internal/db/dbtest"
	"github.com/Skotchmaster/blog_service/internal/limiter"
	"github.com/Skotchmaster/blog_service/internal/mfa"
	"github.com/Skotchmaster/blog_service/internal/models"
	"github.com/Skotchmaster/blog_service/internal/mykafka"
	"github.com/Skotchmaster/blog_service/internal/repo"
	"github.com/Skotchmaster/blog_service/internal/tokens"
)

var testSecret = []byte("test-jwt-secret-test-jwt-secret!")

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []mykafka.AuthEvent
}

func (p *recordingPublisher) PublishEvent(_ context.Context, _ string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event.(mykafka.AuthEvent))
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// faultyTokens wraps a TokenStore and fails selected operations.
type faultyTokens struct {
	TokenStore
	failBlacklistAll bool
	failCreate       bool
}

var errInjected = errors.New("injected store failure")

func (f *faultyTokens) BlacklistAllForUser(ctx context.Context, username string) (int64, error) {
	if f.failBlacklistAll {
		return 0, errInjected
	}
	return f.TokenStore.BlacklistAllForUser(ctx, username)
}

func (f *faultyTokens) CreateSessionToken(ctx context.Context, userID uint, username, token string, issuedAt, expiresAt time.Time, meta models.ClientMeta) (*models.SessionToken, error) {
	if f.failCreate {
		return nil, errInjected
	}
	return f.TokenStore.CreateSessionToken(ctx, userID, username, token, issuedAt, expiresAt, meta)
}

type testEnv struct {
	svc    *AuthService
	repo   *repo.GormRepo
	clock  *testClock
	events *recordingPublisher
}

func newTestAuthService(t *testing.T) *testEnv {
	t.Helper()

	r := &repo.GormRepo{DB: dbtest.New(t)}
	clock := &testClock{now: time.Now()}
	events := &recordingPublisher{}

	svc := &AuthService{
		Users:       r,
		Tokens:      r,
		Revocations: r,
		Issuer:      tokens.NewIssuer(testSecret, time.Hour, 5*time.Minute),
		Limiter:     limiter.NewMemoryWithClock(limiter.Config{}, clock.Now),
		MFA:         mfa.NewEngine(""),
		Events:      events,
	}
	return &testEnv{svc: svc, repo: r, clock: clock, events: events}
}

func (e *testEnv) register(t *testing.T, username, password string) *models.User {
	t.Helper()
	u, err := e.svc.Register(context.Background(), username, username+"@example.com", password)
	require.NoError(t, err)
	return u
}

func (e *testEnv) enableMfa(t *testing.T, user *models.User) string {
	t.Helper()
	ctx := context.Background()

	enrollment, err := e.svc.GenerateMfaSecret(ctx, user)
	require.NoError(t, err)
	require.NoError(t, e.svc.EnableMfa(ctx, user, enrollment.Secret, currentCode(t, enrollment.Secret)))
	return enrollment.Secret
}

func currentCode(t *testing.T, secret string) string {
	t.Helper()
	code, err := totp.GenerateCodeCustom(secret, time.Now().UTC(), totp.ValidateOpts{
		Period:    30,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)
	return code
}

// wrongCode differs from every code accepted around now.
func wrongCode(t *testing.T, secret string) string {
	t.Helper()
	accepted := map[string]bool{}
	for _, d := range []time.Duration{-30 * time.Second, 0, 30 * time.Second} {
		code, err := totp.GenerateCodeCustom(secret, time.Now().UTC().Add(d), totp.ValidateOpts{
			Period:    30,
			Digits:    otp.DigitsSix,
			Algorithm: otp.AlgorithmSHA1,
		})
		require.NoError(t, err)
		accepted[code] = true
	}
	for _, c := range []string{"000000", "111111", "222222", "333333"} {
		if !accepted[c] {
			return c
		}
	}
	t.Fatal("no wrong code available")
	return ""
}
