package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-jwt-secret-test-jwt-secret!")

func newTestIssuer(now func() time.Time) *Issuer {
	return NewIssuer(testSecret, time.Hour, 5*time.Minute, WithClock(now))
}

func TestIssuer_SessionRoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Now()
	iss := newTestIssuer(func() time.Time { return now })

	token, exp, err := iss.IssueSessionToken("alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	username, err := iss.ParseUsername(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", username)

	parsedExp, err := iss.ParseExpiry(token)
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(time.Hour), parsedExp, time.Second)
	assert.True(t, parsedExp.Equal(exp))
}

func TestIssuer_TokensIssuedTogetherDiffer(t *testing.T) {
	t.Parallel()

	now := time.Now()
	iss := newTestIssuer(func() time.Time { return now })

	a, _, err := iss.IssueSessionToken("alice")
	require.NoError(t, err)
	b, _, err := iss.IssueSessionToken("alice")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestIssuer_PendingTokenExchange(t *testing.T) {
	t.Parallel()

	now := time.Now()
	iss := newTestIssuer(func() time.Time { return now })

	pending, pendingExp, err := iss.IssuePendingMfaToken("bob")
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(5*time.Minute), pendingExp, time.Second)

	session, exp, err := iss.IssueTokenFromPendingToken(pending)
	require.NoError(t, err)
	assert.NotEqual(t, pending, session)
	assert.WithinDuration(t, now.Add(time.Hour), exp, time.Second)

	username, err := iss.ParseUsername(session)
	require.NoError(t, err)
	assert.Equal(t, "bob", username)
}

func TestIssuer_RejectsBadTokens(t *testing.T) {
	t.Parallel()

	now := time.Now()
	iss := newTestIssuer(func() time.Time { return now })
	valid, _, err := iss.IssueSessionToken("alice")
	require.NoError(t, err)

	other := NewIssuer([]byte("another-secret-another-secret-!!"), time.Hour, time.Minute, WithClock(func() time.Time { return now }))
	foreign, _, err := other.IssueSessionToken("alice")
	require.NoError(t, err)

	expiredIss := newTestIssuer(func() time.Time { return now.Add(-2 * time.Hour) })
	expired, _, err := expiredIss.IssueSessionToken("alice")
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "alice"}).SignedString(testSecret)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-valid-jwt"},
		{name: "empty", token: ""},
		{name: "tampered", token: valid + "x"},
		{name: "foreign signature", token: foreign},
		{name: "expired", token: expired},
		{name: "alg none", token: none},
		{name: "missing exp", token: noExp},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := iss.ParseUsername(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)

			_, _, err = iss.IssueTokenFromPendingToken(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
