package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Issuer signs and parses HS256 tokens. It never consults any store.
type Issuer struct {
	secret        []byte
	sessionTTL    time.Duration
	pendingMfaTTL time.Duration
	now           func() time.Time
}

type Option func(*Issuer)

func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

func NewIssuer(secret []byte, sessionTTL, pendingMfaTTL time.Duration, opts ...Option) *Issuer {
	i := &Issuer{
		secret:        secret,
		sessionTTL:    sessionTTL,
		pendingMfaTTL: pendingMfaTTL,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Issuer) SessionTTL() time.Duration    { return i.sessionTTL }
func (i *Issuer) PendingMfaTTL() time.Duration { return i.pendingMfaTTL }

func (i *Issuer) IssueSessionToken(username string) (string, time.Time, error) {
	return i.sign(username, i.sessionTTL)
}

func (i *Issuer) IssuePendingMfaToken(username string) (string, time.Time, error) {
	return i.sign(username, i.pendingMfaTTL)
}

// IssueTokenFromPendingToken exchanges a verified pending-MFA token for a session token.
func (i *Issuer) IssueTokenFromPendingToken(pending string) (string, time.Time, error) {
	username, err := i.ParseUsername(pending)
	if err != nil {
		return "", time.Time{}, err
	}
	return i.IssueSessionToken(username)
}

func (i *Issuer) ParseUsername(token string) (string, error) {
	claims, err := i.parse(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (i *Issuer) ParseExpiry(token string) (time.Time, error) {
	claims, err := i.parse(token)
	if err != nil {
		return time.Time{}, err
	}
	return claims.ExpiresAt.Time, nil
}

func (i *Issuer) sign(username string, ttl time.Duration) (string, time.Time, error) {
	if username == "" {
		return "", time.Time{}, fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}
	now := i.now()
	exp := now.Add(ttl)
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
		ID:        uuid.NewString(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp.Truncate(time.Second), nil
}

func (i *Issuer) parse(token string) (*jwt.RegisteredClaims, error) {
	var claims jwt.RegisteredClaims
	tkn, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !tkn.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return &claims, nil
}
