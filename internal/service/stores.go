package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/blog_service/internal/models"
)

type UserStore interface {
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	SetFailedLoginAttempts(ctx context.Context, userID uint, attempts int) error
	IncrementFailedLoginAttempts(ctx context.Context, username string) error
	SetMFA(ctx context.Context, userID uint, secret *string) error
	SetRole(ctx context.Context, userID uint, role models.Role) error
	SetActive(ctx context.Context, userID uint, active bool) error
}

type TokenStore interface {
	CreateSessionToken(ctx context.Context, userID uint, username, token string, issuedAt, expiresAt time.Time, meta models.ClientMeta) (*models.SessionToken, error)
	IsTokenValid(ctx context.Context, token string, now time.Time) (bool, error)
	BlacklistAllForUser(ctx context.Context, username string) (int64, error)
	BlacklistOtherTokensForUser(ctx context.Context, username, keep string) (int64, error)
	BlacklistToken(ctx context.Context, token string) (bool, error)
	TouchLastUsed(ctx context.Context, token string, at time.Time) error
	ActiveTokensForUser(ctx context.Context, username string, now time.Time) ([]models.SessionToken, error)
	PurgeExpiredTokens(ctx context.Context, before time.Time) (int64, error)
}

type RevocationStore interface {
	AddRevocation(ctx context.Context, token string, expiresAt time.Time, userID *uint, reason string, now time.Time) (*models.RevocationEntry, error)
	IsRevoked(ctx context.Context, token string) (bool, error)
	PurgeExpiredRevocations(ctx context.Context, now time.Time) (int64, error)
}
