package service

import (
	"context"
	"errors"

	"github.com/Skotchmaster/blog_service/internal/logging"
	"github.com/Skotchmaster/blog_service/internal/models"
	"github.com/Skotchmaster/blog_service/internal/mykafka"
	"github.com/Skotchmaster/blog_service/internal/repo"
)

// ValidateToken admits token only if it is not revoked, the token store holds
// a live row for it, and its signature and expiry verify. The owning account
// must still exist and be active.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*models.User, error) {
	revoked, err := s.Revocations.IsRevoked(ctx, token)
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	valid, err := s.Tokens.IsTokenValid(ctx, token, s.now())
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	if !valid {
		return nil, ErrInvalidToken
	}

	username, err := s.Issuer.ParseUsername(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.Users.FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	if !user.Active {
		return nil, ErrInvalidToken
	}
	return user, nil
}

func (s *AuthService) TouchLastUsed(ctx context.Context, token string) error {
	return s.Tokens.TouchLastUsed(ctx, token, s.now())
}

func (s *AuthService) MySessions(ctx context.Context, username string) ([]models.SessionToken, error) {
	out, err := s.Tokens.ActiveTokensForUser(ctx, username, s.now())
	if err != nil {
		logging.FromContext(ctx).Error("list_sessions_failed", "username", username, "error", err)
		return nil, ErrStoreUnavailable
	}
	return out, nil
}

// InvalidateOtherSessions blacklists every live token of username except current.
func (s *AuthService) InvalidateOtherSessions(ctx context.Context, user *models.User, current string) (int64, error) {
	l := logging.FromContext(ctx).With("svc", "sessions.invalidate_others", "username", user.Username)

	n, err := s.Tokens.BlacklistOtherTokensForUser(ctx, user.Username, current)
	if err != nil {
		l.Error("invalidate_failed", "status", 500, "error", err)
		return 0, ErrStoreUnavailable
	}
	l.Info("sessions_invalidated", "count", n)
	s.publish(ctx, l, mykafka.EventSessionsInvalidated, user, map[string]string{"scope": "others"})
	return n, nil
}

func (s *AuthService) InvalidateUserSessions(ctx context.Context, username string) (int64, error) {
	l := logging.FromContext(ctx).With("svc", "sessions.invalidate_user", "username", username)

	// tokens are keyed by username, so rows outliving their user are still blacklisted
	user, err := s.Users.FindUserByUsername(ctx, username)
	if err != nil && !errors.Is(err, repo.ErrUserNotFound) {
		l.Error("invalidate_failed", "status", 500, "error", err)
		return 0, ErrStoreUnavailable
	}

	n, err := s.Tokens.BlacklistAllForUser(ctx, username)
	if err != nil {
		l.Error("invalidate_failed", "status", 500, "error", err)
		return 0, ErrStoreUnavailable
	}
	l.Info("sessions_invalidated", "count", n, "user_found", user != nil)
	if user != nil {
		s.publish(ctx, l, mykafka.EventSessionsInvalidated, user, map[string]string{"scope": "all"})
	}
	return n, nil
}
