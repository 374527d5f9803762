package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/Skotchmaster/blog_service/internal/limiter"
	"github.com/Skotchmaster/blog_service/internal/mfa"
	"github.com/Skotchmaster/blog_service/internal/models"
	"github.com/Skotchmaster/blog_service/internal/mykafka"
	"github.com/Skotchmaster/blog_service/internal/tokens"
)

// AuthService drives sign-in, MFA, logout and session management across the
// credential store, token store, revocation registry and limiter.
type AuthService struct {
	Users       UserStore
	Tokens      TokenStore
	Revocations RevocationStore
	Issuer      *tokens.Issuer
	Limiter     limiter.Limiter
	MFA         *mfa.Engine
	Events      mykafka.Publisher
	Now         func() time.Time
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *AuthService) publish(ctx context.Context, l *slog.Logger, eventType string, user *models.User, attrs map[string]string) {
	if s.Events == nil {
		return
	}
	ev := mykafka.AuthEvent{
		Type:       eventType,
		OccurredAt: s.now().UTC(),
		Attrs:      attrs,
	}
	if user != nil {
		ev.UserID = user.ID
		ev.Username = user.Username
	}
	if err := s.Events.PublishEvent(ctx, ev.Username, ev); err != nil {
		l.Warn("event_publish_failed", "event", eventType, "error", err)
	}
}
