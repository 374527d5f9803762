package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_service/internal/logging"
	"github.com/Skotchmaster/blog_service/internal/metrics"
	"github.com/Skotchmaster/blog_service/internal/models"
	"github.com/Skotchmaster/blog_service/internal/service"
)

const MsgNoValidToken = "No valid authentication token found"

type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*models.User, error)
	TouchLastUsed(ctx context.Context, token string) error
}

// TokenFilter admits a request only when its bearer token passes ValidateToken.
type TokenFilter struct {
	Svc          TokenValidator
	TouchTimeout time.Duration
}

func NewTokenFilter(svc TokenValidator) *TokenFilter {
	return &TokenFilter{Svc: svc, TouchTimeout: 5 * time.Second}
}

func (m *TokenFilter) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("mw", "token_filter")

		token, ok := BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if !ok {
			metrics.TokenRejectionsTotal.WithLabelValues("missing").Inc()
			return echo.NewHTTPError(http.StatusUnauthorized, MsgNoValidToken)
		}

		user, err := m.Svc.ValidateToken(ctx, token)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrStoreUnavailable):
				l.Error("token_check_failed", "status", 500, "error", err)
				return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
			case errors.Is(err, service.ErrTokenRevoked):
				metrics.TokenRejectionsTotal.WithLabelValues("revoked").Inc()
			default:
				metrics.TokenRejectionsTotal.WithLabelValues("invalid").Inc()
			}
			l.Warn("token_rejected", "status", 401, "reason", err.Error())
			return echo.NewHTTPError(http.StatusUnauthorized, MsgNoValidToken)
		}

		setUserContext(c, user, token)
		m.touch(ctx, token)
		return next(c)
	}
}

// touch records last use off the request path; a failure only costs accuracy.
func (m *TokenFilter) touch(ctx context.Context, token string) {
	l := logging.FromContext(ctx)
	bg := context.WithoutCancel(ctx)
	go func() {
		tctx, cancel := context.WithTimeout(bg, m.TouchTimeout)
		defer cancel()
		if err := m.Svc.TouchLastUsed(tctx, token); err != nil {
			l.Warn("touch_last_used_failed", "error", err)
		}
	}()
}
