package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_service/internal/logging"
	authmw "github.com/Skotchmaster/blog_service/internal/middleware/auth"
	"github.com/Skotchmaster/blog_service/internal/service"
	"github.com/Skotchmaster/blog_service/internal/transport"
)

type TokensHTTP struct {
	Svc     *service.AuthService
	Sweeper *service.Sweeper
}

func (h *TokensHTTP) MySessions(c echo.Context) error {
	user, ok := authmw.UserFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, authmw.MsgNoValidToken)
	}

	rows, err := h.Svc.MySessions(c.Request().Context(), user.Username)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, transport.NewSessionViews(rows))
}

func (h *TokensHTTP) InvalidateOtherSessions(c echo.Context) error {
	user, ok := authmw.UserFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, authmw.MsgNoValidToken)
	}

	if _, err := h.Svc.InvalidateOtherSessions(c.Request().Context(), user, authmw.TokenFromContext(c)); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "All other sessions have been invalidated"})
}

func (h *TokensHTTP) InvalidateUserSessions(c echo.Context) error {
	username := c.Param("username")
	if username == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username is required")
	}

	if _, err := h.Svc.InvalidateUserSessions(c.Request().Context(), username); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{
		Message: fmt.Sprintf("All sessions for user %s have been invalidated", username),
	})
}

func (h *TokensHTTP) Cleanup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "tokens_cleanup")

	res, err := h.Sweeper.RunOnce(ctx)
	if err != nil {
		l.Error("token_cleanup_failed", "status", 500, "error", err)
		return toHTTPError(err)
	}
	l.Info("token_cleanup_completed", "tokens", res.Tokens, "revocations", res.Revocations)
	return c.JSON(http.StatusOK, transport.CleanupResponse{
		Message:     "Token cleanup completed",
		Tokens:      res.Tokens,
		Revocations: res.Revocations,
	})
}
