package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_service/internal/logging"
	authmw "github.com/Skotchmaster/blog_service/internal/middleware/auth"
	"github.com/Skotchmaster/blog_service/internal/models"
	"github.com/Skotchmaster/blog_service/internal/service"
	"github.com/Skotchmaster/blog_service/internal/transport"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func clientMeta(c echo.Context) models.ClientMeta {
	return models.ClientMeta{IP: c.RealIP(), UserAgent: c.Request().UserAgent()}
}

func (h *AuthHTTP) Signup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_signup")

	var req transport.SignupRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if _, err := h.Svc.Register(ctx, req.Username, req.Email, req.Password); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "User registered successfully!"})
}

func (h *AuthHTTP) SignIn(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_signin")

	var req transport.SignInRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.SignIn(ctx, req.Username, req.Password, clientMeta(c))
	if err != nil {
		return toHTTPError(err)
	}

	if res.MfaRequired {
		return c.JSON(http.StatusOK, transport.MfaChallengeResponse{
			PendingToken: res.PendingToken,
			MfaRequired:  true,
			ExpiresAt:    res.PendingExpiresAt.UTC(),
		})
	}
	return c.JSON(http.StatusOK, transport.NewJwtResponse(res.Session.Token, res.Session.ExpiresAt, res.Session.User))
}

func (h *AuthHTTP) VerifyMfa(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_verify_mfa")

	var req transport.VerifyMfaRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("mfa_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.PendingToken == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, authmw.MsgNoValidToken)
	}

	sess, err := h.Svc.VerifyMfa(ctx, req.PendingToken, req.Code, clientMeta(c))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, transport.NewJwtResponse(sess.Token, sess.ExpiresAt, sess.User))
}

// Logout sits outside the token filter so a stale token can still be revoked.
func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	token, ok := authmw.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if !ok {
		l.Warn("logout_failed", "status", 400, "reason", "missing or malformed authorization header")
		return echo.NewHTTPError(http.StatusBadRequest, authmw.MsgNoValidToken)
	}

	if err := h.Svc.Logout(ctx, token); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "You have been successfully logged out"})
}
