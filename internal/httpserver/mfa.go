package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/Skotchmaster/blog_service/internal/middleware/auth"
	"github.com/Skotchmaster/blog_service/internal/service"
	"github.com/Skotchmaster/blog_service/internal/transport"
)

type MfaHTTP struct {
	Svc *service.AuthService
}

func (h *MfaHTTP) Status(c echo.Context) error {
	user, ok := authmw.UserFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, authmw.MsgNoValidToken)
	}
	return c.JSON(http.StatusOK, transport.MfaStatusResponse{Enabled: user.MFAEnabled})
}

func (h *MfaHTTP) GenerateSecret(c echo.Context) error {
	user, ok := authmw.UserFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, authmw.MsgNoValidToken)
	}

	enrollment, err := h.Svc.GenerateMfaSecret(c.Request().Context(), user)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, transport.MfaSecretResponse{
		Secret:     enrollment.Secret,
		QRCode:     enrollment.QRCode,
		OtpauthURL: enrollment.URI,
	})
}

func (h *MfaHTTP) Enable(c echo.Context) error {
	user, ok := authmw.UserFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, authmw.MsgNoValidToken)
	}

	var req transport.EnableMfaRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := h.Svc.EnableMfa(c.Request().Context(), user, req.Secret, req.Code); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "2FA has been enabled successfully"})
}

func (h *MfaHTTP) Disable(c echo.Context) error {
	user, ok := authmw.UserFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, authmw.MsgNoValidToken)
	}

	if err := h.Svc.DisableMfa(c.Request().Context(), user); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "2FA has been disabled successfully"})
}
