package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authmw "github.com/Skotchmaster/blog_service/internal/middleware/auth"
)

type Deps struct {
	AuthHandler   *AuthHTTP
	TokensHandler *TokensHTTP
	MfaHandler    *MfaHTTP
	AdminHandler  *AdminHTTP
	Filter        *authmw.TokenFilter
	Ready         func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	auth := e.Group("/auth")
	auth.POST("/signup", d.AuthHandler.Signup)
	auth.POST("/signin", d.AuthHandler.SignIn)
	auth.POST("/verify-mfa", d.AuthHandler.VerifyMfa)
	auth.POST("/logout", d.AuthHandler.Logout)

	tokens := e.Group("/tokens", d.Filter.RequireAuth)
	tokens.GET("/my-sessions", d.TokensHandler.MySessions)
	tokens.POST("/invalidate-other-sessions", d.TokensHandler.InvalidateOtherSessions)
	tokens.POST("/invalidate/:username", d.TokensHandler.InvalidateUserSessions, authmw.AdminOnly)
	tokens.POST("/cleanup", d.TokensHandler.Cleanup, authmw.AdminOnly)

	user := e.Group("/user", d.Filter.RequireAuth)
	user.GET("/2fa-status", d.MfaHandler.Status)
	user.POST("/generate-2fa-secret", d.MfaHandler.GenerateSecret)
	user.POST("/verify-2fa", d.MfaHandler.Enable)
	user.POST("/disable-2fa", d.MfaHandler.Disable)

	admin := e.Group("/admin", d.Filter.RequireAuth, authmw.AdminOnly)
	admin.PUT("/users/:id/role", d.AdminHandler.UpdateRole)
	admin.POST("/users/:id/deactivate", d.AdminHandler.Deactivate)
}
