package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_service/internal/models"
)

// RequireRole must run after RequireAuth.
func RequireRole(roles ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := UserFromContext(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, MsgNoValidToken)
			}
			for _, r := range roles {
				if user.Role == r {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "not enough rights")
		}
	}
}

func AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return RequireRole(models.RoleAdmin)(next)
}
