package auth

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_service/internal/models"
)

const (
	ctxUserKey  = "auth_user"
	ctxTokenKey = "auth_token"
)

// BearerToken extracts the credential from an "Authorization: Bearer <token>" header value.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

func setUserContext(c echo.Context, user *models.User, token string) {
	c.Set(ctxUserKey, user)
	c.Set(ctxTokenKey, token)
}

func UserFromContext(c echo.Context) (*models.User, bool) {
	u, ok := c.Get(ctxUserKey).(*models.User)
	return u, ok && u != nil
}

func TokenFromContext(c echo.Context) string {
	s, _ := c.Get(ctxTokenKey).(string)
	return s
}
