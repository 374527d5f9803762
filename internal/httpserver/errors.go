package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/Skotchmaster/blog_service/internal/middleware/auth"
	"github.com/Skotchmaster/blog_service/internal/service"
)

const (
	msgInvalidCredentials = "Error: Invalid username or password"
	msgInvalidMfaCode     = "Invalid verification code"
	msgInternal           = "internal server error"
)

// toHTTPError maps service errors onto the status and message shown to clients.
func toHTTPError(err error) *echo.HTTPError {
	var locked *service.AccountLockedError
	var verr *service.ValidationError
	switch {
	case errors.As(err, &locked):
		return echo.NewHTTPError(http.StatusBadRequest, locked.Error())
	case errors.As(err, &verr):
		return echo.NewHTTPError(http.StatusBadRequest, verr.Msg)
	case errors.Is(err, service.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidCredentials)
	case errors.Is(err, service.ErrInvalidMfaCode):
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidMfaCode)
	case errors.Is(err, service.ErrUsernameTaken):
		return echo.NewHTTPError(http.StatusBadRequest, "Error: Username is already taken!")
	case errors.Is(err, service.ErrEmailTaken):
		return echo.NewHTTPError(http.StatusBadRequest, "Error: Email is already in use!")
	case errors.Is(err, service.ErrInvalidToken), errors.Is(err, service.ErrTokenRevoked):
		return echo.NewHTTPError(http.StatusUnauthorized, authmw.MsgNoValidToken)
	case errors.Is(err, service.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, msgInternal)
}
