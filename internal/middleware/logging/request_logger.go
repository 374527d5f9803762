package loggingmw

import (
	"log/slog"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_service/internal/logging"
	authmw "github.com/Skotchmaster/blog_service/internal/middleware/auth"
)

// quietPrefixes are probe endpoints that only log when they fail.
var quietPrefixes = []string{"/health/", "/metrics"}

// RequestLogger puts a request-scoped logger into the context and writes one
// line per request. The Authorization header is never logged.
func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			rid := req.Header.Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = c.Response().Header().Get(echo.HeaderXRequestID)
			}

			l := base.With("method", req.Method, "route", c.Path(), "client_ip", c.RealIP())
			if rid != "" {
				l = l.With("request_id", rid)
				c.Response().Header().Set(echo.HeaderXRequestID, rid)
			}
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), l)))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Echo().HTTPErrorHandler(err, c)
			}

			status := c.Response().Status
			attrs := []any{"status", status, "duration_ms", time.Since(start).Milliseconds()}
			if user, ok := authmw.UserFromContext(c); ok {
				attrs = append(attrs, "username", user.Username)
			}

			switch {
			case status >= 500:
				if err != nil {
					attrs = append(attrs, "error", err.Error())
				}
				l.Error("request_failed", attrs...)
			case status >= 400:
				l.Warn("request_rejected", append(attrs, "user_agent", req.UserAgent())...)
			case isQuiet(req.URL.Path):
			default:
				l.Info("request_completed", attrs...)
			}
			return nil
		}
	}
}

func isQuiet(path string) bool {
	for _, p := range quietPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
