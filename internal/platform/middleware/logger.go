package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dentflow/dentflow/internal/platform/auth"
)

// Logger emits one structured line per request. When auth middleware has run,
// the authenticated user and roles are included so clinic activity can be
// traced per operator; health checks and other unauthenticated requests log
// without them.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			err := next(c)

			evt := logger.Info()
			if err != nil {
				evt = logger.Error().Err(err)
			}

			evt = evt.
				Str("request_id", RequestIDFromContext(c)).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP())

			if uid := auth.UserIDFromContext(req.Context()); uid != "" {
				evt = evt.Str("user_id", uid).
					Strs("roles", auth.RolesFromContext(req.Context()))
			}
			if search := c.QueryParam("search"); search != "" {
				evt = evt.Str("search", search)
			}

			evt.Msg("request")
			return err
		}
	}
}
