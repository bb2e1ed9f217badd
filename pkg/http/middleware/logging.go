package middleware

import (
	"time"

	applogger "CrashLens/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging writes one debug-level access line per request. Failures
// and slow requests are escalated by the metrics middleware, not here.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			l.Debug("http request",
				applogger.String("method", c.Request().Method),
				applogger.String("path", c.Request().RequestURI),
				applogger.String("remote", c.RealIP()),
				applogger.Int("status", c.Response().Status),
				applogger.Duration("duration_ms", time.Since(start)),
			)
			return err
		}
	}
}
