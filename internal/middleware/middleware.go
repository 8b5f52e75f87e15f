// Package middleware holds small echo middlewares shared by the control
// plane, reconstructed here because the teacher's internal/ipc/server.go
// imports this package by name but the package itself was not part of the
// retrieved snapshot.
package middleware

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
)

// CharmLog logs each request through charmbracelet/log, at Debug level on
// success and at Error level when the handler returns an error, the same
// logger used everywhere else in this daemon rather than echo's own
// request logger.
func CharmLog() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			req := c.Request()
			status := c.Response().Status
			fields := []any{
				"method", req.Method,
				"path", req.URL.Path,
				"status", status,
				"latency", time.Since(start),
			}
			if err != nil {
				fields = append(fields, "error", err)
				log.Error("request", fields...)
			} else {
				log.Debug("request", fields...)
			}
			return err
		}
	}
}
