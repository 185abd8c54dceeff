// Package middleware holds the cross-cutting Fiber handlers shared by every route.
package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/fotcopier/printshop/pkg/metrics"
)

// Isolation sets the cross-origin isolation headers on every response.
func Isolation() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Cross-Origin-Opener-Policy", "same-origin")
		c.Set("Cross-Origin-Embedder-Policy", "require-corp")
		return c.Next()
	}
}

// Observe logs each request and records it in the HTTP metrics, labelled by
// route pattern rather than raw path.
func Observe(log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// let the app's error handler write the response before it is measured
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
			err = nil
		}
		status := c.Response().StatusCode()
		elapsed := time.Since(start)

		path := c.Route().Path
		if path == "" {
			path = "unmatched"
		}
		metrics.ObserveHTTPRequest(c.Method(), path, status, elapsed)

		level := slog.LevelInfo
		if status >= fiber.StatusInternalServerError {
			level = slog.LevelError
		}
		log.Log(c.UserContext(), level, "http request",
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"duration", elapsed,
			"request_id", c.Locals("requestid"),
		)
		return err
	}
}
