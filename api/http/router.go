package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fotcopier/printshop/api/http/handlers"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth   *handlers.AuthHandler
	Health *handlers.HealthHandler
	Orders *handlers.OrderHandler
	// RequireAuth guards every route that needs a verified identity.
	RequireAuth fiber.Handler
}

// Register wires all HTTP routes onto given Fiber app.
func Register(app *fiber.App, h Handlers) {
	// Health and readiness endpoints for probes/monitoring
	app.Get("/health", h.Health.Health)
	app.Get("/ready", h.Health.Ready)

	app.Post("/register", h.Auth.Register)
	app.Post("/login", h.Auth.Login)
	app.Get("/protected-route", h.RequireAuth, h.Auth.Profile)

	pedidos := app.Group("/api/pedidos", h.RequireAuth)
	pedidos.Post("/", h.Orders.Create)
	pedidos.Get("/", h.Orders.List)
	pedidos.Get("/:id", h.Orders.Get)
	pedidos.Get("/:id/archivo", h.Orders.Document)
}
