package http

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fotcopier/printshop/api/http/middleware"
	"github.com/fotcopier/printshop/api/http/presenter"
)

// AppConfig carries the transport settings of the Fiber app.
type AppConfig struct {
	MaxUploadBytes int64
	CORSOrigins    string
}

// NewApp builds the Fiber app with the shared middleware stack, the metrics
// endpoint and every route in h.
func NewApp(cfg AppConfig, h Handlers, log *slog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "printshop",
		// room for the text fields next to the document
		BodyLimit:             int(cfg.MaxUploadBytes) + 1<<20,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(log),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.Isolation())
	app.Use(middleware.Observe(log))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	Register(app, h)
	return app
}

func errorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		if code >= fiber.StatusInternalServerError {
			log.ErrorContext(c.UserContext(), "unhandled error", "path", c.Path(), "error", err)
			return presenter.Error(c, code, "internal server error")
		}
		return presenter.Error(c, code, err.Error())
	}
}
