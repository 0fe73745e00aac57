package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/soltixdb/insights/internal/config"
	"github.com/soltixdb/insights/internal/handlers"
	"github.com/soltixdb/insights/internal/logging"
	"github.com/soltixdb/insights/internal/metrics"
	"github.com/soltixdb/insights/internal/middleware"
	"github.com/soltixdb/insights/internal/services"
)

// Setup configures all routes and middlewares. collector may be nil when
// metrics are disabled.
func Setup(app *fiber.App, logger *logging.Logger, service *services.AnalyticsService,
	collector *metrics.Collector, cfg config.Config,
) *handlers.Handler {
	h := handlers.New(logger, service)

	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-API-Key,X-Request-ID",
	}))
	app.Use(logging.FiberMiddleware(logger))
	if collector != nil {
		app.Use(collector.Middleware())
	}

	// Unauthenticated endpoints
	app.Get("/health", h.Health)
	if collector != nil && cfg.Metrics.Enabled {
		app.Get(cfg.Metrics.Path, collector.Handler())
	}

	v1 := app.Group("/v1",
		middleware.Auth(logger, cfg.Auth),
		middleware.RateLimit(cfg.RateLimit),
	)

	analytics := v1.Group("/analytics")
	analytics.Get("/detectors", h.Detectors)
	analytics.Post("/trend", h.Trend)
	analytics.Post("/moving-average", h.MovingAverage)
	analytics.Post("/summary", h.Summary)

	// Anomaly detection
	analytics.Post("/anomalies", h.Anomalies)
	analytics.Post("/anomalies/thresholds", h.ThresholdBreaches)
	analytics.Post("/anomalies/window", h.MovingWindowAnomalies)
	analytics.Post("/anomalies/business", h.BusinessAnomalies)

	// Year over year
	analytics.Get("/yoy/compare", h.YoYCompare)
	analytics.Get("/yoy/range", h.YoYRange)
	analytics.Post("/yoy", h.YoYFromArrays)
	analytics.Post("/yoy/chart", h.YoYChart)

	// 404 handler
	app.Use(h.NotFound)

	return h
}

// New creates a new Fiber app with configuration
func New(logger *logging.Logger, service *services.AnalyticsService,
	collector *metrics.Collector, cfg config.Config,
) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Soltix Insights",
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(logger),
		BodyLimit:             cfg.Server.BodyLimit,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
	})

	Setup(app, logger, service, collector, cfg)

	return app
}
