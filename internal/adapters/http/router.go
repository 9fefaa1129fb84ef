package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"
	"github.com/samirrijal/wayfinder/api"
	"github.com/samirrijal/wayfinder/internal/pkg/metrics"
)

const (
	requestTimeout    = 15 * time.Second
	navigationTimeout = 20 * time.Second // one-shot locate + seed route
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(recover.New())

	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
		// Position reports arrive at device cadence.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodPost &&
				strings.HasPrefix(c.Path(), "/v1/devices/") && strings.HasSuffix(c.Path(), "/position")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	v1.Get("/mode", ModeHandler(deps))

	// Maps
	v1.Post("/maps/:surface", timeout.NewWithContext(OpenMapHandler(deps), requestTimeout))
	v1.Get("/maps/:surface", GetMapHandler(deps))
	v1.Post("/maps/:surface/layers/:layer/toggle", ToggleLayerHandler(deps))
	v1.Post("/maps/:surface/markers", AddMarkerHandler(deps))
	v1.Delete("/maps/:surface/markers", ClearMarkersHandler(deps))
	v1.Post("/maps/:surface/heatmap", HeatmapHandler(deps))

	// Distance & routing
	v1.Get("/distance", DistanceHandler(deps))
	v1.Post("/routes", timeout.NewWithContext(ComputeRouteHandler(deps), requestTimeout))

	// Places
	v1.Get("/places/search", timeout.NewWithContext(SearchPlacesHandler(deps), requestTimeout))
	v1.Get("/places/:id", timeout.NewWithContext(GetPlaceHandler(deps), requestTimeout))
	v1.Get("/gazetteer", GazetteerHandler(deps))

	// Devices
	v1.Post("/devices/:id/position", timeout.NewWithContext(ReportPositionHandler(deps), requestTimeout))
	v1.Get("/devices/:id/location", timeout.NewWithContext(DeviceLocationHandler(deps), requestTimeout))

	// Navigation
	v1.Post("/navigation", timeout.NewWithContext(StartNavigationHandler(deps), navigationTimeout))
	v1.Get("/navigation/:id", GetNavigationHandler(deps))
	v1.Delete("/navigation/:id", StopNavigationHandler(deps))

	// GraphQL
	app.Post("/graphql", timeout.NewWithContext(GraphQLHandler(deps), requestTimeout))

	// API documentation (Swagger UI)
	SetupDocs(app, api.OpenAPI)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps)))
}
