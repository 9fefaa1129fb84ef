package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control on GET responses that did not set one.
// Anything tied to a live device or session is never cached.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet {
			return err
		}
		if len(c.Response().Header.Peek(fiber.HeaderCacheControl)) > 0 {
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "public, max-age=10"

		case path == "/metrics":
			ttl = "no-cache"

		case path == "/v1/gazetteer":
			ttl = "public, max-age=3600" // seeded at startup

		case strings.HasPrefix(path, "/v1/places/search"):
			ttl = "public, max-age=300"

		case strings.HasPrefix(path, "/v1/places/"):
			ttl = "public, max-age=600"

		case path == "/v1/distance":
			ttl = "public, max-age=86400" // pure function of the query

		case strings.HasPrefix(path, "/v1/navigation"),
			strings.HasPrefix(path, "/v1/devices"),
			strings.HasPrefix(path, "/v1/maps"),
			path == "/v1/mode":
			ttl = "no-store"

		case strings.HasPrefix(path, "/v1/"):
			ttl = "public, max-age=60"
		}

		if ttl != "" {
			c.Set(fiber.HeaderCacheControl, ttl)
		}

		return err
	}
}
