// file: internals/middlewares/rate_limiter_middleware.go
package middlewares

import (
	"time"

	helper "schoolfee_backend/internals/helpers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func newLimiter(max int, window time.Duration, message string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return helper.JsonError(c, fiber.StatusTooManyRequests, message)
		},
	})
}

// GlobalRateLimiter applies to every API route.
func GlobalRateLimiter() fiber.Handler {
	return newLimiter(100, time.Minute, "too many requests, please retry later")
}

// WebhookRateLimiter guards the public gateway notification endpoint.
func WebhookRateLimiter() fiber.Handler {
	return newLimiter(30, time.Minute, "too many notifications")
}
