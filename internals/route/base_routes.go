// file: internals/route/base_routes.go
package routes

import (
	"context"
	"time"

	"schoolfee_backend/internals/configs"

	"github.com/gofiber/fiber/v2"
)

// Pinger reports database reachability.
type Pinger func(ctx context.Context) error

func BaseRoutes(app *fiber.App, cfg *configs.Config, ping Pinger) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("schoolfee backend is running 🚀")
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		dbStatus := "Connected"
		serverStatus := "OK"
		httpStatus := fiber.StatusOK

		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if ping == nil || ping(ctx) != nil {
			dbStatus = "Database connection error"
			serverStatus = "DOWN"
			httpStatus = fiber.StatusServiceUnavailable
		}

		return c.Status(httpStatus).JSON(fiber.Map{
			"status":         serverStatus,
			"database":       dbStatus,
			"server_time":    time.Now().Format(time.RFC3339),
			"uptime_seconds": int(time.Since(startTime).Seconds()),
			"environment":    cfg.AppEnv,
		})
	})
}
