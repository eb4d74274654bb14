// file: internals/middlewares/setup.go
package middlewares

import (
	"time"

	"schoolfee_backend/internals/configs"
	"schoolfee_backend/internals/middlewares/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SetupMiddlewares installs the global chain in order.
func SetupMiddlewares(app *fiber.App, cfg *configs.Config, log *zap.Logger) {
	app.Use(RequestID(5 * time.Second))
	app.Use(logger.LoggerMiddleware(log, LocRequestID))
	app.Use(RecoveryMiddleware(log))
	app.Use(CorsMiddleware(cfg.CORSOrigins))
	app.Use("/api", GlobalRateLimiter())
}
