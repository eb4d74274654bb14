// file: internals/route/index.go
package routes

import (
	"time"

	"schoolfee_backend/internals/configs"
	feeRoute "schoolfee_backend/internals/features/finance/fee_structures/route"
	feeService "schoolfee_backend/internals/features/finance/fee_structures/service"
	instRoute "schoolfee_backend/internals/features/finance/institutions/route"
	instService "schoolfee_backend/internals/features/finance/institutions/service"
	payRoute "schoolfee_backend/internals/features/finance/payments/route"
	payService "schoolfee_backend/internals/features/finance/payments/service"
	receiptRoute "schoolfee_backend/internals/features/finance/receipts/route"
	receiptService "schoolfee_backend/internals/features/finance/receipts/service"
	stockRoute "schoolfee_backend/internals/features/finance/stock/route"
	stockService "schoolfee_backend/internals/features/finance/stock/service"
	studentRoute "schoolfee_backend/internals/features/finance/students/route"
	studentService "schoolfee_backend/internals/features/finance/students/service"
	"schoolfee_backend/internals/middlewares"
	authMiddleware "schoolfee_backend/internals/middlewares/auth"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var startTime time.Time

// Services is everything the HTTP layer needs, built once in main.
type Services struct {
	Institutions  *instService.InstitutionService
	FeeStructures *feeService.FeeStructureService
	Students      *studentService.StudentService
	Media         *studentService.MediaService
	Recorder      *payService.PaymentRecorder
	Gateway       *payService.GatewayService // nil without a Midtrans key
	Receipts      *receiptService.ReceiptService
	Stock         *stockService.StockService
}

func SetupRoutes(app *fiber.App, cfg *configs.Config, ping Pinger, svc Services, log *zap.Logger) {
	startTime = time.Now()

	BaseRoutes(app, cfg, ping)

	api := app.Group("/api")

	// ===================== PUBLIC =====================
	if svc.Gateway != nil {
		log.Info("[route] midtrans notification endpoint enabled")
		payRoute.PaymentWebhookRoutes(api, svc.Gateway, middlewares.WebhookRateLimiter())
	}

	// ===================== PRIVATE (JWT) =====================
	private := api.Group("/v1", authMiddleware.AuthJWT(authMiddleware.AuthJWTOpts{
		Secret:              cfg.JWT.Secret,
		AllowCookieFallback: true,
	}))

	instRoute.InstitutionRoutes(private, svc.Institutions)
	feeRoute.FeeStructureRoutes(private, svc.FeeStructures)
	studentRoute.StudentRoutes(private, svc.Students, svc.Media)
	payRoute.PaymentRoutes(private, svc.Recorder, svc.Gateway)
	receiptRoute.ReceiptRoutes(private, svc.Receipts)
	stockRoute.StockRoutes(private, svc.Stock)

	log.Info("[route] routes ready", zap.Int("handlers", int(app.HandlersCount())))
}
