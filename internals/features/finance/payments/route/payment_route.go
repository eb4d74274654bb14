// file: internals/features/finance/payments/route/payment_route.go
package route

import (
	paymentController "schoolfee_backend/internals/features/finance/payments/controller"
	"schoolfee_backend/internals/features/finance/payments/service"

	"github.com/gofiber/fiber/v2"
)

// PaymentRoutes mounts the authenticated ledger and checkout endpoints.
func PaymentRoutes(r fiber.Router, rec *service.PaymentRecorder, gw *service.GatewayService) {
	ctl := paymentController.NewPaymentController(rec, gw)

	p := r.Group("/:institution_id/payments")
	{
		p.Get("/", ctl.List)
		p.Post("/", ctl.Record)
		p.Get("/:receipt_id", ctl.Get)
	}

	co := r.Group("/:institution_id/checkouts")
	{
		co.Get("/", ctl.ListCheckouts)
		co.Post("/", ctl.StartCheckout)
	}
}

// PaymentWebhookRoutes mounts the public Midtrans notification endpoint.
func PaymentWebhookRoutes(r fiber.Router, gw *service.GatewayService, limiter fiber.Handler) {
	ctl := paymentController.NewPaymentController(nil, gw)
	r.Post("/payments/midtrans/notification", limiter, ctl.MidtransWebhook)
}
