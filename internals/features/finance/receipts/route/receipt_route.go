// file: internals/features/finance/receipts/route/receipt_route.go
package route

import (
	receiptController "schoolfee_backend/internals/features/finance/receipts/controller"
	"schoolfee_backend/internals/features/finance/receipts/service"

	"github.com/gofiber/fiber/v2"
)

func ReceiptRoutes(r fiber.Router, svc *service.ReceiptService) {
	ctl := receiptController.NewReceiptController(svc)

	g := r.Group("/:institution_id/receipts")
	{
		g.Get("/fees/:receipt_id", ctl.FeeReceipt)
		g.Get("/stock/:receipt_id", ctl.StockReceipt)
	}
}
