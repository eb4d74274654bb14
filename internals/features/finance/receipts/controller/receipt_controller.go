// file: internals/features/finance/receipts/controller/receipt_controller.go
package controller

import (
	"schoolfee_backend/internals/features/finance/receipts/service"
	helper "schoolfee_backend/internals/helpers"
	helperAuth "schoolfee_backend/internals/helpers/auth"

	"github.com/gofiber/fiber/v2"
)

type ReceiptController struct {
	Svc *service.ReceiptService
}

func NewReceiptController(svc *service.ReceiptService) *ReceiptController {
	return &ReceiptController{Svc: svc}
}

/* =========================
   GET /:institution_id/receipts/fees/:receipt_id
========================= */

func (h *ReceiptController) FeeReceipt(c *fiber.Ctx) error {
	instID, _, err := helperAuth.ResolveInstitution(c)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	doc, err := h.Svc.FeeReceipt(c.UserContext(), instID, c.Params("receipt_id"))
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, "", doc)
}

/* =========================
   GET /:institution_id/receipts/stock/:receipt_id
========================= */

func (h *ReceiptController) StockReceipt(c *fiber.Ctx) error {
	instID, _, err := helperAuth.ResolveInstitution(c)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	doc, err := h.Svc.StockReceipt(c.UserContext(), instID, c.Params("receipt_id"))
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, "", doc)
}
