// file: internals/features/finance/stock/controller/stock_controller.go
package controller

import (
	"strings"

	dto "schoolfee_backend/internals/features/finance/stock/dto"
	"schoolfee_backend/internals/features/finance/stock/service"
	"schoolfee_backend/internals/features/finance/store"
	helper "schoolfee_backend/internals/helpers"
	helperAuth "schoolfee_backend/internals/helpers/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type StockController struct {
	Svc *service.StockService
}

func NewStockController(svc *service.StockService) *StockController {
	return &StockController{Svc: svc}
}

/* =========================
   Items
========================= */

// POST /:institution_id/stock/items
func (h *StockController) CreateItem(c *fiber.Ctx) error {
	instID, _, err := helperAuth.ResolveInstitutionForWrite(c)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	var req dto.CreateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid JSON body")
	}
	if fe := helper.ValidateStruct(&req); fe != nil {
		return helper.JsonValidationError(c, fe)
	}
	m, err := h.Svc.CreateItem(c.UserContext(), instID, req.ToInput())
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonCreated(c, "stock item created", dto.FromItem(m))
}

// GET /:institution_id/stock/items?name=&category=&page=&per_page=
func (h *StockController) ListItems(c *fiber.Ctx) error {
	instID, _, err := helperAuth.ResolveInstitution(c)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	p := helper.ResolvePaging(c, 50, 500)
	rows, total, err := h.Svc.ListItems(c.UserContext(), store.StockItemFilter{
		InstitutionID: instID,
		Name:          strings.TrimSpace(c.Query("name")),
		Category:      strings.TrimSpace(c.Query("category")),
		Page:          store.Page{Limit: p.Limit, Offset: p.Offset},
	})
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonList(c, "", dto.FromItems(rows), helper.BuildPagination(total, p, len(rows)))
}

// PATCH /:institution_id/stock/items/:item_id
func (h *StockController) UpdateItem(c *fiber.Ctx) error {
	instID, _, err := helperAuth.ResolveInstitutionForWrite(c)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	itemID, err := helperAuth.ParseUUIDParam(c, "item_id")
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	var req dto.UpdateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid JSON body")
	}
	if fe := helper.ValidateStruct(&req); fe != nil {
		return helper.JsonValidationError(c, fe)
	}
	m, err := h.Svc.UpdateItem(c.UserContext(), instID, itemID, req.ToPatch())
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonUpdated(c, "stock item updated", dto.FromItem(m))
}

// DELETE /:institution_id/stock/items/:item_id
func (h *StockController) DeleteItem(c *fiber.Ctx) error {
	instID, _, err := helperAuth.ResolveInstitutionForWrite(c)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	itemID, err := helperAuth.ParseUUIDParam(c, "item_id")
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	if err := h.Svc.DeleteItem(c.UserContext(), instID, itemID); err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonDeleted(c, "stock item deleted", fiber.Map{"stock_item_id": itemID})
}

/* =========================
   Sales
========================= */

// POST /:institution_id/stock/sales
func (h *StockController) RecordSale(c *fiber.Ctx) error {
	instID, who, err := helperAuth.ResolveInstitutionForWrite(c)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	var req dto.RecordSaleRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid JSON body")
	}
	if fe := helper.ValidateStruct(&req); fe != nil {
		return helper.JsonValidationError(c, fe)
	}
	m, err := h.Svc.RecordStockSale(c.UserContext(), instID, req.ToInput(who.UID))
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonCreated(c, "stock sale recorded", dto.FromSale(m))
}

// GET /:institution_id/stock/sales?student_id=&page=&per_page=
func (h *StockController) ListSales(c *fiber.Ctx) error {
	instID, _, err := helperAuth.ResolveInstitution(c)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	p := helper.ResolvePaging(c, 25, 200)
	f := store.StockSaleFilter{InstitutionID: instID, Page: store.Page{Limit: p.Limit, Offset: p.Offset}}
	if raw := strings.TrimSpace(c.Query("student_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "student_id is not a valid UUID")
		}
		f.StudentID = &id
	}
	rows, total, err := h.Svc.ListSales(c.UserContext(), f)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonList(c, "", dto.FromSales(rows), helper.BuildPagination(total, p, len(rows)))
}

// GET /:institution_id/stock/sales/:receipt_id
func (h *StockController) GetSale(c *fiber.Ctx) error {
	instID, _, err := helperAuth.ResolveInstitution(c)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	m, err := h.Svc.GetSale(c.UserContext(), instID, c.Params("receipt_id"))
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, "", dto.FromSale(m))
}
