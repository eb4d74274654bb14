// file: internals/features/finance/institutions/controller/institution_controller.go
package controller

import (
	dto "schoolfee_backend/internals/features/finance/institutions/dto"
	"schoolfee_backend/internals/features/finance/institutions/service"
	helper "schoolfee_backend/internals/helpers"
	helperAuth "schoolfee_backend/internals/helpers/auth"

	"github.com/gofiber/fiber/v2"
)

type InstitutionController struct {
	Svc *service.InstitutionService
}

func NewInstitutionController(svc *service.InstitutionService) *InstitutionController {
	return &InstitutionController{Svc: svc}
}

// POST /institutions (owner)
func (h *InstitutionController) Create(c *fiber.Ctx) error {
	var req dto.CreateInstitutionRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid JSON body")
	}
	if fe := helper.ValidateStruct(&req); fe != nil {
		return helper.JsonValidationError(c, fe)
	}
	m, err := h.Svc.Create(c.UserContext(), req.ToInput())
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonCreated(c, "institution created", dto.FromModel(m))
}

// GET /:institution_id
func (h *InstitutionController) Get(c *fiber.Ctx) error {
	instID, _, err := helperAuth.ResolveInstitution(c)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	m, err := h.Svc.Get(c.UserContext(), instID)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, "", dto.FromModel(m))
}

// PATCH /:institution_id
func (h *InstitutionController) Update(c *fiber.Ctx) error {
	instID, _, err := helperAuth.ResolveInstitutionForWrite(c)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	var req dto.UpdateInstitutionRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid JSON body")
	}
	if fe := helper.ValidateStruct(&req); fe != nil {
		return helper.JsonValidationError(c, fe)
	}
	m, err := h.Svc.Update(c.UserContext(), instID, req.ToInput())
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonUpdated(c, "institution updated", dto.FromModel(m))
}
