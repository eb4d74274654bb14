// file: internals/features/finance/fee_structures/controller/fee_structure_controller.go
package controller

import (
	"net/url"
	"strconv"
	"strings"

	dto "schoolfee_backend/internals/features/finance/fee_structures/dto"
	"schoolfee_backend/internals/features/finance/fee_structures/service"
	helper "schoolfee_backend/internals/helpers"
	helperAuth "schoolfee_backend/internals/helpers/auth"

	"github.com/gofiber/fiber/v2"
)

type FeeStructureController struct {
	Svc *service.FeeStructureService
}

func NewFeeStructureController(svc *service.FeeStructureService) *FeeStructureController {
	return &FeeStructureController{Svc: svc}
}

/* =========================
   Utils
========================= */

// nameParam reads a path segment that may carry escaped spaces ("Class%201").
func nameParam(c *fiber.Ctx, key string) string {
	raw := c.Params(key)
	if v, err := url.PathUnescape(raw); err == nil {
		raw = v
	}
	return strings.TrimSpace(raw)
}

/* =========================
   GET /:institution_id/fee-structures
========================= */

func (ctl *FeeStructureController) List(c *fiber.Ctx) error {
	instID, _, err := helperAuth.ResolveInstitution(c)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	rows, err := ctl.Svc.ListStructures(c.UserContext(), instID)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, "", dto.FromModelsSummary(rows))
}

/* =========================
   GET /:institution_id/fee-structures/:academic_year
========================= */

func (ctl *FeeStructureController) Get(c *fiber.Ctx) error {
	instID, _, err := helperAuth.ResolveInstitution(c)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	m, err := ctl.Svc.GetStructure(c.UserContext(), instID, nameParam(c, "academic_year"))
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, "", dto.FromModel(m))
}

/* =========================
   POST /:institution_id/fee-structures
========================= */

func (ctl *FeeStructureController) CreateYear(c *fiber.Ctx) error {
	instID, _, err := helperAuth.ResolveInstitutionForWrite(c)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	var req dto.CreateAcademicYearRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid JSON body")
	}
	if fe := helper.ValidateStruct(&req); fe != nil {
		return helper.JsonValidationError(c, fe)
	}
	m, err := ctl.Svc.CreateAcademicYear(c.UserContext(), instID, strings.TrimSpace(req.AcademicYear), strings.TrimSpace(req.CopyFrom))
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonCreated(c, "academic year created", dto.FromModel(m))
}

/* =========================
   DELETE /:institution_id/fee-structures/:academic_year
========================= */

func (ctl *FeeStructureController) DeleteYear(c *fiber.Ctx) error {
	instID, _, err := helperAuth.ResolveInstitutionForWrite(c)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	year := nameParam(c, "academic_year")
	if c.Query("confirm") != year {
		return helper.JsonError(c, fiber.StatusBadRequest, "repeat the academic year in ?confirm= to delete it")
	}
	if err := ctl.Svc.DeleteAcademicYear(c.UserContext(), instID, year); err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonDeleted(c, "academic year deleted", fiber.Map{"academic_year": year})
}

/* =========================
   Classes
========================= */

// POST /:institution_id/fee-structures/:academic_year/classes
func (ctl *FeeStructureController) UpsertClass(c *fiber.Ctx) error {
	instID, _, err := helperAuth.ResolveInstitutionForWrite(c)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	var req dto.UpsertClassRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid JSON body")
	}
	if fe := helper.ValidateStruct(&req); fe != nil {
		return helper.JsonValidationError(c, fe)
	}
	m, err := ctl.Svc.UpsertClass(c.UserContext(), instID, nameParam(c, "academic_year"), req.ClassName)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonCreated(c, "class added", dto.FromModel(m))
}

// DELETE /:institution_id/fee-structures/:academic_year/classes/:class_name
func (ctl *FeeStructureController) DeleteClass(c *fiber.Ctx) error {
	instID, _, err := helperAuth.ResolveInstitutionForWrite(c)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	m, err := ctl.Svc.DeleteClass(c.UserContext(), instID, nameParam(c, "academic_year"), nameParam(c, "class_name"))
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonDeleted(c, "", dto.FromModel(m))
}

/* =========================
   Student types
========================= */

// PUT /:institution_id/fee-structures/:academic_year/classes/:class_name/student-types
func (ctl *FeeStructureController) UpsertStudentType(c *fiber.Ctx) error {
	instID, _, err := helperAuth.ResolveInstitutionForWrite(c)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	var req dto.UpsertStudentTypeRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid JSON body")
	}
	if fe := helper.ValidateStruct(&req); fe != nil {
		return helper.JsonValidationError(c, fe)
	}
	in, err := req.ToInput()
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	m, err := ctl.Svc.UpsertStudentType(c.UserContext(), instID, nameParam(c, "academic_year"), nameParam(c, "class_name"), in)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonUpdated(c, "student type saved", dto.FromModel(m))
}

// DELETE /:institution_id/fee-structures/:academic_year/classes/:class_name/student-types/:student_type?medium_flag=true
func (ctl *FeeStructureController) DeleteStudentType(c *fiber.Ctx) error {
	instID, _, err := helperAuth.ResolveInstitutionForWrite(c)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	semi, err := strconv.ParseBool(c.Query("medium_flag", "false"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "medium_flag must be true or false")
	}
	m, err := ctl.Svc.DeleteStudentType(c.UserContext(), instID,
		nameParam(c, "academic_year"), nameParam(c, "class_name"), nameParam(c, "student_type"), semi)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonDeleted(c, "", dto.FromModel(m))
}
