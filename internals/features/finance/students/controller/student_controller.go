// file: internals/features/finance/students/controller/student_controller.go
package controller

import (
	"strings"

	dto "schoolfee_backend/internals/features/finance/students/dto"
	model "schoolfee_backend/internals/features/finance/students/model"
	"schoolfee_backend/internals/features/finance/students/service"
	"schoolfee_backend/internals/features/finance/store"
	helper "schoolfee_backend/internals/helpers"
	helperAuth "schoolfee_backend/internals/helpers/auth"
	helperOSS "schoolfee_backend/internals/helpers/oss"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type StudentController struct {
	Svc   *service.StudentService
	Media *service.MediaService
}

func NewStudentController(svc *service.StudentService, media *service.MediaService) *StudentController {
	return &StudentController{Svc: svc, Media: media}
}

func (ctl *StudentController) urlFunc() dto.URLFunc {
	if ctl.Media == nil {
		return nil
	}
	return ctl.Media.PublicURL
}

// scope resolves institution and student ids for write or read routes.
func scope(c *fiber.Ctx, write bool) (uuid.UUID, uuid.UUID, error) {
	resolve := helperAuth.ResolveInstitution
	if write {
		resolve = helperAuth.ResolveInstitutionForWrite
	}
	instID, _, err := resolve(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	studentID, err := helperAuth.ParseUUIDParam(c, "student_id")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return instID, studentID, nil
}

/* =========================
   POST /:institution_id/students
========================= */

func (ctl *StudentController) Admit(c *fiber.Ctx) error {
	instID, _, err := helperAuth.ResolveInstitutionForWrite(c)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	var req dto.AdmitStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid JSON body")
	}
	if fe := helper.ValidateStruct(&req); fe != nil {
		return helper.JsonValidationError(c, fe)
	}
	m, err := ctl.Svc.Admit(c.UserContext(), instID, req.ToInput())
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonCreated(c, "student admitted", dto.FromModel(m, ctl.urlFunc()))
}

/* =========================
   GET /:institution_id/students
   ?class=&division=&academic_year=&status=&q=&page=&per_page=
========================= */

func (ctl *StudentController) List(c *fiber.Ctx) error {
	instID, _, err := helperAuth.ResolveInstitution(c)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	p := helper.ResolvePaging(c, 25, 200)
	rows, total, err := ctl.Svc.List(c.UserContext(), store.StudentFilter{
		InstitutionID: instID,
		Class:         strings.TrimSpace(c.Query("class")),
		Division:      strings.TrimSpace(c.Query("division")),
		AcademicYear:  strings.TrimSpace(c.Query("academic_year")),
		Status:        model.StudentStatus(strings.ToLower(strings.TrimSpace(c.Query("status")))),
		Search:        strings.TrimSpace(c.Query("q")),
		Page:          store.Page{Limit: p.Limit, Offset: p.Offset},
	})
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonList(c, "", dto.FromModels(rows, ctl.urlFunc()), helper.BuildPagination(total, p, len(rows)))
}

/* =========================
   GET /:institution_id/students/:student_id
========================= */

func (ctl *StudentController) Get(c *fiber.Ctx) error {
	instID, studentID, err := scope(c, false)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	m, err := ctl.Svc.Get(c.UserContext(), instID, studentID)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, "", dto.FromModel(m, ctl.urlFunc()))
}

// GET /:institution_id/students/:student_id/balances
func (ctl *StudentController) Balances(c *fiber.Ctx) error {
	instID, studentID, err := scope(c, false)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	b, err := ctl.Svc.Balances(c.UserContext(), instID, studentID)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, "", dto.FromBalances(b, ctl.urlFunc()))
}

/* =========================
   Mutations
========================= */

// PATCH /:institution_id/students/:student_id
func (ctl *StudentController) Update(c *fiber.Ctx) error {
	instID, studentID, err := scope(c, true)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	var req dto.UpdateStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid JSON body")
	}
	if fe := helper.ValidateStruct(&req); fe != nil {
		return helper.JsonValidationError(c, fe)
	}
	m, err := ctl.Svc.Update(c.UserContext(), instID, studentID, req.ToInput())
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonUpdated(c, "", dto.FromModel(m, ctl.urlFunc()))
}

// POST /:institution_id/students/:student_id/reclassify
func (ctl *StudentController) Reclassify(c *fiber.Ctx) error {
	instID, studentID, err := scope(c, true)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	var req dto.ReclassifyStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid JSON body")
	}
	if fe := helper.ValidateStruct(&req); fe != nil {
		return helper.JsonValidationError(c, fe)
	}
	m, err := ctl.Svc.Reclassify(c.UserContext(), instID, studentID, req.ToInput())
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonUpdated(c, "student reclassified", dto.FromModel(m, ctl.urlFunc()))
}

// POST /:institution_id/students/:student_id/leave
func (ctl *StudentController) MarkLeft(c *fiber.Ctx) error {
	instID, studentID, err := scope(c, true)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	m, err := ctl.Svc.MarkLeft(c.UserContext(), instID, studentID)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonUpdated(c, "student marked as left", dto.FromModel(m, ctl.urlFunc()))
}

// DELETE /:institution_id/students/:student_id
func (ctl *StudentController) Delete(c *fiber.Ctx) error {
	instID, studentID, err := scope(c, true)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	m, err := ctl.Svc.Get(c.UserContext(), instID, studentID)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	if err := ctl.Svc.Delete(c.UserContext(), instID, studentID); err != nil {
		return helper.JsonAppError(c, err)
	}
	if ctl.Media != nil {
		ctl.Media.Purge(c.UserContext(), m)
	}
	return helper.JsonDeleted(c, "student deleted", fiber.Map{"student_id": studentID})
}

/* =========================
   Media
========================= */

// POST /:institution_id/students/:student_id/documents/presign
func (ctl *StudentController) PresignDocument(c *fiber.Ctx) error {
	instID, studentID, err := scope(c, true)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	var req dto.PresignDocumentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid JSON body")
	}
	if fe := helper.ValidateStruct(&req); fe != nil {
		return helper.JsonValidationError(c, fe)
	}
	up, err := ctl.Media.PresignDocumentUpload(c.UserContext(), instID, studentID, req.FileName, req.ContentType)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonCreated(c, "upload url issued", up)
}

// POST /:institution_id/students/:student_id/documents
func (ctl *StudentController) AttachDocument(c *fiber.Ctx) error {
	instID, studentID, err := scope(c, true)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	var req dto.DocumentKeyRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid JSON body")
	}
	if fe := helper.ValidateStruct(&req); fe != nil {
		return helper.JsonValidationError(c, fe)
	}
	m, err := ctl.Media.AttachDocument(c.UserContext(), instID, studentID, strings.TrimSpace(req.Key))
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonUpdated(c, "document attached", dto.FromModel(m, ctl.urlFunc()))
}

// DELETE /:institution_id/students/:student_id/documents?key=
func (ctl *StudentController) RemoveDocument(c *fiber.Ctx) error {
	instID, studentID, err := scope(c, true)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	key := strings.TrimSpace(c.Query("key"))
	if key == "" {
		return helper.JsonError(c, fiber.StatusBadRequest, "key is required")
	}
	m, err := ctl.Media.RemoveDocument(c.UserContext(), instID, studentID, key)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonDeleted(c, "document removed", dto.FromModel(m, ctl.urlFunc()))
}

// PUT /:institution_id/students/:student_id/avatar (multipart, field "file")
func (ctl *StudentController) UploadAvatar(c *fiber.Ctx) error {
	instID, studentID, err := scope(c, true)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "file is required")
	}
	if fh.Size > helperOSS.MaxImageUpload {
		return helper.JsonError(c, fiber.StatusRequestEntityTooLarge, "image is larger than 5MB")
	}
	f, err := fh.Open()
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "cannot open file")
	}
	defer f.Close()

	m, err := ctl.Media.UploadAvatar(c.UserContext(), instID, studentID, f)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonUpdated(c, "avatar uploaded", dto.FromModel(m, ctl.urlFunc()))
}

// DELETE /:institution_id/students/:student_id/avatar
func (ctl *StudentController) DeleteAvatar(c *fiber.Ctx) error {
	instID, studentID, err := scope(c, true)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	m, err := ctl.Media.DeleteAvatar(c.UserContext(), instID, studentID)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonDeleted(c, "avatar removed", dto.FromModel(m, ctl.urlFunc()))
}
