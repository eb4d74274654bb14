// file: internals/features/finance/fee_structures/route/fee_structure_route.go
package route

import (
	feeController "schoolfee_backend/internals/features/finance/fee_structures/controller"
	"schoolfee_backend/internals/features/finance/fee_structures/service"

	"github.com/gofiber/fiber/v2"
)

// FeeStructureRoutes mounts under an authenticated group; the institution comes from the path.
func FeeStructureRoutes(r fiber.Router, svc *service.FeeStructureService) {
	ctl := feeController.NewFeeStructureController(svc)

	fs := r.Group("/:institution_id/fee-structures")
	{
		fs.Get("/", ctl.List)
		fs.Post("/", ctl.CreateYear)
		fs.Get("/:academic_year", ctl.Get)
		fs.Delete("/:academic_year", ctl.DeleteYear)

		fs.Post("/:academic_year/classes", ctl.UpsertClass)
		fs.Delete("/:academic_year/classes/:class_name", ctl.DeleteClass)
		fs.Put("/:academic_year/classes/:class_name/student-types", ctl.UpsertStudentType)
		fs.Delete("/:academic_year/classes/:class_name/student-types/:student_type", ctl.DeleteStudentType)
	}
}
