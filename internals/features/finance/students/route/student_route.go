// file: internals/features/finance/students/route/student_route.go
package route

import (
	studentController "schoolfee_backend/internals/features/finance/students/controller"
	"schoolfee_backend/internals/features/finance/students/service"

	"github.com/gofiber/fiber/v2"
)

func StudentRoutes(r fiber.Router, svc *service.StudentService, media *service.MediaService) {
	ctl := studentController.NewStudentController(svc, media)

	s := r.Group("/:institution_id/students")
	{
		s.Get("/", ctl.List)
		s.Post("/", ctl.Admit)
		s.Get("/:student_id", ctl.Get)
		s.Patch("/:student_id", ctl.Update)
		s.Delete("/:student_id", ctl.Delete)
		s.Get("/:student_id/balances", ctl.Balances)
		s.Post("/:student_id/reclassify", ctl.Reclassify)
		s.Post("/:student_id/leave", ctl.MarkLeft)

		s.Post("/:student_id/documents/presign", ctl.PresignDocument)
		s.Post("/:student_id/documents", ctl.AttachDocument)
		s.Delete("/:student_id/documents", ctl.RemoveDocument)
		s.Put("/:student_id/avatar", ctl.UploadAvatar)
		s.Delete("/:student_id/avatar", ctl.DeleteAvatar)
	}
}
