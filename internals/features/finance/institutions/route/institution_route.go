// file: internals/features/finance/institutions/route/institution_route.go
package route

import (
	institutionController "schoolfee_backend/internals/features/finance/institutions/controller"
	"schoolfee_backend/internals/features/finance/institutions/service"
	helperAuth "schoolfee_backend/internals/helpers/auth"

	"github.com/gofiber/fiber/v2"
)

func InstitutionRoutes(r fiber.Router, svc *service.InstitutionService) {
	ctl := institutionController.NewInstitutionController(svc)

	r.Post("/institutions", helperAuth.OwnerOnly(), ctl.Create)
	r.Get("/:institution_id", ctl.Get)
	r.Patch("/:institution_id", ctl.Update)
}
