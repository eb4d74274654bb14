// file: internals/features/finance/stock/route/stock_route.go
package route

import (
	stockController "schoolfee_backend/internals/features/finance/stock/controller"
	"schoolfee_backend/internals/features/finance/stock/service"

	"github.com/gofiber/fiber/v2"
)

func StockRoutes(r fiber.Router, svc *service.StockService) {
	ctl := stockController.NewStockController(svc)

	items := r.Group("/:institution_id/stock/items")
	{
		items.Get("/", ctl.ListItems)
		items.Post("/", ctl.CreateItem)
		items.Patch("/:item_id", ctl.UpdateItem)
		items.Delete("/:item_id", ctl.DeleteItem)
	}

	sales := r.Group("/:institution_id/stock/sales")
	{
		sales.Get("/", ctl.ListSales)
		sales.Post("/", ctl.RecordSale)
		sales.Get("/:receipt_id", ctl.GetSale)
	}
}
