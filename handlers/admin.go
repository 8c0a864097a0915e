// handlers/admin.go
package handlers

import (
	"decokatsu-challenge-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupAdminRoutes wires the festival reception desk. The gateway
// restricts these to staff; this service only sees the forwarded calls.
func SetupAdminRoutes(app *fiber.App, lottery *services.LotteryService, export *services.ExportService) {
	admin := app.Group("/admin")

	admin.Get("/lottery/participants", func(c *fiber.Ctx) error {
		rows, err := lottery.Search(c.Query("q"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"participants": rows})
	})

	admin.Post("/lottery/:id/complete", func(c *fiber.Ctx) error {
		if err := lottery.Complete(c.Params("id")); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"completed": true})
	})

	admin.Post("/exports/run", func(c *fiber.Ctx) error {
		if err := export.Run(); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"exported": true})
	})
}
