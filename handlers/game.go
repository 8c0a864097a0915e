// handlers/game.go
package handlers

import (
	"strconv"

	"decokatsu-challenge-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupGameRoutes(app *fiber.App, game *services.GameService) {
	app.Post("/game/attempts", func(c *fiber.Ctx) error {
		var req struct {
			Name           string  `json:"name"`
			Group          string  `json:"group"`
			ElapsedSeconds float64 `json:"elapsed_seconds"`
			Date           string  `json:"date"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		if req.Name == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
		}

		if err := game.RecordAttempt(req.Name, req.Group, req.ElapsedSeconds, req.Date); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusCreated)
	})

	app.Get("/game/leaderboard", func(c *fiber.Ctx) error {
		n, _ := strconv.Atoi(c.Query("limit", "10"))

		scope := services.ScopeToday
		if c.Query("scope", "today") == "all" {
			scope = services.ScopeAllTime
		}

		ranked, err := game.Top(n, scope)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"leaderboard": ranked})
	})

	app.Get("/game/questions", func(c *fiber.Ctx) error {
		// Answers stay server-side; the deck ships without them.
		return c.JSON(fiber.Map{"questions": services.DefaultQuiz})
	})
}
