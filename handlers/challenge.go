// handlers/challenge.go
package handlers

import (
	"errors"

	"decokatsu-challenge-system/middleware"
	"decokatsu-challenge-system/models"
	"decokatsu-challenge-system/services"

	"github.com/gofiber/fiber/v2"
)

// statusFor maps the core's typed failures onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrUnknownAction),
		errors.Is(err, services.ErrInvalidAttempt):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrAlreadyDrawn),
		errors.Is(err, services.ErrNotEligible):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrStoreUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
}

func SetupChallengeRoutes(app *fiber.App, ledger *services.LedgerService, catalog *services.CatalogService, stats *services.StatsService) {
	// 🔓 Public: login-screen banner, catalog, resolve, visitor booth
	app.Get("/stats/global", func(c *fiber.Ctx) error {
		snap, err := stats.Global()
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(snap)
	})

	app.Get("/stats/groups", func(c *fiber.Ctx) error {
		ranking, err := stats.GroupRanking()
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"ranking": ranking})
	})

	app.Get("/catalog", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"actions":         catalog.Definitions(),
			"challenge_dates": models.ChallengeDates,
			"survey_date":     models.SurveyDate,
			"goal_points":     models.GoalPoints,
			"max_points":      models.MaxPossiblePoints,
		})
	})

	app.Post("/participants/resolve", func(c *fiber.Ctx) error {
		var req struct {
			School   string `json:"school"`
			Grade    string `json:"grade"`
			Class    string `json:"class"`
			Number   int    `json:"number"`
			Nickname string `json:"nickname"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		if req.School == "" || req.Class == "" || req.Nickname == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "school, class and nickname are required"})
		}

		res, err := ledger.Resolve(req.School, req.Grade, req.Class, req.Number, req.Nickname)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	})

	app.Post("/visitors/declarations", func(c *fiber.Ctx) error {
		var req struct {
			Nickname    string `json:"nickname"`
			Declaration string `json:"declaration"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		if req.Nickname == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "nickname is required"})
		}

		id, err := ledger.RecordDeclaration(req.Nickname, req.Declaration)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"visitor_id": id})
	})

	// 🔐 Participant routes — identity forwarded per request
	secured := app.Group("/challenge", middleware.ParticipantContextMiddleware())

	secured.Get("/state", func(c *fiber.Ctx) error {
		participantID := c.Locals("participant_id").(string)

		state, err := ledger.StateFor(participantID)
		if err != nil {
			return fail(c, err)
		}
		certified, err := ledger.IsCertified(participantID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{
			"state":     state,
			"certified": certified,
			"spins":     services.SpinsFor(state.TotalPoints),
		})
	})

	secured.Post("/days", func(c *fiber.Ctx) error {
		participantID := c.Locals("participant_id").(string)
		nickname := c.Locals("nickname").(string)

		var req struct {
			Date       string   `json:"date"`
			ActionKeys []string `json:"action_keys"`
			Memo       string   `json:"memo"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
		if req.Date == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date is required"})
		}

		outcome, err := ledger.SubmitDay(participantID, nickname, req.Date, req.ActionKeys, req.Memo)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(outcome)
	})

	secured.Post("/survey", func(c *fiber.Ctx) error {
		participantID := c.Locals("participant_id").(string)
		nickname := c.Locals("nickname").(string)

		var answers models.SurveyAnswers
		if err := c.BodyParser(&answers); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}

		outcome, err := ledger.SubmitSurvey(participantID, nickname, answers)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(outcome)
	})
}
