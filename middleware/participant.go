// middleware/participant.go
package middleware

import (
	"log"

	"github.com/gofiber/fiber/v2"
)

// ParticipantContextMiddleware extracts the resolved participant
// identity forwarded by the calling layer. The core never holds a
// "currently logged in" participant; identity travels with each
// request instead.
func ParticipantContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		participantID := c.Get("X-Participant-ID")
		if participantID == "" {
			log.Printf("🚫 [PARTICIPANT_CTX] X-Participant-ID missing on %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-Participant-ID — resolve the participant first",
			})
		}

		c.Locals("participant_id", participantID)
		c.Locals("nickname", c.Get("X-Participant-Name"))
		return c.Next()
	}
}
