package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Vixs101/Framez/internal/session"
)

// requireSession rejects requests unless a user is signed in and stores
// user_id in locals.
func requireSession(sessions *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		current := sessions.Current()
		if current.Status != session.StatusSignedIn {
			return fiber.NewError(fiber.StatusUnauthorized, "sign in required")
		}
		c.Locals("user_id", current.UserID)
		return c.Next()
	}
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}
