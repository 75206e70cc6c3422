package middleware

import (
	"github.com/gofiber/fiber/v2"

	"practicetest/backend/config"
	"practicetest/backend/utils"
)

// LocalUserID is the fiber.Locals key holding the authenticated user id.
const (
	LocalUserID = "userID"
	LocalToken  = "token"
)

func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := utils.ExtractUserIDFromToken(c, cfg)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}
		c.Locals(LocalUserID, userID)
		c.Locals(LocalToken, utils.BearerToken(c))
		return c.Next()
	}
}

// UserID reads the id stored by AuthMiddleware.
func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(LocalUserID).(uint)
	return id
}

func Token(c *fiber.Ctx) string {
	token, _ := c.Locals(LocalToken).(string)
	return token
}
