package middleware

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"practicetest/backend/utils"
)

func LoggingMiddleware(logger *log.Logger, colors bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		method := c.Method()

		var statusColor, methodColor, reset string
		if colors {
			statusColor, methodColor, reset = utils.StatusColor(status), utils.MethodColor(method), "\033[0m"
		}

		if err != nil {
			logger.Printf("%s %s%s%s %s %s%d%s %v err=%v",
				c.IP(), methodColor, method, reset, c.Path(), statusColor, status, reset, time.Since(start), err)
			return err
		}
		logger.Printf("%s %s%s%s %s %s%d%s %v",
			c.IP(), methodColor, method, reset, c.Path(), statusColor, status, reset, time.Since(start))
		return nil
	}
}
