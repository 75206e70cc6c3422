package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"practicetest/backend/config"
	"practicetest/backend/controllers"
	"practicetest/backend/middleware"
)

type Controllers struct {
	Auth     *controllers.AuthController
	Tests    *controllers.TestsController
	Sessions *controllers.SessionsController
	Media    *controllers.MediaController
	Progress *controllers.ProgressController
}

func SetupRoutes(app *fiber.App, cfg *config.Config, ctl Controllers) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Auth routes
	authLimiter := limiter.New(limiter.Config{
		Max:        20,
		Expiration: time.Minute,
	})
	app.Post("/api/auth/register", authLimiter, ctl.Auth.Register)
	app.Post("/api/auth/login", authLimiter, ctl.Auth.Login)

	authMiddleware := middleware.AuthMiddleware(cfg)

	// Tests routes
	tests := app.Group("/api/tests", authMiddleware)
	tests.Get("/", ctl.Tests.GetAvailableTests)
	tests.Get("/:id", ctl.Tests.GetTestDetails)

	// Session routes
	createLimiter := limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
	})
	sessions := app.Group("/api/sessions", authMiddleware)
	sessions.Post("/", createLimiter, ctl.Sessions.CreateSession)
	sessions.Get("/:id", ctl.Sessions.GetSession)
	sessions.Delete("/:id", ctl.Sessions.DeleteSession)
	sessions.Get("/:id/group", ctl.Sessions.GetCurrentGroup)
	sessions.Get("/:id/events", ctl.Sessions.GetEvents)
	sessions.Get("/:id/score", ctl.Sessions.GetScore)
	sessions.Post("/:id/next", ctl.Sessions.Next)
	sessions.Post("/:id/previous", ctl.Sessions.Previous)
	sessions.Post("/:id/answers", ctl.Sessions.SelectAnswer)
	sessions.Post("/:id/finish", ctl.Sessions.FinishNow)
	sessions.Post("/:id/audio/ended", ctl.Sessions.AudioEnded)
	sessions.Post("/:id/audio/denied", ctl.Sessions.AudioDenied)

	// Progress routes
	progress := app.Group("/api/progress", authMiddleware)
	progress.Get("/", ctl.Progress.GetProgress)
	progress.Get("/overview", ctl.Progress.GetProgressOverview)

	// Media
	app.Get("/api/media", authMiddleware, ctl.Media.GetMedia)
}
