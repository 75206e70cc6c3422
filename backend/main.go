package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"practicetest/backend/config"
	"practicetest/backend/controllers"
	"practicetest/backend/media"
	"practicetest/backend/middleware"
	"practicetest/backend/models"
	"practicetest/backend/results"
	"practicetest/backend/routes"
	"practicetest/backend/utils"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize logger
	logger := utils.InitLogger(utils.LoggerConfig{
		Format:       cfg.LogFormat,
		EnableColors: cfg.LogColors,
	})

	// Initialize database
	db, err := utils.InitDB(cfg, logger)
	if err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}
	if cfg.SeedFile != "" {
		n, err := models.SeedFromJSON(db, cfg.SeedFile)
		if err != nil {
			log.Fatalf("Error seeding tests: %v", err)
		}
		logger.Printf("Seeded %d tests from %s", n, cfg.SeedFile)
	}

	repo := models.NewTestRepository(db, cfg.DefaultDurationMinutes)
	resolver := media.NewResolver(cfg.MediaBaseURL)
	cache := media.NewCache(cfg.MediaCacheEntries)
	store := controllers.NewSessionStore(cfg.SessionRetention)
	progress := controllers.NewProgressController(models.NewAttemptRepository(db), logger)

	var submitter *results.HTTPSubmitter
	if cfg.ResultSubmitURL != "" {
		submitter = results.NewHTTPSubmitter(cfg.ResultSubmitURL, cfg.SubmitTimeout)
	} else {
		logger.Println("RESULT_SUBMIT_URL not set, results will not be submitted")
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:     "Practice Test",
		JSONEncoder: sonic.Marshal,
		JSONDecoder: sonic.Unmarshal,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(compress.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.LoggingMiddleware(logger, cfg.LogColors && cfg.LogFormat != "json"))

	// Setup routes
	routes.SetupRoutes(app, cfg, routes.Controllers{
		Auth:  controllers.NewAuthController(db, cfg),
		Tests: controllers.NewTestsController(repo, resolver),
		Sessions: controllers.NewSessionsController(controllers.SessionsDeps{
			Source:    repo,
			Store:     store,
			Cfg:       cfg,
			Resolver:  resolver,
			Loader:    media.NewHTTPLoader(cache, cfg.MediaFetchTimeout),
			Submitter: submitter,
			Progress:  progress,
			Logger:    logger,
		}),
		Media:    controllers.NewMediaController(cache),
		Progress: progress,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go store.RunSweeper(ctx, time.Minute)

	go func() {
		if err := app.Listen(":" + cfg.ServerPort); err != nil {
			logger.Printf("Server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Println("Shutting down")
	store.CloseAll()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Printf("Shutdown: %v", err)
	}
}
