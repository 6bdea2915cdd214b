package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/bountydex/bountydex/backend/config"
	"github.com/bountydex/bountydex/backend/handlers"
	"github.com/bountydex/bountydex/backend/middleware"
	webmodels "github.com/bountydex/bountydex/backend/models"
	"github.com/bountydex/bountydex/bountydex"
	"github.com/bountydex/bountydex/bountydex/database"
	"github.com/bountydex/bountydex/bountydex/database/repositories"
	"github.com/bountydex/bountydex/bountydex/logger"
	"github.com/bountydex/bountydex/bountydex/services"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	configPath := "config.toml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	customHandler := logger.NewHandler("api")
	slog.SetDefault(slog.New(customHandler))

	slog.Info("Starting BountyDex API",
		slog.String("version", version),
		slog.String("commit", commit),
		slog.String("type", "api"))

	cfg, err := bountydex.LoadConfig(configPath)
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	webCfg := config.NewWebAppConfig(cfg, cfg.Log.Level == slog.LevelDebug)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	slog.Info("Connecting to database...")
	db, err := database.New(ctx, database.DBConfig(cfg.DB))
	if err != nil {
		slog.Error("Failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("Database connected successfully")

	cardRepo := repositories.NewCardRepository(db.BunDB())
	repos := webmodels.NewRepositories(
		repositories.NewCardSetRepository(db.BunDB()),
		cardRepo,
		repositories.NewCardHistoryRepository(db.BunDB()),
		repositories.NewDeckRepository(db.BunDB()),
	)

	app := fiber.New(fiber.Config{
		AppName:      "BountyDex API",
		ServerHeader: "BountyDex",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	app.Use(recover.New())
	app.Use(middleware.SecurityHeaders())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "http://localhost:3000,http://localhost:8080",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))
	app.Use(middleware.LoggingMiddleware())

	webApp := &handlers.WebApp{
		Config:  webCfg,
		DB:      db,
		Repos:   repos,
		Lookup:  services.NewLookupService(cardRepo),
		Version: version,
		Commit:  commit,
	}

	setupRoutes(app, webApp)

	address := webCfg.ListenAddress()
	slog.Info("Starting API server", slog.String("address", address))

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := app.Listen(address); err != nil {
			slog.Error("Failed to start server", slog.String("error", err.Error()))
		}
	}()

	<-c
	slog.Info("Shutting down API server...")

	ctx, cancel = context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		slog.Error("Server shutdown error", slog.String("error", err.Error()))
	}

	db.Close()
	slog.Info("API server shutdown complete")
}

// setupRoutes configures all application routes
func setupRoutes(app *fiber.App, webApp *handlers.WebApp) {
	app.Get("/health", handlers.HealthCheck(webApp))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "BountyDex API",
			"version": webApp.Version,
			"status":  "running",
		})
	})

	writeLimiter := middleware.NewRateLimiter(60, time.Minute)

	api := app.Group("/api")

	sets := api.Group("/sets")
	sets.Get("/", handlers.SetsList(webApp))
	sets.Get("/:id", handlers.SetsDetail(webApp))

	cards := api.Group("/cards")
	cards.Get("/", handlers.CardsList(webApp))
	cards.Get("/search", handlers.CardsSearch(webApp))
	cards.Get("/code/:code", handlers.CardsByCode(webApp))
	cards.Get("/code/:code/history", handlers.HistoryByCode(webApp))
	cards.Get("/:id", handlers.CardsDetail(webApp))
	cards.Post("/", writeLimiter.Middleware(), handlers.CardsCreate(webApp))
	cards.Put("/:id", writeLimiter.Middleware(), handlers.CardsUpdate(webApp))
	cards.Delete("/:id", writeLimiter.Middleware(), handlers.CardsDelete(webApp))

	api.Get("/history", handlers.HistoryList(webApp))

	decks := api.Group("/decks")
	decks.Get("/", handlers.DecksList(webApp))
	decks.Get("/:id", handlers.DecksDetail(webApp))
	decks.Post("/", writeLimiter.Middleware(), handlers.DecksCreate(webApp))
	decks.Put("/:id", writeLimiter.Middleware(), handlers.DecksUpdate(webApp))
	decks.Delete("/:id", writeLimiter.Middleware(), handlers.DecksDelete(webApp))
	decks.Post("/:id/cards", writeLimiter.Middleware(), handlers.DecksAddCard(webApp))
	decks.Delete("/:id/cards/:cardID", writeLimiter.Middleware(), handlers.DecksRemoveCard(webApp))

	app.Use(func(c *fiber.Ctx) error {
		slog.Warn("No route matched for request",
			slog.String("type", "api"),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("ip", c.IP()),
		)
		return c.Status(404).JSON(fiber.Map{
			"success": false,
			"error": fiber.Map{
				"code":    404,
				"message": "Not Found",
			},
		})
	})
}
