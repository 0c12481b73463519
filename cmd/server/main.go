package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/saeid-a/CoachEscrow/internal/config"
	"github.com/saeid-a/CoachEscrow/internal/database"
	"github.com/saeid-a/CoachEscrow/internal/events"
	"github.com/saeid-a/CoachEscrow/internal/logger"
	"github.com/saeid-a/CoachEscrow/internal/repository"
	"github.com/saeid-a/CoachEscrow/internal/routes"
	eventws "github.com/saeid-a/CoachEscrow/internal/websocket"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}

	err = run(cfg, zl)
	if err != nil {
		zl.Error("server exited", zap.Error(err))
	}
	_ = zl.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	// 2. Storage
	var store repository.Store
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		zl.Warn("using in-memory storage; state is lost on restart")
		store = repository.NewMemoryStore()
	default:
		if cfg.AutoMigrate {
			if err := database.Migrate(cfg.DBUrl, database.MigrateUp); err != nil {
				return fmt.Errorf("apply migrations: %w", err)
			}
			zl.Info("migrations applied")
		}
		if err := database.ConnectDB(cfg.DBUrl, zl); err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer database.CloseDB()
		store = repository.NewPostgresStore(database.DB)
	}

	// 3. Event delivery
	hub := eventws.NewHub(zl.Named("ws"))
	go hub.Run()
	publishers := events.Fanout{hub}
	defer func() {
		if err := publishers.Close(); err != nil {
			zl.Warn("closing event publishers", zap.Error(err))
		}
	}()
	if cfg.NATSUrl != "" {
		natsPublisher, err := events.NewNATSPublisher(cfg.NATSUrl, cfg.NATSSubjectPrefix)
		if err != nil {
			return fmt.Errorf("connect NATS: %w", err)
		}
		publishers = append(publishers, natsPublisher)
		zl.Info("publishing events to NATS", zap.String("prefix", cfg.NATSSubjectPrefix))
	}

	// 4. Setup Fiber
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Use(cors.New())
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})
	if err := routes.RegisterRoutes(app, cfg, routes.Dependencies{
		Store:     store,
		Hub:       hub,
		Publisher: publishers,
		Logger:    zl,
	}); err != nil {
		return fmt.Errorf("register routes: %w", err)
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		zl.Info("shutting down")
		if err := app.Shutdown(); err != nil {
			zl.Warn("server shutdown", zap.Error(err))
		}
	}()

	// 5. Start Server
	zl.Info("server starting",
		zap.String("port", cfg.Port),
		zap.String("storage", cfg.StorageDriver),
		zap.String("attendance_mode", cfg.AttendanceMode),
	)
	if err := app.Listen(":" + cfg.Port); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}
