package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/CoachEscrow/internal/config"
	"github.com/saeid-a/CoachEscrow/internal/events"
	"github.com/saeid-a/CoachEscrow/internal/handlers"
	"github.com/saeid-a/CoachEscrow/internal/middleware"
	"github.com/saeid-a/CoachEscrow/internal/repository"
	"github.com/saeid-a/CoachEscrow/internal/services"
	eventws "github.com/saeid-a/CoachEscrow/internal/websocket"
	"go.uber.org/zap"
)

// Dependencies are the long-lived collaborators built by the entrypoint.
type Dependencies struct {
	Store     repository.Store
	Hub       *eventws.Hub
	Publisher events.Publisher
	Logger    *zap.Logger
}

func RegisterRoutes(app *fiber.App, cfg *config.Config, deps Dependencies) error {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	var publisher events.Publisher = events.NoopPublisher{}
	if deps.Publisher != nil {
		publisher = deps.Publisher
	}

	riskTracker := services.NewRiskTracker(deps.Store)
	escrowService := services.NewEscrowService(
		deps.Store,
		riskTracker,
		publisher,
		logger.Named("escrow"),
		services.EscrowOptions{
			CustodyAccount: cfg.CustodyAccount,
			AttendanceMode: services.AttendanceMode(cfg.AttendanceMode),
		},
	)
	ledgerService := services.NewLedgerService(deps.Store, logger.Named("ledger"))

	escrowHandler := handlers.NewEscrowHandler(escrowService, riskTracker)
	ledgerHandler := handlers.NewLedgerHandler(ledgerService)

	if err := registerDocsRoutes(app, cfg); err != nil {
		return err
	}

	api := app.Group("/api")

	// Must precede the bearer-only group; the stream also accepts ?token=.
	if deps.Hub != nil {
		eventsHandler := handlers.NewEventsHandler(deps.Hub, cfg.JWTSecret)
		api.Use("/v1/ws", eventsHandler.WebSocketAuth)
		api.Get("/v1/ws", websocket.New(eventsHandler.HandleWebSocket))
	}

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	escrow := authProtected.Group("/escrow")
	escrow.Post("/initialize", escrowHandler.Initialize)
	escrow.Get("/config", escrowHandler.GetConfig)

	sessions := authProtected.Group("/sessions")
	sessions.Post("", escrowHandler.CreateSession)
	sessions.Get("", escrowHandler.ListSessions)
	sessions.Get("/:id", escrowHandler.GetSession)
	sessions.Put("/:id/attendance", escrowHandler.MarkAttendance)
	sessions.Post("/:id/complete", escrowHandler.CompleteSession)

	clients := authProtected.Group("/clients")
	clients.Get("/:client/stats", escrowHandler.GetClientStats)

	ledger := authProtected.Group("/ledger")
	ledger.Get("/balance", ledgerHandler.GetBalance)
	ledger.Post("/deposits", ledgerHandler.Deposit)

	return nil
}
