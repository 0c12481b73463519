package handlers

import (
	"errors"
	"strings"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/CoachEscrow/internal/middleware"
	"github.com/saeid-a/CoachEscrow/internal/services"
	eventws "github.com/saeid-a/CoachEscrow/internal/websocket"
	"github.com/saeid-a/CoachEscrow/pkg/utils"
)

// EventsHandler upgrades authenticated callers onto the live event stream.
type EventsHandler struct {
	hub       *eventws.Hub
	jwtSecret string
}

func NewEventsHandler(hub *eventws.Hub, jwtSecret string) *EventsHandler {
	return &EventsHandler{hub: hub, jwtSecret: jwtSecret}
}

func (h *EventsHandler) WebSocketAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}

	claims, err := h.parseWSClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	middleware.SetAuth(c, claims)
	return c.Next()
}

func (h *EventsHandler) HandleWebSocket(conn *websocket.Conn) {
	auth, _ := conn.Locals(middleware.AuthLocal).(services.AuthContext)
	client := eventws.NewClient(h.hub, conn, auth.Identity)

	h.hub.Register(client)
	go client.WritePump()
	client.ReadPump()
}

func (h *EventsHandler) parseWSClaims(c *fiber.Ctx) (*utils.Claims, error) {
	tokenString := strings.TrimSpace(c.Query("token"))
	if tokenString == "" {
		tokenString, _ = middleware.BearerToken(c.Get("Authorization"))
	}

	if tokenString == "" {
		return nil, errors.New("missing token")
	}

	return utils.ValidateToken(tokenString, h.jwtSecret)
}
