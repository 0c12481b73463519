package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	eventws "github.com/saeid-a/CoachEscrow/internal/websocket"
	"github.com/stretchr/testify/require"
)

func TestWebSocketAuthRequiresUpgrade(t *testing.T) {
	handler := NewEventsHandler(eventws.NewHub(nil), "secret")

	app := fiber.New()
	app.Use("/api/v1/ws", handler.WebSocketAuth)
	app.Get("/api/v1/ws", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}

func TestWebSocketAuthRejectsMissingToken(t *testing.T) {
	handler := NewEventsHandler(eventws.NewHub(nil), "secret")

	app := fiber.New()
	app.Use("/api/v1/ws", handler.WebSocketAuth)
	app.Get("/api/v1/ws", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
