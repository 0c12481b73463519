package middleware

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/CoachEscrow/pkg/utils"
	"github.com/stretchr/testify/require"
)

const testSecret = "middleware-secret"

func newProtectedApp() *fiber.App {
	app := fiber.New()
	app.Get("/whoami", AuthRequired(testSecret), func(c *fiber.Ctx) error {
		auth, ok := Auth(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.JSON(fiber.Map{
			"identity": auth.Identity,
			"role":     auth.Role,
		})
	})
	return app
}

func TestAuthRequiredStoresCaller(t *testing.T) {
	token, err := utils.GenerateToken("GCOACH", "admin", testSecret)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := newProtectedApp().Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "GCOACH", body["identity"])
	require.Equal(t, "admin", body["role"])
}

func TestAuthRequiredRejectsBadHeaders(t *testing.T) {
	token, err := utils.GenerateToken("GCOACH", "", "other-secret")
	require.NoError(t, err)

	cases := map[string]string{
		"missing":      "",
		"wrong scheme": "Basic abc",
		"empty bearer": "Bearer ",
		"bad token":    "Bearer " + token,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/whoami", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			resp, err := newProtectedApp().Test(req)
			require.NoError(t, err)
			require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestAuthWithoutMiddlewareIsAbsent(t *testing.T) {
	app := fiber.New()
	app.Get("/open", func(c *fiber.Ctx) error {
		if _, ok := Auth(c); ok {
			return c.SendStatus(fiber.StatusOK)
		}
		return c.SendStatus(fiber.StatusUnauthorized)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/open", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestBearerToken(t *testing.T) {
	token, ok := BearerToken("Bearer abc.def")
	require.True(t, ok)
	require.Equal(t, "abc.def", token)

	for _, header := range []string{"", "Bearer", "bearer abc", "Token abc"} {
		_, ok := BearerToken(header)
		require.Falsef(t, ok, "header %q", header)
	}
}
