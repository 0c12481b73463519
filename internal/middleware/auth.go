package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/CoachEscrow/internal/services"
	"github.com/saeid-a/CoachEscrow/pkg/utils"
)

// AuthLocal holds the caller's services.AuthContext once a token is accepted.
const AuthLocal = "auth"

func AuthRequired(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := BearerToken(c.Get("Authorization"))
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing or malformed authorization header",
			})
		}

		claims, err := utils.ValidateToken(token, secret)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		SetAuth(c, claims)
		return c.Next()
	}
}

// SetAuth records the identity proven by claims for downstream handlers.
func SetAuth(c *fiber.Ctx, claims *utils.Claims) {
	c.Locals(AuthLocal, services.AuthContext{Identity: claims.Identity, Role: claims.Role})
}

// Auth returns the caller stored by AuthRequired. ok is false when the
// request never passed through it.
func Auth(c *fiber.Ctx) (services.AuthContext, bool) {
	auth, ok := c.Locals(AuthLocal).(services.AuthContext)
	if !ok || strings.TrimSpace(auth.Identity) == "" {
		return services.AuthContext{}, false
	}
	return auth, true
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || scheme != "Bearer" {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
