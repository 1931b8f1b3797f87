package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// TokenValidator resolves a bearer token to its user ID and claims.
type TokenValidator func(token string) (userID string, claims map[string]any, err error)

// AuthRequired rejects requests without a valid bearer token and puts
// the resolved user ID in Locals("userID") for the handler.
func AuthRequired(validate TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			return unauthorized(c, "missing authorization token")
		}
		userID, _, err := validate(token)
		if err != nil {
			return unauthorized(c, "invalid or expired token")
		}
		c.Locals("userID", userID)
		return c.Next()
	}
}

// OptionalAuth resolves a bearer token when one is present but lets
// anonymous requests through. A bad token is treated as anonymous.
func OptionalAuth(validate TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := bearerToken(c.Get(fiber.HeaderAuthorization)); token != "" {
			if userID, _, err := validate(token); err == nil {
				c.Locals("userID", userID)
			}
		}
		return c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return header[len(prefix):]
}
