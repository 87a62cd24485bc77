// Package rest is the request/response surface: authentication, history
// retrieval for reconnecting clients, and the websocket upgrade path.
package rest

import (
	"casechat/auth"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const claimsKey = "identity_claims"

// Protected validates the bearer token (or the token query parameter,
// which the browser websocket API needs since it cannot set headers) and
// stores the verified claims for handlers downstream. Authentication
// failures stop here; nothing unauthenticated reaches the registry.
func Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "missing credentials",
			})
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "invalid or expired token",
			})
		}

		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

// ClaimsFrom returns the claims Protected stored on this request.
func ClaimsFrom(c *fiber.Ctx) *auth.IdentityClaims {
	claims, _ := c.Locals(claimsKey).(*auth.IdentityClaims)
	return claims
}
