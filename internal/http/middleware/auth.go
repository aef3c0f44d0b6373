package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"draftapi/internal/auth"
)

// OwnerLocalKey is the key used to store the authenticated owner in Fiber's
// context locals.
const OwnerLocalKey = "owner"

// BearerAuth verifies the Authorization bearer token and stores the owner
// identity in context locals. Requests without a valid token are rejected
// before any handler runs; draft queries are always owner-scoped.
func BearerAuth(secret []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return fiber.ErrUnauthorized
		}

		owner, err := auth.OwnerFromToken(token, secret)
		if err != nil {
			return fiber.ErrUnauthorized
		}

		c.Locals(OwnerLocalKey, owner)
		return c.Next()
	}
}

// OwnerFromCtx extracts the owner previously stored by BearerAuth.
func OwnerFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(OwnerLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
