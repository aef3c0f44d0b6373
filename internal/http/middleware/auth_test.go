package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"draftapi/internal/auth"
)

func TestBearerAuth(t *testing.T) {
	secret := []byte("test-secret")

	app := fiber.New()
	app.Use(BearerAuth(secret))
	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendString(OwnerFromCtx(c))
	})

	t.Run("valid token stores owner in locals", func(t *testing.T) {
		token, err := auth.GenerateToken("user-1", secret, time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("malformed header is rejected", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Basic abc123")
		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("token signed with another secret is rejected", func(t *testing.T) {
		token, err := auth.GenerateToken("user-1", []byte("other"), time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}
