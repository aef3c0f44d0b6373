package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"

	"draftapi/internal/service"
)

// HealthCheck reports readiness: checks DB connectivity only.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a plain liveness probe with no dependencies.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app. The draft
// routes go behind the supplied auth middleware; probes stay open.
//
// Static /drafts segments (check, latest, version-check, complete-by-entity)
// must be registered before /drafts/:id or Fiber would swallow them as ids.
func RegisterRoutes(app *fiber.App, db *sql.DB, draftSvc service.DraftService, authn fiber.Handler) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	drafts := app.Group("/drafts", authn)
	drafts.Get("/check", CheckDraft(draftSvc))
	drafts.Get("/latest", LatestDraft(draftSvc))
	drafts.Get("/version-check/:id", VersionCheck(draftSvc))
	drafts.Post("/complete-by-entity", CompleteByEntity(draftSvc))

	drafts.Get("/", ListDrafts(draftSvc))
	drafts.Post("/", SaveDraft(draftSvc))
	drafts.Get("/:id", GetDraft(draftSvc))
	drafts.Put("/:id", UpdateDraft(draftSvc))
	drafts.Delete("/:id", DeleteDraft(draftSvc))
	drafts.Post("/:id/convert", ConvertDraft(draftSvc))
}
