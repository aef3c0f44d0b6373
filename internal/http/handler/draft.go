package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"draftapi/internal/http/middleware"
	"draftapi/internal/model"
	"draftapi/internal/service"
)

// Handlers are thin: parse, delegate to the service, translate errors.
// Each handler is a named constructor so it can be mounted in isolation
// under a test app.

// CheckDraft returns the single active draft for (module, route, entity_id).
func CheckDraft(svc service.DraftService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner := middleware.OwnerFromCtx(c)
		draft, err := svc.Check(c.UserContext(), owner, c.Query("module"), c.Query("route"), c.Query("entity_id"))
		if err != nil {
			if errors.Is(err, service.ErrKeyRequired) {
				return writeError(c, fiber.StatusBadRequest, "KEY_REQUIRED", "module and route are required")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(model.DraftEnvelope{HasDraft: draft != nil, Draft: draft})
	}
}

// LatestDraft returns the owner's most recent active draft across all
// modules; backs the post-login "continue where you left off" banner.
func LatestDraft(svc service.DraftService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner := middleware.OwnerFromCtx(c)
		draft, err := svc.Latest(c.UserContext(), owner)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(model.DraftEnvelope{HasDraft: draft != nil, Draft: draft})
	}
}

// ListDrafts returns active drafts, optionally filtered by module.
func ListDrafts(svc service.DraftService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner := middleware.OwnerFromCtx(c)
		drafts, err := svc.List(c.UserContext(), owner, c.Query("module"))
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(drafts)
	}
}

// SaveDraft handles POST /drafts: create, or update when the body carries
// an id (the beacon transport can only POST).
func SaveDraft(svc service.DraftService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req model.SaveDraftRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "malformed request body")
		}
		return saveDraft(c, svc, &req, fiber.StatusCreated)
	}
}

// UpdateDraft handles PUT /drafts/:id.
func UpdateDraft(svc service.DraftService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var req model.SaveDraftRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "malformed request body")
		}
		req.ID = id
		return saveDraft(c, svc, &req, fiber.StatusOK)
	}
}

func saveDraft(c *fiber.Ctx, svc service.DraftService, req *model.SaveDraftRequest, okStatus int) error {
	owner := middleware.OwnerFromCtx(c)
	draft, err := svc.Save(c.UserContext(), owner, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrKeyRequired):
			return writeError(c, fiber.StatusBadRequest, "KEY_REQUIRED", "module and route are required")
		case errors.Is(err, service.ErrNotFound):
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "draft not found")
		default:
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
	}
	return c.Status(okStatus).JSON(model.SavedDraft{Draft: draft})
}

// GetDraft fetches a full draft for resuming.
func GetDraft(svc service.DraftService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		owner := middleware.OwnerFromCtx(c)
		draft, err := svc.Get(c.UserContext(), owner, id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "draft not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(draft)
	}
}

// DeleteDraft hard-removes a draft. Deleting a missing draft succeeds;
// terminal-state races across tabs are expected.
func DeleteDraft(svc service.DraftService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		owner := middleware.OwnerFromCtx(c)
		if err := svc.Delete(c.UserContext(), owner, id); err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ConvertDraft marks a draft converted. Idempotent.
func ConvertDraft(svc service.DraftService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		owner := middleware.OwnerFromCtx(c)
		if err := svc.Convert(c.UserContext(), owner, id); err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(fiber.Map{"status": "converted"})
	}
}

// CompleteByEntity converts all active drafts shadowing a business record,
// without needing their ids.
func CompleteByEntity(svc service.DraftService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner := middleware.OwnerFromCtx(c)
		completed, err := svc.CompleteByEntity(c.UserContext(), owner,
			c.Query("module"), c.Query("entity_id"), c.Query("route"))
		if err != nil {
			switch {
			case errors.Is(err, service.ErrKeyRequired):
				return writeError(c, fiber.StatusBadRequest, "KEY_REQUIRED", "module is required")
			case errors.Is(err, service.ErrEntityRequired):
				return writeError(c, fiber.StatusBadRequest, "ENTITY_REQUIRED", "entity_id is required")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}
		return c.JSON(fiber.Map{"status": "completed", "count": completed})
	}
}

// VersionCheck compares a client-held version against the stored one.
// Read-only; mutates nothing.
func VersionCheck(svc service.DraftService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		clientVersion, err := strconv.ParseInt(c.Query("client_version", "0"), 10, 64)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_VERSION", "invalid client_version")
		}
		owner := middleware.OwnerFromCtx(c)
		res, err := svc.VersionCheck(c.UserContext(), owner, id, clientVersion)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "draft not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}
