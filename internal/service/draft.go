package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"draftapi/internal/config"
	"draftapi/internal/model"
	"draftapi/internal/repository"
	"draftapi/internal/storage"
)

var (
	ErrIDRequired     = errors.New("id is required")
	ErrKeyRequired    = errors.New("module and route are required")
	ErrEntityRequired = errors.New("entity_id is required")
	ErrNotFound       = errors.New("draft not found")
)

// DraftService defines the use cases of the draft store. It owns the rules
// the repository cannot express: create-or-update resolution, idempotent
// terminal transitions, version comparison, and conversion archival.
type DraftService interface {
	// Save creates a draft when the request carries no id, or updates the
	// existing one in place. A create that finds the logical slot already
	// occupied by an active draft updates that draft instead, so the
	// beacon transport (POST only) converges on the same row.
	Save(ctx context.Context, owner string, req *model.SaveDraftRequest) (*model.Draft, error)

	// Check returns the single active draft for the key, or nil.
	Check(ctx context.Context, owner, module, route, entityID string) (*model.Draft, error)

	// Latest returns the owner's most recent active draft, or nil.
	Latest(ctx context.Context, owner string) (*model.Draft, error)

	// List returns the owner's active drafts, optionally filtered by module.
	List(ctx context.Context, owner, module string) ([]model.Draft, error)

	// Get returns a draft by id for resuming.
	Get(ctx context.Context, owner, id string) (*model.Draft, error)

	// Delete hard-removes a draft. Deleting a missing draft succeeds.
	Delete(ctx context.Context, owner, id string) error

	// Convert marks a draft converted and archives its final payload.
	// Converting an already-converted or missing draft is a no-op.
	Convert(ctx context.Context, owner, id string) error

	// CompleteByEntity converts all active drafts shadowing the entity.
	CompleteByEntity(ctx context.Context, owner, module, entityID, route string) (int64, error)

	// VersionCheck compares a client-held version to the stored one.
	VersionCheck(ctx context.Context, owner, id string, clientVersion int64) (*model.VersionCheckResult, error)

	// PurgeExpired removes drafts past their retention windows.
	PurgeExpired(ctx context.Context, ret config.RetentionConfig) (int64, error)
}

// draftService is a concrete implementation of DraftService.
type draftService struct {
	repo    repository.DraftRepository
	archive storage.Archiver
	log     *slog.Logger
}

// NewDraftService constructs a new DraftService. archive may be nil when no
// object store is configured; conversion then skips archival.
func NewDraftService(repo repository.DraftRepository, archive storage.Archiver, log *slog.Logger) DraftService {
	if log == nil {
		log = slog.Default()
	}
	return &draftService{repo: repo, archive: archive, log: log}
}

func (s *draftService) Save(ctx context.Context, owner string, req *model.SaveDraftRequest) (*model.Draft, error) {
	if req.Module == "" || req.Route == "" {
		return nil, ErrKeyRequired
	}

	draft := &model.Draft{
		ID:       req.ID,
		Owner:    owner,
		Module:   req.Module,
		Route:    req.Route,
		EntityID: req.EntityID,
		Title:    req.Title,
		Data:     req.Data,
		Step:     req.Step,
		Metadata: req.Metadata,
	}
	if len(draft.Data) == 0 {
		draft.Data = []byte(`{}`)
	}

	if draft.ID == "" {
		// The slot may already hold an active draft (another tab created
		// it, or a beacon landed first). Update it rather than tripping
		// the unique index.
		existing, err := s.repo.FindActiveByKey(ctx, model.DraftKey{
			Owner:    owner,
			Module:   req.Module,
			Route:    req.Route,
			EntityID: req.EntityID,
		})
		switch {
		case err == nil:
			draft.ID = existing.ID
			return s.repo.Update(ctx, draft)
		case errors.Is(err, sql.ErrNoRows):
			draft.ID = uuid.New().String()
			return s.repo.Create(ctx, draft)
		default:
			return nil, err
		}
	}

	stored, err := s.repo.Update(ctx, draft)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return stored, nil
}

func (s *draftService) Check(ctx context.Context, owner, module, route, entityID string) (*model.Draft, error) {
	if module == "" || route == "" {
		return nil, ErrKeyRequired
	}
	draft, err := s.repo.FindActiveByKey(ctx, model.DraftKey{
		Owner:    owner,
		Module:   module,
		Route:    route,
		EntityID: entityID,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return draft, nil
}

func (s *draftService) Latest(ctx context.Context, owner string) (*model.Draft, error) {
	draft, err := s.repo.FindLatestActive(ctx, owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return draft, nil
}

func (s *draftService) List(ctx context.Context, owner, module string) ([]model.Draft, error) {
	return s.repo.ListActive(ctx, owner, module)
}

func (s *draftService) Get(ctx context.Context, owner, id string) (*model.Draft, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	draft, err := s.repo.FindByID(ctx, owner, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return draft, nil
}

func (s *draftService) Delete(ctx context.Context, owner, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	return s.repo.Delete(ctx, owner, id)
}

func (s *draftService) Convert(ctx context.Context, owner, id string) error {
	if id == "" {
		return ErrIDRequired
	}

	draft, err := s.repo.FindByID(ctx, owner, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Already gone; another tab converted or deleted it first.
			return nil
		}
		return err
	}
	if draft.Status.Terminal() {
		return nil
	}

	// Archive the final snapshot before flipping status. Archival is
	// best-effort: a missing audit copy must not block the conversion.
	if s.archive != nil && len(draft.Data) > 0 {
		key := fmt.Sprintf("drafts/%s/%s.json", owner, id)
		if _, err := s.archive.Put(ctx, key, bytes.NewReader(draft.Data), int64(len(draft.Data)), "application/json"); err != nil {
			s.log.WarnContext(ctx, "draft archive failed",
				"draft_id", id, "key", key, "error", err)
		}
	}

	_, err = s.repo.MarkConverted(ctx, owner, id)
	return err
}

func (s *draftService) CompleteByEntity(ctx context.Context, owner, module, entityID, route string) (int64, error) {
	if module == "" {
		return 0, ErrKeyRequired
	}
	if entityID == "" {
		return 0, ErrEntityRequired
	}
	return s.repo.CompleteByEntity(ctx, owner, module, entityID, route)
}

func (s *draftService) VersionCheck(ctx context.Context, owner, id string, clientVersion int64) (*model.VersionCheckResult, error) {
	draft, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	return &model.VersionCheckResult{
		InSync:        draft.Version == clientVersion,
		ServerVersion: draft.Version,
		ClientVersion: clientVersion,
		LastSavedAt:   draft.UpdatedAt,
	}, nil
}

func (s *draftService) PurgeExpired(ctx context.Context, ret config.RetentionConfig) (int64, error) {
	now := time.Now().UTC()
	return s.repo.PurgeExpired(ctx, now.Add(-ret.TerminalTTL), now.Add(-ret.ActiveTTL))
}
