package repository

import (
	"context"
	"time"

	"draftapi/internal/model"
)

// DraftRepository defines data access for drafts using SQL queries only.
// No business logic here, strictly persistence operations. Every operation
// is scoped to an owner; the repository never returns rows across owners.
type DraftRepository interface {
	// Create inserts a new draft row at version 1 with status active.
	// Returns the stored draft including DB-assigned id and timestamps.
	Create(ctx context.Context, draft *model.Draft) (*model.Draft, error)

	// Update overwrites the mutable fields of an active draft and increments
	// its version in the same statement. Returns sql.ErrNoRows if the draft
	// does not exist, belongs to another owner, or is terminal.
	Update(ctx context.Context, draft *model.Draft) (*model.Draft, error)

	// FindByID returns a draft by id for the given owner, any status.
	FindByID(ctx context.Context, owner, id string) (*model.Draft, error)

	// FindActiveByKey returns the single active draft occupying the key,
	// or sql.ErrNoRows if the slot is empty.
	FindActiveByKey(ctx context.Context, key model.DraftKey) (*model.Draft, error)

	// FindLatestActive returns the owner's most recently updated active
	// draft across all modules, or sql.ErrNoRows if there are none.
	FindLatestActive(ctx context.Context, owner string) (*model.Draft, error)

	// ListActive returns the owner's active drafts, newest first,
	// optionally filtered by module ("" means all).
	ListActive(ctx context.Context, owner, module string) ([]model.Draft, error)

	// Delete hard-removes a draft. Returns nil if the row was deleted or
	// did not exist.
	Delete(ctx context.Context, owner, id string) error

	// MarkConverted sets status=converted on an active draft. Returns the
	// number of rows changed; 0 is not an error (already terminal or gone).
	MarkConverted(ctx context.Context, owner, id string) (int64, error)

	// CompleteByEntity marks all active drafts matching (owner, module,
	// entity_id[, route]) as converted and returns how many changed.
	CompleteByEntity(ctx context.Context, owner, module, entityID, route string) (int64, error)

	// PurgeExpired removes terminal drafts older than terminalBefore and
	// active drafts untouched since activeBefore. Returns rows removed.
	PurgeExpired(ctx context.Context, terminalBefore, activeBefore time.Time) (int64, error)
}
