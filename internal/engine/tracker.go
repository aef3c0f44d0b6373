package engine

import (
	"context"
	"log/slog"

	"draftapi/internal/draftclient"
)

// CompletionTracker closes a draft's life once the real business object
// exists. Callers invoke exactly one of the two methods after a successful
// create/submit; on submit failure nothing is called and the draft stays
// active so the user's data is not lost. An orphaned active draft is
// acceptable; it simply resurfaces on the next resume check.
type CompletionTracker struct {
	api draftclient.API
	log *slog.Logger
}

// NewCompletionTracker creates a tracker over the given client.
func NewCompletionTracker(api draftclient.API, log *slog.Logger) *CompletionTracker {
	if log == nil {
		log = slog.Default()
	}
	return &CompletionTracker{api: api, log: log}
}

// OnSubmitSuccess marks the draft converted after its data was
// materialized into a real record. Idempotent end to end: converting an
// already-converted or deleted draft succeeds.
func (t *CompletionTracker) OnSubmitSuccess(ctx context.Context, draftID string) error {
	if draftID == "" {
		return nil
	}
	if err := t.api.Convert(ctx, draftID); err != nil {
		t.log.Warn("draft convert failed", "draft_id", draftID, "error", err)
		return err
	}
	return nil
}

// OnEntityClosed converts whatever active drafts shadow the entity, used
// when a transaction completes through a path that never held a draft id.
func (t *CompletionTracker) OnEntityClosed(ctx context.Context, module, entityID, route string) error {
	if err := t.api.CompleteByEntity(ctx, module, entityID, route); err != nil {
		t.log.Warn("complete-by-entity failed",
			"module", module, "entity_id", entityID, "error", err)
		return err
	}
	return nil
}
