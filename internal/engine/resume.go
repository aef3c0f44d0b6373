package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"draftapi/internal/draftclient"
	"draftapi/internal/model"
)

// ResumeState is the coordinator's position in the resume flow.
type ResumeState int

const (
	ResumeIdle ResumeState = iota
	ResumeChecking
	ResumePrompting
	ResumeResumed
	ResumeDiscarded
)

func (s ResumeState) String() string {
	switch s {
	case ResumeChecking:
		return "checking"
	case ResumePrompting:
		return "prompting"
	case ResumeResumed:
		return "resumed"
	case ResumeDiscarded:
		return "discarded"
	default:
		return "idle"
	}
}

// ErrNotPrompting is returned when Resume/Discard/Dismiss is called while
// no draft is being offered to the user.
var ErrNotPrompting = errors.New("no draft is being prompted")

// ResumeCoordinator drives the resume-or-discard decision for one draftable
// surface. On mount it checks for an existing draft for the surface's key;
// a login-banner variant checks for the most recent draft system-wide.
//
// idle → checking → prompting (draft found) | idle (none)
// prompting → resumed | discarded | idle (cancel: draft left untouched)
//
// Any failure falls back to idle: a broken resume path must never block
// the user from starting with a blank form.
type ResumeCoordinator struct {
	api draftclient.API
	log *slog.Logger

	mu    sync.Mutex
	state ResumeState
	found *model.Draft
}

// NewResumeCoordinator creates a coordinator in the idle state.
func NewResumeCoordinator(api draftclient.API, log *slog.Logger) *ResumeCoordinator {
	if log == nil {
		log = slog.Default()
	}
	return &ResumeCoordinator{api: api, log: log}
}

// State returns the coordinator's current state.
func (r *ResumeCoordinator) State() ResumeState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Found returns the draft being offered while prompting, else nil. It is a
// summary from the check call; the full payload arrives on Resume.
func (r *ResumeCoordinator) Found() *model.Draft {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.found
}

// CheckOnMount looks for an active draft matching the surface's key and
// moves to prompting when one exists. The returned draft is nil when the
// slot is empty (state goes back to idle, blank form).
func (r *ResumeCoordinator) CheckOnMount(ctx context.Context, module, route, entityID string) (*model.Draft, error) {
	return r.check(func() (*model.Draft, error) {
		return r.api.Check(ctx, module, route, entityID)
	})
}

// LatestOnLogin is the system-wide banner variant: it fetches the single
// most recent active draft across all modules.
func (r *ResumeCoordinator) LatestOnLogin(ctx context.Context) (*model.Draft, error) {
	return r.check(func() (*model.Draft, error) {
		return r.api.Latest(ctx)
	})
}

func (r *ResumeCoordinator) check(fetch func() (*model.Draft, error)) (*model.Draft, error) {
	r.mu.Lock()
	r.state = ResumeChecking
	r.mu.Unlock()

	draft, err := fetch()

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.state = ResumeIdle
		r.found = nil
		return nil, err
	}
	if draft == nil {
		r.state = ResumeIdle
		r.found = nil
		return nil, nil
	}
	r.state = ResumePrompting
	r.found = draft
	return draft, nil
}

// Resume is the user picking "Resume": the full draft is loaded so the form
// can be pre-filled and navigation can jump to the draft's route and step.
// A failed load falls back to idle so the surface shows a blank form.
func (r *ResumeCoordinator) Resume(ctx context.Context) (*model.Draft, error) {
	r.mu.Lock()
	if r.state != ResumePrompting || r.found == nil {
		r.mu.Unlock()
		return nil, ErrNotPrompting
	}
	id := r.found.ID
	r.mu.Unlock()

	draft, err := r.api.Load(ctx, id)
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.log.Warn("resume load failed, starting blank", "draft_id", id, "error", err)
		r.state = ResumeIdle
		r.found = nil
		return nil, err
	}
	r.state = ResumeResumed
	r.found = draft
	return draft, nil
}

// Discard is the user declining the draft: it is deleted for good.
func (r *ResumeCoordinator) Discard(ctx context.Context) error {
	r.mu.Lock()
	if r.state != ResumePrompting || r.found == nil {
		r.mu.Unlock()
		return ErrNotPrompting
	}
	id := r.found.ID
	r.mu.Unlock()

	err := r.api.Delete(ctx, id)
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		return err
	}
	r.state = ResumeDiscarded
	r.found = nil
	return nil
}

// Dismiss closes the prompt without touching the draft; it will resurface
// on the next visit.
func (r *ResumeCoordinator) Dismiss() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == ResumePrompting {
		r.state = ResumeIdle
		r.found = nil
	}
}
