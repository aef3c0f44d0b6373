// Package engine implements client-side draft persistence: debounced
// autosave, optimistic version-conflict detection, resume-on-mount, and
// lifecycle completion against a remote draft store.
//
// One Engine is constructed per draftable surface and injected where it is
// needed; there is no ambient shared state. That construction rule is what
// makes "one live scheduler per logical draft per browsing context" hold.
package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"draftapi/internal/draftclient"
	"draftapi/internal/model"
)

// Snapshottable is the capability a draftable form must implement: hand
// over its current field values (opaque to the engine) and step cursor.
// The engine calls it on flush paths where the caller cannot pass data in.
type Snapshottable interface {
	CurrentPayload() (data json.RawMessage, step int)
}

// Options configure an Engine for one draftable surface.
type Options struct {
	Module   string
	Route    string
	EntityID string
	// Metadata is a caller-specific side channel saved with every draft;
	// the engine never interprets it.
	Metadata json.RawMessage
	// Debounce overrides the default quiet period when > 0.
	Debounce time.Duration
	// OnConflict receives conflicts found by periodic checking.
	OnConflict func(Conflict)
	Logger     *slog.Logger
}

// Engine wires the scheduler, conflict detector, resume coordinator and
// completion tracker for a single surface.
type Engine struct {
	api  draftclient.API
	form Snapshottable
	opts Options

	scheduler *Scheduler
	detector  *ConflictDetector
	resume    *ResumeCoordinator
	tracker   *CompletionTracker
}

// New constructs an Engine. form must not be nil: the flush and beacon
// paths read the payload from it.
func New(api draftclient.API, form Snapshottable, opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	e := &Engine{
		api:       api,
		form:      form,
		opts:      opts,
		scheduler: NewScheduler(api, opts.Module, opts.Route, opts.EntityID, opts.Debounce, log),
		detector:  NewConflictDetector(api, log),
		resume:    NewResumeCoordinator(api, log),
		tracker:   NewCompletionTracker(api, log),
	}
	e.scheduler.SetMetadata(opts.Metadata)
	e.scheduler.SetOnSaved(e.detector.Observe)
	return e
}

// NotifyChange is the field-edit hook: it snapshots the form and arms the
// debounce. Call it on every change; coalescing is the engine's problem.
func (e *Engine) NotifyChange() {
	data, step := e.form.CurrentPayload()
	e.scheduler.Schedule(data, step)
}

// FlushNow saves the current form state immediately, cancelling any pending
// debounce. Call on blur, on visibilitychange when the tab goes hidden
// (the primary last-chance save) and on unmount.
func (e *Engine) FlushNow(ctx context.Context) error {
	data, step := e.form.CurrentPayload()
	return e.scheduler.FlushNow(ctx, data, step)
}

// SendBeacon fires the best-effort unload transport with the current form
// state. Pure backstop for beforeunload; FlushNow on tab-hide is the
// reliable path.
func (e *Engine) SendBeacon() {
	data, step := e.form.CurrentPayload()
	e.api.SendBeacon(&model.SaveDraftRequest{
		ID:       e.scheduler.DraftID(),
		Module:   e.opts.Module,
		Route:    e.opts.Route,
		EntityID: e.opts.EntityID,
		Title:    DeriveTitle(e.opts.Module, data),
		Data:     data,
		Step:     step,
		Metadata: e.opts.Metadata,
	})
}

// CheckOnMount looks for an existing draft for this surface and, when one
// exists, moves the resume coordinator to prompting.
func (e *Engine) CheckOnMount(ctx context.Context) (*model.Draft, error) {
	return e.resume.CheckOnMount(ctx, e.opts.Module, e.opts.Route, e.opts.EntityID)
}

// LatestOnLogin fetches the most recent draft system-wide for the login
// banner, reusing the same prompting transitions.
func (e *Engine) LatestOnLogin(ctx context.Context) (*model.Draft, error) {
	return e.resume.LatestOnLogin(ctx)
}

// Resume loads the prompted draft, binds the scheduler to it and records
// its version, so editing continues exactly where the user left off.
func (e *Engine) Resume(ctx context.Context) (*model.Draft, error) {
	draft, err := e.resume.Resume(ctx)
	if err != nil {
		return nil, err
	}
	e.scheduler.Adopt(draft)
	e.detector.Observe(draft)
	return draft, nil
}

// Discard deletes the prompted draft for good.
func (e *Engine) Discard(ctx context.Context) error {
	return e.resume.Discard(ctx)
}

// Dismiss closes the prompt leaving the draft untouched.
func (e *Engine) Dismiss() {
	e.resume.Dismiss()
}

// ResumeState returns the coordinator's current state.
func (e *Engine) ResumeState() ResumeState {
	return e.resume.State()
}

// SaveState returns the autosave indicator state.
func (e *Engine) SaveState() SaveState {
	return e.scheduler.State()
}

// DraftID returns the persisted draft's id, "" before the first save.
func (e *Engine) DraftID() string {
	return e.scheduler.DraftID()
}

// ClientVersion returns the last version this client observed.
func (e *Engine) ClientVersion() int64 {
	return e.detector.ClientVersion()
}

// CheckConflict compares the local version against the store once.
func (e *Engine) CheckConflict(ctx context.Context) (*Conflict, error) {
	return e.detector.Check(ctx)
}

// StartPeriodicCheck begins conflict polling for long editing sessions.
// Conflicts go to Options.OnConflict. Returns a stop function.
func (e *Engine) StartPeriodicCheck(ctx context.Context, interval time.Duration) (stop func()) {
	return e.detector.StartPeriodic(ctx, interval, e.opts.OnConflict)
}

// ResolveOverwrite resolves a conflict with the client's in-memory data:
// the form is force-saved, advancing the draft to a new version. The
// unchanged-payload skip does not apply here; the local bytes matching our
// own last save is exactly the case where the server holds someone else's.
func (e *Engine) ResolveOverwrite(ctx context.Context) error {
	data, step := e.form.CurrentPayload()
	return e.scheduler.ForceSave(ctx, data, step)
}

// ResolveReload resolves a conflict by dropping local edits: the server
// copy is reloaded and returned for the caller to re-fill the form.
func (e *Engine) ResolveReload(ctx context.Context) (*model.Draft, error) {
	id := e.scheduler.DraftID()
	if id == "" {
		return nil, draftclient.ErrNotFound
	}
	draft, err := e.api.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	e.scheduler.Adopt(draft)
	e.detector.Observe(draft)
	return draft, nil
}

// OnSubmitSuccess converts this surface's draft after the real record was
// created from it.
func (e *Engine) OnSubmitSuccess(ctx context.Context) error {
	return e.tracker.OnSubmitSuccess(ctx, e.scheduler.DraftID())
}

// OnEntityClosed converts any drafts shadowing the given entity; exposed
// for flows that close a transaction without holding a draft id.
func (e *Engine) OnEntityClosed(ctx context.Context, module, entityID, route string) error {
	return e.tracker.OnEntityClosed(ctx, module, entityID, route)
}

// Close tears the engine down. Pending saves are cancelled; in-flight
// responses are discarded rather than applied to a dead surface.
func (e *Engine) Close() {
	e.scheduler.Close()
}
