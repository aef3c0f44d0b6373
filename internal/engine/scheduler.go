package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"draftapi/internal/draftclient"
	"draftapi/internal/model"
)

// SaveState is the coarse autosave status a UI indicator can show.
type SaveState int

const (
	SaveIdle SaveState = iota
	SaveInFlight
	SaveOK
	SaveFailed
)

func (s SaveState) String() string {
	switch s {
	case SaveInFlight:
		return "saving"
	case SaveOK:
		return "saved"
	case SaveFailed:
		return "error"
	default:
		return "idle"
	}
}

// DefaultDebounce is the quiet period before a scheduled save fires.
const DefaultDebounce = 1500 * time.Millisecond

// saveTimeout bounds a debounced save that fires with no caller context.
const saveTimeout = 10 * time.Second

// Scheduler debounces rapid field edits into single save requests against
// one logical draft. It guarantees at most one in-flight save at a time:
// the pending timer is cancelled before any immediate save, so a stale
// debounced payload can never land after a newer flush and clobber it.
//
// A scheduled save failing is non-fatal and logged only; the next edit
// naturally retries with fresher data. FlushNow returns its error because
// its callers (blur, tab-hide, teardown) may want to surface it.
type Scheduler struct {
	api draftclient.API
	log *slog.Logger

	module   string
	route    string
	entityID string
	metadata json.RawMessage

	task *CoalescingTask

	mu        sync.Mutex
	draftID   string
	pending   json.RawMessage
	step      int
	lastSaved []byte
	state     SaveState
	closed    bool

	// saveMu serializes save round trips for this draft.
	saveMu sync.Mutex

	// onSaved is invoked with every accepted save so the conflict detector
	// can track the server version.
	onSaved func(*model.Draft)
}

// NewScheduler creates a scheduler for the logical draft identified by
// (module, route, entityID). debounce <= 0 selects DefaultDebounce.
func NewScheduler(api draftclient.API, module, route, entityID string, debounce time.Duration, log *slog.Logger) *Scheduler {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = slog.Default()
	}
	s := &Scheduler{
		api:      api,
		log:      log,
		module:   module,
		route:    route,
		entityID: entityID,
	}
	s.task = NewCoalescingTask(debounce, s.fireScheduled)
	return s
}

// SetMetadata attaches the caller's opaque side-channel to every save.
func (s *Scheduler) SetMetadata(md json.RawMessage) {
	s.mu.Lock()
	s.metadata = md
	s.mu.Unlock()
}

// SetOnSaved registers the accepted-save hook. Must be set before use.
func (s *Scheduler) SetOnSaved(fn func(*model.Draft)) {
	s.mu.Lock()
	s.onSaved = fn
	s.mu.Unlock()
}

// Schedule arms the debounce timer with the given payload, superseding any
// pending one (last-write-wins; intermediate keystrokes are never
// individually persisted). A payload byte-identical to the last successful
// save is skipped entirely: no timer, no network call, no version bump.
func (s *Scheduler) Schedule(data json.RawMessage, step int) {
	s.mu.Lock()
	if s.closed || (bytes.Equal(data, s.lastSaved) && step == s.step) {
		s.mu.Unlock()
		return
	}
	s.pending = data
	s.step = step
	s.mu.Unlock()

	s.task.Arm()
}

// FlushNow cancels any pending timer and saves the payload immediately.
// Used for blur, tab-hide and component teardown.
func (s *Scheduler) FlushNow(ctx context.Context, data json.RawMessage, step int) error {
	s.task.Cancel()

	s.mu.Lock()
	s.pending = data
	s.step = step
	s.mu.Unlock()

	return s.save(ctx)
}

// ForceSave saves the payload even when it is byte-identical to the last
// accepted save, advancing the draft to a new version. This is the
// overwrite half of conflict resolution: another session changed the
// stored draft, so matching our own baseline says nothing about the
// server's copy.
func (s *Scheduler) ForceSave(ctx context.Context, data json.RawMessage, step int) error {
	s.task.Cancel()

	s.mu.Lock()
	s.pending = data
	s.step = step
	s.lastSaved = nil
	s.mu.Unlock()

	return s.save(ctx)
}

// DraftID returns the id assigned on first save, or "" before it.
func (s *Scheduler) DraftID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draftID
}

// State returns the current autosave status.
func (s *Scheduler) State() SaveState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Adopt binds the scheduler to an already-persisted draft, typically right
// after a resume, so the next identical payload is recognized and skipped.
func (s *Scheduler) Adopt(draft *model.Draft) {
	s.mu.Lock()
	s.draftID = draft.ID
	s.lastSaved = append([]byte(nil), draft.Data...)
	s.step = draft.Step
	s.mu.Unlock()
}

// Close cancels any pending save and detaches the scheduler. A save already
// in flight completes on the wire, but its response is discarded.
func (s *Scheduler) Close() {
	s.task.Cancel()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// fireScheduled runs in the timer goroutine; failures are logged only.
func (s *Scheduler) fireScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := s.save(ctx); err != nil {
		s.log.Warn("scheduled autosave failed",
			"module", s.module, "route", s.route, "error", err)
	}
}

func (s *Scheduler) save(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	data := s.pending
	if data == nil || bytes.Equal(data, s.lastSaved) {
		s.mu.Unlock()
		return nil
	}
	req := &model.SaveDraftRequest{
		ID:       s.draftID,
		Module:   s.module,
		Route:    s.route,
		EntityID: s.entityID,
		Title:    DeriveTitle(s.module, data),
		Data:     data,
		Step:     s.step,
		Metadata: s.metadata,
	}
	s.state = SaveInFlight
	onSaved := s.onSaved
	s.mu.Unlock()

	draft, err := s.api.Save(ctx, req)

	s.mu.Lock()
	if s.closed {
		// Unmounted while the request was in flight; do not touch state.
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		s.state = SaveFailed
		s.mu.Unlock()
		return err
	}
	s.draftID = draft.ID
	s.lastSaved = append([]byte(nil), data...)
	s.state = SaveOK
	s.mu.Unlock()

	if onSaved != nil {
		onSaved(draft)
	}
	return nil
}
