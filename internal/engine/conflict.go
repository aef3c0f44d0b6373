package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"draftapi/internal/draftclient"
	"draftapi/internal/model"
)

// Conflict describes a draft that another session has advanced past what
// this client last saw. It is a first-class signal, not an error: the
// payload is opaque, so the engine never merges; the human picks between
// overwriting and reloading.
type Conflict struct {
	DraftID       string
	ServerVersion int64
	ClientVersion int64
	LastSavedAt   time.Time
}

// ConflictDetector tracks the version returned by the most recent accepted
// save or load and compares it against the store on demand. The same check
// runs at resume time and, optionally, periodically during long editing
// sessions (one policy, applied uniformly).
type ConflictDetector struct {
	api draftclient.API
	log *slog.Logger

	mu            sync.Mutex
	draftID       string
	clientVersion int64
}

// NewConflictDetector creates a detector with no version observed yet.
func NewConflictDetector(api draftclient.API, log *slog.Logger) *ConflictDetector {
	if log == nil {
		log = slog.Default()
	}
	return &ConflictDetector{api: api, log: log}
}

// Observe records the version carried by an accepted save or a fresh load.
func (d *ConflictDetector) Observe(draft *model.Draft) {
	d.mu.Lock()
	d.draftID = draft.ID
	d.clientVersion = draft.Version
	d.mu.Unlock()
}

// ClientVersion returns the last observed version, 0 before any save/load.
func (d *ConflictDetector) ClientVersion() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clientVersion
}

// Check asks the store whether the local version is still current. Returns
// nil when in sync, when no draft has been observed yet, or when the draft
// is already gone (a terminal race, not a conflict).
func (d *ConflictDetector) Check(ctx context.Context) (*Conflict, error) {
	d.mu.Lock()
	id, version := d.draftID, d.clientVersion
	d.mu.Unlock()
	if id == "" {
		return nil, nil
	}

	res, err := d.api.VersionCheck(ctx, id, version)
	if err != nil {
		if errors.Is(err, draftclient.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	// A server version behind ours cannot happen with monotonic versions;
	// only ahead-of-client counts as a conflict.
	if res.InSync || res.ServerVersion <= version {
		return nil, nil
	}
	return &Conflict{
		DraftID:       id,
		ServerVersion: res.ServerVersion,
		ClientVersion: version,
		LastSavedAt:   res.LastSavedAt,
	}, nil
}

// StartPeriodic checks at the given interval until the returned stop
// function is called or ctx is done. Detected conflicts go to onConflict;
// check errors are logged and the loop keeps going.
func (d *ConflictDetector) StartPeriodic(ctx context.Context, interval time.Duration, onConflict func(Conflict)) (stop func()) {
	done := make(chan struct{})
	var once sync.Once
	stop = func() { once.Do(func() { close(done) }) }

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				conflict, err := d.Check(ctx)
				if err != nil {
					d.log.Warn("periodic version check failed", "error", err)
					continue
				}
				if conflict != nil && onConflict != nil {
					onConflict(*conflict)
				}
			}
		}
	}()
	return stop
}
