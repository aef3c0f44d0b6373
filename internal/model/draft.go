package model

import (
	"encoding/json"
	"time"
)

// DraftStatus is the lifecycle state of a draft.
type DraftStatus string

const (
	// StatusActive is the only non-terminal status. New drafts start here.
	StatusActive DraftStatus = "active"
	// StatusConverted means the draft's data was materialized into a real
	// business record. Terminal.
	StatusConverted DraftStatus = "converted"
	// StatusDiscarded means the user threw the draft away. Terminal.
	StatusDiscarded DraftStatus = "discarded"
)

// Terminal reports whether the status ends the draft's life.
// A terminal draft never transitions back to active.
func (s DraftStatus) Terminal() bool {
	return s == StatusConverted || s == StatusDiscarded
}

// Draft is a persisted, versioned snapshot of in-progress form data.
// This is a pure domain model with no database-specific dependencies or tags.
//
// Data and Metadata are opaque to every layer of this system: they are
// round-tripped byte-for-byte and never inspected, which is why they are
// json.RawMessage and not typed structs.
type Draft struct {
	ID       string `json:"id"`
	Owner    string `json:"owner"`
	Module   string `json:"module"`
	Route    string `json:"route"`
	EntityID string `json:"entity_id,omitempty"`
	Title    string `json:"title"`

	Data     json.RawMessage `json:"data"`
	Step     int             `json:"step"`
	Metadata json.RawMessage `json:"metadata,omitempty"`

	// Version is incremented by the store on every accepted write and is
	// the optimistic-concurrency token compared by version checks.
	Version int64       `json:"version"`
	Status  DraftStatus `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DraftKey identifies the logical slot a draft occupies. At most one active
// draft exists per key at any time. EntityID is empty when the draft is
// creating a new record rather than editing an existing one.
type DraftKey struct {
	Owner    string
	Module   string
	Route    string
	EntityID string
}

// SaveDraftRequest is the wire body for POST /drafts and PUT /drafts/:id.
// An ID present in the body of a POST is honored as an update; the beacon
// transport can only POST, so the create path must accept both shapes.
type SaveDraftRequest struct {
	ID       string          `json:"id,omitempty"`
	Module   string          `json:"module"`
	Route    string          `json:"route"`
	EntityID string          `json:"entity_id,omitempty"`
	Title    string          `json:"title"`
	Data     json.RawMessage `json:"data"`
	Step     int             `json:"step"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// DraftEnvelope wraps a single draft in responses that may carry none.
type DraftEnvelope struct {
	HasDraft bool   `json:"has_draft"`
	Draft    *Draft `json:"draft,omitempty"`
}

// SavedDraft is the response body for create/update.
type SavedDraft struct {
	Draft *Draft `json:"draft"`
}

// VersionCheckResult is the response body for the version-check endpoint.
type VersionCheckResult struct {
	InSync        bool      `json:"in_sync"`
	ServerVersion int64     `json:"server_version"`
	ClientVersion int64     `json:"client_version"`
	LastSavedAt   time.Time `json:"last_saved_at"`
}
