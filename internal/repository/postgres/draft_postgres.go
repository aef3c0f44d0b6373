package postgres

import (
	"context"
	"database/sql"
	"time"

	"draftapi/internal/model"
	"draftapi/internal/repository"
)

// DraftPostgres is a PostgreSQL implementation of repository.DraftRepository.
// It uses database/sql with parameterized queries and contains no business
// logic. Version increments happen inside the UPDATE statement itself, so
// strict monotonicity holds even with racing writers.
type DraftPostgres struct {
	db *sql.DB
}

// NewDraftPostgres creates a new DraftPostgres repository.
func NewDraftPostgres(db *sql.DB) *DraftPostgres {
	return &DraftPostgres{db: db}
}

var _ repository.DraftRepository = (*DraftPostgres)(nil)

const draftColumns = `id, owner, module, route, entity_id, title, data, step, metadata, version, status, created_at, updated_at`

func scanDraft(row interface{ Scan(...any) error }) (*model.Draft, error) {
	var d model.Draft
	var entityID sql.NullString
	var metadata []byte
	if err := row.Scan(
		&d.ID,
		&d.Owner,
		&d.Module,
		&d.Route,
		&entityID,
		&d.Title,
		&d.Data,
		&d.Step,
		&metadata,
		&d.Version,
		&d.Status,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	d.EntityID = entityID.String
	d.Metadata = metadata
	return &d, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Create inserts a new draft row and returns the stored record.
func (r *DraftPostgres) Create(ctx context.Context, draft *model.Draft) (*model.Draft, error) {
	const q = `
		INSERT INTO drafts (id, owner, module, route, entity_id, title, data, step, metadata, version, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1, 'active', $10, $10)
		RETURNING ` + draftColumns
	now := time.Now().UTC()
	row := r.db.QueryRowContext(ctx, q,
		draft.ID,
		draft.Owner,
		draft.Module,
		draft.Route,
		nullable(draft.EntityID),
		draft.Title,
		[]byte(draft.Data),
		draft.Step,
		[]byte(draft.Metadata),
		now,
	)
	return scanDraft(row)
}

// Update overwrites the mutable fields of an active draft, bumping version
// and updated_at in the same statement. Terminal drafts never match the
// WHERE clause, which is what keeps them terminal.
func (r *DraftPostgres) Update(ctx context.Context, draft *model.Draft) (*model.Draft, error) {
	const q = `
		UPDATE drafts
		SET title = $3, data = $4, step = $5, metadata = $6,
		    version = version + 1, updated_at = $7
		WHERE id = $1 AND owner = $2 AND status = 'active'
		RETURNING ` + draftColumns
	row := r.db.QueryRowContext(ctx, q,
		draft.ID,
		draft.Owner,
		draft.Title,
		[]byte(draft.Data),
		draft.Step,
		[]byte(draft.Metadata),
		time.Now().UTC(),
	)
	return scanDraft(row)
}

// FindByID fetches a single draft by its ID regardless of status.
func (r *DraftPostgres) FindByID(ctx context.Context, owner, id string) (*model.Draft, error) {
	const q = `
		SELECT ` + draftColumns + `
		FROM drafts
		WHERE id = $1 AND owner = $2
	`
	return scanDraft(r.db.QueryRowContext(ctx, q, id, owner))
}

// FindActiveByKey fetches the single active draft for a logical slot.
func (r *DraftPostgres) FindActiveByKey(ctx context.Context, key model.DraftKey) (*model.Draft, error) {
	const q = `
		SELECT ` + draftColumns + `
		FROM drafts
		WHERE owner = $1 AND module = $2 AND route = $3
		  AND COALESCE(entity_id, '') = $4 AND status = 'active'
	`
	return scanDraft(r.db.QueryRowContext(ctx, q, key.Owner, key.Module, key.Route, key.EntityID))
}

// FindLatestActive fetches the owner's most recently updated active draft.
func (r *DraftPostgres) FindLatestActive(ctx context.Context, owner string) (*model.Draft, error) {
	const q = `
		SELECT ` + draftColumns + `
		FROM drafts
		WHERE owner = $1 AND status = 'active'
		ORDER BY updated_at DESC, id DESC
		LIMIT 1
	`
	return scanDraft(r.db.QueryRowContext(ctx, q, owner))
}

// ListActive returns active drafts newest first, optionally by module.
func (r *DraftPostgres) ListActive(ctx context.Context, owner, module string) ([]model.Draft, error) {
	const q = `
		SELECT ` + draftColumns + `
		FROM drafts
		WHERE owner = $1 AND status = 'active' AND ($2 = '' OR module = $2)
		ORDER BY updated_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, q, owner, module)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Draft, 0)
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Delete removes a draft by ID. It does not return an error if the row
// does not exist; terminal-state races across tabs make that routine.
func (r *DraftPostgres) Delete(ctx context.Context, owner, id string) error {
	const q = `DELETE FROM drafts WHERE id = $1 AND owner = $2`
	res, err := r.db.ExecContext(ctx, q, id, owner)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}

// MarkConverted flips an active draft to converted. Zero rows affected is
// a valid outcome (already converted, discarded, or deleted).
func (r *DraftPostgres) MarkConverted(ctx context.Context, owner, id string) (int64, error) {
	const q = `
		UPDATE drafts
		SET status = 'converted', version = version + 1, updated_at = $3
		WHERE id = $1 AND owner = $2 AND status = 'active'
	`
	res, err := r.db.ExecContext(ctx, q, id, owner, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CompleteByEntity converts all active drafts shadowing a business record.
func (r *DraftPostgres) CompleteByEntity(ctx context.Context, owner, module, entityID, route string) (int64, error) {
	const q = `
		UPDATE drafts
		SET status = 'converted', version = version + 1, updated_at = $5
		WHERE owner = $1 AND module = $2 AND entity_id = $3
		  AND ($4 = '' OR route = $4) AND status = 'active'
	`
	res, err := r.db.ExecContext(ctx, q, owner, module, entityID, route, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PurgeExpired deletes terminal drafts past retention and abandoned active
// drafts that have not been touched since activeBefore.
func (r *DraftPostgres) PurgeExpired(ctx context.Context, terminalBefore, activeBefore time.Time) (int64, error) {
	const q = `
		DELETE FROM drafts
		WHERE (status IN ('converted', 'discarded') AND updated_at < $1)
		   OR (status = 'active' AND updated_at < $2)
	`
	res, err := r.db.ExecContext(ctx, q, terminalBefore, activeBefore)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
