package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"draftapi/internal/model"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

var draftCols = []string{
	"id", "owner", "module", "route", "entity_id", "title",
	"data", "step", "metadata", "version", "status", "created_at", "updated_at",
}

func draftRow(id string, version int64, status string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(draftCols).AddRow(
		id, "u1", "leads", "/leads", nil, "Acme Corp",
		[]byte(`{"name":"Acme Corp"}`), 0, []byte(`{}`), version, status, now, now,
	)
}

func TestDraftPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDraftPostgres(db)
	ctx := context.Background()

	draft := &model.Draft{
		ID:     "d1",
		Owner:  "u1",
		Module: "leads",
		Route:  "/leads",
		Title:  "Acme Corp",
		Data:   []byte(`{"name":"Acme Corp"}`),
	}

	mock.ExpectQuery("INSERT INTO drafts").
		WithArgs(draft.ID, draft.Owner, draft.Module, draft.Route, sql.NullString{}, draft.Title,
			[]byte(draft.Data), draft.Step, []byte(nil), sqlmock.AnyArg()).
		WillReturnRows(draftRow("d1", 1, "active"))

	result, err := repo.Create(ctx, draft)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, "d1", result.ID)
	assert.Equal(t, int64(1), result.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDraftPostgres_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDraftPostgres(db)
	ctx := context.Background()

	t.Run("bumps version in the statement", func(t *testing.T) {
		mock.ExpectQuery("version = version \\+ 1, updated_at").
			WithArgs("d1", "u1", "Acme Corp", []byte(`{"name":"Acme Corp"}`), 2, []byte(`{}`), sqlmock.AnyArg()).
			WillReturnRows(draftRow("d1", 4, "active"))

		result, err := repo.Update(ctx, &model.Draft{
			ID: "d1", Owner: "u1", Title: "Acme Corp",
			Data: []byte(`{"name":"Acme Corp"}`), Step: 2, Metadata: []byte(`{}`),
		})

		assert.NoError(t, err)
		assert.Equal(t, int64(4), result.Version)
	})

	t.Run("terminal draft matches no row", func(t *testing.T) {
		mock.ExpectQuery("version = version \\+ 1, updated_at").
			WithArgs("gone", "u1", "", []byte(nil), 0, []byte(nil), sqlmock.AnyArg()).
			WillReturnError(sql.ErrNoRows)

		result, err := repo.Update(ctx, &model.Draft{ID: "gone", Owner: "u1"})

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, result)
	})
}

func TestDraftPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDraftPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("WHERE id = \\$1 AND owner = \\$2").
			WithArgs("d1", "u1").
			WillReturnRows(draftRow("d1", 3, "active"))

		draft, err := repo.FindByID(ctx, "u1", "d1")

		assert.NoError(t, err)
		assert.NotNil(t, draft)
		assert.Equal(t, "d1", draft.ID)
		assert.Equal(t, "", draft.EntityID)
	})

	t.Run("other owner's draft is invisible", func(t *testing.T) {
		mock.ExpectQuery("WHERE id = \\$1 AND owner = \\$2").
			WithArgs("d1", "u2").
			WillReturnError(sql.ErrNoRows)

		draft, err := repo.FindByID(ctx, "u2", "d1")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, draft)
	})
}

func TestDraftPostgres_FindActiveByKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDraftPostgres(db)
	ctx := context.Background()

	mock.ExpectQuery("COALESCE\\(entity_id, ''\\) = \\$4 AND status = 'active'").
		WithArgs("u1", "leads", "/leads", "").
		WillReturnRows(draftRow("d1", 1, "active"))

	draft, err := repo.FindActiveByKey(ctx, model.DraftKey{
		Owner: "u1", Module: "leads", Route: "/leads",
	})

	assert.NoError(t, err)
	assert.Equal(t, "d1", draft.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDraftPostgres_ListActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDraftPostgres(db)
	ctx := context.Background()

	t.Run("all modules", func(t *testing.T) {
		rows := draftRow("d1", 1, "active").AddRow(
			"d2", "u1", "expenses", "/expenses", "e42", "Lunch",
			[]byte(`{}`), 1, []byte(`{}`), 2, "active", time.Now(), time.Now(),
		)
		mock.ExpectQuery("ORDER BY updated_at DESC, id DESC").
			WithArgs("u1", "").
			WillReturnRows(rows)

		items, err := repo.ListActive(ctx, "u1", "")

		assert.NoError(t, err)
		assert.Len(t, items, 2)
		assert.Equal(t, "e42", items[1].EntityID)
	})

	t.Run("empty result is an empty slice", func(t *testing.T) {
		mock.ExpectQuery("ORDER BY updated_at DESC, id DESC").
			WithArgs("u1", "invoices").
			WillReturnRows(sqlmock.NewRows(draftCols))

		items, err := repo.ListActive(ctx, "u1", "invoices")

		assert.NoError(t, err)
		assert.NotNil(t, items)
		assert.Len(t, items, 0)
	})
}

func TestDraftPostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDraftPostgres(db)
	ctx := context.Background()

	t.Run("existing row", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM drafts WHERE id = ?").
			WithArgs("d1", "u1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(ctx, "u1", "d1"))
	})

	t.Run("missing row is not an error", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM drafts WHERE id = ?").
			WithArgs("gone", "u1").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.NoError(t, repo.Delete(ctx, "u1", "gone"))
	})
}

func TestDraftPostgres_MarkConverted(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDraftPostgres(db)
	ctx := context.Background()

	t.Run("active draft converts", func(t *testing.T) {
		mock.ExpectExec("SET status = 'converted', version = version \\+ 1").
			WithArgs("d1", "u1", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		n, err := repo.MarkConverted(ctx, "u1", "d1")

		assert.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("already terminal affects zero rows", func(t *testing.T) {
		mock.ExpectExec("SET status = 'converted', version = version \\+ 1").
			WithArgs("d1", "u1", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 0))

		n, err := repo.MarkConverted(ctx, "u1", "d1")

		assert.NoError(t, err)
		assert.Equal(t, int64(0), n)
	})
}

func TestDraftPostgres_CompleteByEntity(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDraftPostgres(db)
	ctx := context.Background()

	mock.ExpectExec("WHERE owner = \\$1 AND module = \\$2 AND entity_id = \\$3").
		WithArgs("u1", "expenses", "e42", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.CompleteByEntity(ctx, "u1", "expenses", "e42", "")

	assert.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDraftPostgres_PurgeExpired(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDraftPostgres(db)
	ctx := context.Background()

	terminalBefore := time.Now().Add(-30 * 24 * time.Hour)
	activeBefore := time.Now().Add(-90 * 24 * time.Hour)

	mock.ExpectExec("status IN \\('converted', 'discarded'\\)").
		WithArgs(terminalBefore, activeBefore).
		WillReturnResult(sqlmock.NewResult(0, 5))

	n, err := repo.PurgeExpired(ctx, terminalBefore, activeBefore)

	assert.NoError(t, err)
	assert.Equal(t, int64(5), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
