package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"draftapi/internal/config"
	"draftapi/internal/model"
	repoMocks "draftapi/internal/repository/mocks"
	"draftapi/internal/storage"
	storeMocks "draftapi/internal/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDraftService_Save(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		req        *model.SaveDraftRequest
		setupMocks func(mRepo *repoMocks.MockDraftRepository)
		wantID     string
		wantErr    error
	}{
		{
			name: "create when slot is empty",
			req: &model.SaveDraftRequest{
				Module: "leads", Route: "/leads", Data: []byte(`{"name":"Acme"}`),
			},
			setupMocks: func(mRepo *repoMocks.MockDraftRepository) {
				mRepo.On("FindActiveByKey", ctx, model.DraftKey{
					Owner: "u1", Module: "leads", Route: "/leads",
				}).Return(nil, sql.ErrNoRows)
				mRepo.On("Create", ctx, mock.MatchedBy(func(d *model.Draft) bool {
					return d.ID != "" && d.Owner == "u1" && string(d.Data) == `{"name":"Acme"}`
				})).Return(&model.Draft{ID: "gen-id", Version: 1}, nil)
			},
			wantID: "gen-id",
		},
		{
			name: "create converges on occupied slot",
			req: &model.SaveDraftRequest{
				Module: "leads", Route: "/leads", Data: []byte(`{"name":"Acme"}`),
			},
			setupMocks: func(mRepo *repoMocks.MockDraftRepository) {
				mRepo.On("FindActiveByKey", ctx, mock.Anything).
					Return(&model.Draft{ID: "existing", Version: 3}, nil)
				mRepo.On("Update", ctx, mock.MatchedBy(func(d *model.Draft) bool {
					return d.ID == "existing"
				})).Return(&model.Draft{ID: "existing", Version: 4}, nil)
			},
			wantID: "existing",
		},
		{
			name: "update by id",
			req: &model.SaveDraftRequest{
				ID: "d1", Module: "leads", Route: "/leads", Data: []byte(`{"a":1}`),
			},
			setupMocks: func(mRepo *repoMocks.MockDraftRepository) {
				mRepo.On("Update", ctx, mock.MatchedBy(func(d *model.Draft) bool {
					return d.ID == "d1" && d.Owner == "u1"
				})).Return(&model.Draft{ID: "d1", Version: 2}, nil)
			},
			wantID: "d1",
		},
		{
			name: "update of a terminal draft reports not found",
			req: &model.SaveDraftRequest{
				ID: "gone", Module: "leads", Route: "/leads",
			},
			setupMocks: func(mRepo *repoMocks.MockDraftRepository) {
				mRepo.On("Update", ctx, mock.Anything).Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
		{
			name:       "missing key",
			req:        &model.SaveDraftRequest{Module: "leads"},
			setupMocks: func(mRepo *repoMocks.MockDraftRepository) {},
			wantErr:    ErrKeyRequired,
		},
		{
			name: "empty payload defaults to an empty object",
			req: &model.SaveDraftRequest{
				ID: "d1", Module: "leads", Route: "/leads",
			},
			setupMocks: func(mRepo *repoMocks.MockDraftRepository) {
				mRepo.On("Update", ctx, mock.MatchedBy(func(d *model.Draft) bool {
					return string(d.Data) == `{}`
				})).Return(&model.Draft{ID: "d1", Version: 2}, nil)
			},
			wantID: "d1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockDraftRepository)
			tt.setupMocks(mRepo)

			svc := NewDraftService(mRepo, nil, nil)
			draft, err := svc.Save(ctx, "u1", tt.req)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, draft.ID)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestDraftService_Check(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mRepo := new(repoMocks.MockDraftRepository)
		mRepo.On("FindActiveByKey", ctx, model.DraftKey{
			Owner: "u1", Module: "expenses", Route: "/expenses/e42", EntityID: "e42",
		}).Return(&model.Draft{ID: "d1"}, nil)

		svc := NewDraftService(mRepo, nil, nil)
		draft, err := svc.Check(ctx, "u1", "expenses", "/expenses/e42", "e42")

		assert.NoError(t, err)
		assert.Equal(t, "d1", draft.ID)
	})

	t.Run("empty slot is not an error", func(t *testing.T) {
		mRepo := new(repoMocks.MockDraftRepository)
		mRepo.On("FindActiveByKey", ctx, mock.Anything).Return(nil, sql.ErrNoRows)

		svc := NewDraftService(mRepo, nil, nil)
		draft, err := svc.Check(ctx, "u1", "leads", "/leads", "")

		assert.NoError(t, err)
		assert.Nil(t, draft)
	})

	t.Run("missing key", func(t *testing.T) {
		svc := NewDraftService(new(repoMocks.MockDraftRepository), nil, nil)
		_, err := svc.Check(ctx, "u1", "", "/leads", "")
		assert.ErrorIs(t, err, ErrKeyRequired)
	})
}

func TestDraftService_Latest(t *testing.T) {
	ctx := context.Background()

	mRepo := new(repoMocks.MockDraftRepository)
	mRepo.On("FindLatestActive", ctx, "u1").Return(nil, sql.ErrNoRows)

	svc := NewDraftService(mRepo, nil, nil)
	draft, err := svc.Latest(ctx, "u1")

	assert.NoError(t, err)
	assert.Nil(t, draft)
}

func TestDraftService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("not found maps to service error", func(t *testing.T) {
		mRepo := new(repoMocks.MockDraftRepository)
		mRepo.On("FindByID", ctx, "u1", "gone").Return(nil, sql.ErrNoRows)

		svc := NewDraftService(mRepo, nil, nil)
		_, err := svc.Get(ctx, "u1", "gone")

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("empty id", func(t *testing.T) {
		svc := NewDraftService(new(repoMocks.MockDraftRepository), nil, nil)
		_, err := svc.Get(ctx, "u1", "")
		assert.ErrorIs(t, err, ErrIDRequired)
	})
}

func TestDraftService_Convert(t *testing.T) {
	ctx := context.Background()

	t.Run("archives then converts", func(t *testing.T) {
		mRepo := new(repoMocks.MockDraftRepository)
		mStore := new(storeMocks.MockArchiver)

		draft := &model.Draft{
			ID: "d1", Owner: "u1", Status: model.StatusActive,
			Data: []byte(`{"final":true}`),
		}
		mRepo.On("FindByID", ctx, "u1", "d1").Return(draft, nil)
		mStore.On("Put", ctx, "drafts/u1/d1.json", mock.Anything, int64(len(draft.Data)), "application/json").
			Return(storage.ObjectInfo{Key: "drafts/u1/d1.json"}, nil)
		mRepo.On("MarkConverted", ctx, "u1", "d1").Return(int64(1), nil)

		svc := NewDraftService(mRepo, mStore, nil)

		assert.NoError(t, svc.Convert(ctx, "u1", "d1"))
		mRepo.AssertExpectations(t)
		mStore.AssertExpectations(t)
	})

	t.Run("archive failure does not block conversion", func(t *testing.T) {
		mRepo := new(repoMocks.MockDraftRepository)
		mStore := new(storeMocks.MockArchiver)

		mRepo.On("FindByID", ctx, "u1", "d1").Return(&model.Draft{
			ID: "d1", Owner: "u1", Status: model.StatusActive, Data: []byte(`{}`),
		}, nil)
		mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{}, errors.New("bucket offline"))
		mRepo.On("MarkConverted", ctx, "u1", "d1").Return(int64(1), nil)

		svc := NewDraftService(mRepo, mStore, nil)

		assert.NoError(t, svc.Convert(ctx, "u1", "d1"))
		mRepo.AssertExpectations(t)
	})

	t.Run("missing draft is a no-op", func(t *testing.T) {
		mRepo := new(repoMocks.MockDraftRepository)
		mRepo.On("FindByID", ctx, "u1", "gone").Return(nil, sql.ErrNoRows)

		svc := NewDraftService(mRepo, nil, nil)

		assert.NoError(t, svc.Convert(ctx, "u1", "gone"))
		mRepo.AssertNotCalled(t, "MarkConverted", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("already terminal is a no-op", func(t *testing.T) {
		mRepo := new(repoMocks.MockDraftRepository)
		mRepo.On("FindByID", ctx, "u1", "d1").Return(&model.Draft{
			ID: "d1", Status: model.StatusConverted,
		}, nil)

		svc := NewDraftService(mRepo, nil, nil)

		assert.NoError(t, svc.Convert(ctx, "u1", "d1"))
		mRepo.AssertNotCalled(t, "MarkConverted", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("no archiver configured skips archival", func(t *testing.T) {
		mRepo := new(repoMocks.MockDraftRepository)
		mRepo.On("FindByID", ctx, "u1", "d1").Return(&model.Draft{
			ID: "d1", Owner: "u1", Status: model.StatusActive, Data: []byte(`{}`),
		}, nil)
		mRepo.On("MarkConverted", ctx, "u1", "d1").Return(int64(1), nil)

		svc := NewDraftService(mRepo, nil, nil)

		assert.NoError(t, svc.Convert(ctx, "u1", "d1"))
	})
}

func TestDraftService_CompleteByEntity(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		mRepo := new(repoMocks.MockDraftRepository)
		mRepo.On("CompleteByEntity", ctx, "u1", "expenses", "e42", "/expenses/e42").
			Return(int64(2), nil)

		svc := NewDraftService(mRepo, nil, nil)
		n, err := svc.CompleteByEntity(ctx, "u1", "expenses", "e42", "/expenses/e42")

		assert.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("entity id required", func(t *testing.T) {
		svc := NewDraftService(new(repoMocks.MockDraftRepository), nil, nil)
		_, err := svc.CompleteByEntity(ctx, "u1", "expenses", "", "")
		assert.ErrorIs(t, err, ErrEntityRequired)
	})

	t.Run("module required", func(t *testing.T) {
		svc := NewDraftService(new(repoMocks.MockDraftRepository), nil, nil)
		_, err := svc.CompleteByEntity(ctx, "u1", "", "e42", "")
		assert.ErrorIs(t, err, ErrKeyRequired)
	})
}

func TestDraftService_VersionCheck(t *testing.T) {
	ctx := context.Background()
	savedAt := time.Now().UTC()

	mRepo := new(repoMocks.MockDraftRepository)
	mRepo.On("FindByID", ctx, "u1", "d1").Return(&model.Draft{
		ID: "d1", Version: 5, UpdatedAt: savedAt,
	}, nil)

	svc := NewDraftService(mRepo, nil, nil)

	t.Run("in sync", func(t *testing.T) {
		res, err := svc.VersionCheck(ctx, "u1", "d1", 5)
		require.NoError(t, err)
		assert.True(t, res.InSync)
		assert.Equal(t, int64(5), res.ServerVersion)
	})

	t.Run("stale client", func(t *testing.T) {
		res, err := svc.VersionCheck(ctx, "u1", "d1", 3)
		require.NoError(t, err)
		assert.False(t, res.InSync)
		assert.Equal(t, int64(5), res.ServerVersion)
		assert.Equal(t, int64(3), res.ClientVersion)
		assert.Equal(t, savedAt, res.LastSavedAt)
	})
}

func TestDraftService_PurgeExpired(t *testing.T) {
	ctx := context.Background()

	mRepo := new(repoMocks.MockDraftRepository)
	mRepo.On("PurgeExpired", ctx, mock.MatchedBy(func(tb time.Time) bool {
		return time.Since(tb) > 29*24*time.Hour
	}), mock.MatchedBy(func(ab time.Time) bool {
		return time.Since(ab) > 89*24*time.Hour
	})).Return(int64(7), nil)

	svc := NewDraftService(mRepo, nil, nil)
	n, err := svc.PurgeExpired(ctx, config.RetentionConfig{
		TerminalTTL: 30 * 24 * time.Hour,
		ActiveTTL:   90 * 24 * time.Hour,
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(7), n)
	mRepo.AssertExpectations(t)
}
