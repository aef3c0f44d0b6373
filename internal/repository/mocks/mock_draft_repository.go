package mocks

import (
	"context"
	"time"

	"draftapi/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockDraftRepository struct {
	mock.Mock
}

func (m *MockDraftRepository) Create(ctx context.Context, draft *model.Draft) (*model.Draft, error) {
	args := m.Called(ctx, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Draft), args.Error(1)
}

func (m *MockDraftRepository) Update(ctx context.Context, draft *model.Draft) (*model.Draft, error) {
	args := m.Called(ctx, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Draft), args.Error(1)
}

func (m *MockDraftRepository) FindByID(ctx context.Context, owner, id string) (*model.Draft, error) {
	args := m.Called(ctx, owner, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Draft), args.Error(1)
}

func (m *MockDraftRepository) FindActiveByKey(ctx context.Context, key model.DraftKey) (*model.Draft, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Draft), args.Error(1)
}

func (m *MockDraftRepository) FindLatestActive(ctx context.Context, owner string) (*model.Draft, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Draft), args.Error(1)
}

func (m *MockDraftRepository) ListActive(ctx context.Context, owner, module string) ([]model.Draft, error) {
	args := m.Called(ctx, owner, module)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Draft), args.Error(1)
}

func (m *MockDraftRepository) Delete(ctx context.Context, owner, id string) error {
	args := m.Called(ctx, owner, id)
	return args.Error(0)
}

func (m *MockDraftRepository) MarkConverted(ctx context.Context, owner, id string) (int64, error) {
	args := m.Called(ctx, owner, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDraftRepository) CompleteByEntity(ctx context.Context, owner, module, entityID, route string) (int64, error) {
	args := m.Called(ctx, owner, module, entityID, route)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDraftRepository) PurgeExpired(ctx context.Context, terminalBefore, activeBefore time.Time) (int64, error) {
	args := m.Called(ctx, terminalBefore, activeBefore)
	return args.Get(0).(int64), args.Error(1)
}
