package mocks

import (
	"context"

	"draftapi/internal/config"
	"draftapi/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockDraftService struct {
	mock.Mock
}

func (m *MockDraftService) Save(ctx context.Context, owner string, req *model.SaveDraftRequest) (*model.Draft, error) {
	args := m.Called(ctx, owner, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Draft), args.Error(1)
}

func (m *MockDraftService) Check(ctx context.Context, owner, module, route, entityID string) (*model.Draft, error) {
	args := m.Called(ctx, owner, module, route, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Draft), args.Error(1)
}

func (m *MockDraftService) Latest(ctx context.Context, owner string) (*model.Draft, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Draft), args.Error(1)
}

func (m *MockDraftService) List(ctx context.Context, owner, module string) ([]model.Draft, error) {
	args := m.Called(ctx, owner, module)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Draft), args.Error(1)
}

func (m *MockDraftService) Get(ctx context.Context, owner, id string) (*model.Draft, error) {
	args := m.Called(ctx, owner, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Draft), args.Error(1)
}

func (m *MockDraftService) Delete(ctx context.Context, owner, id string) error {
	args := m.Called(ctx, owner, id)
	return args.Error(0)
}

func (m *MockDraftService) Convert(ctx context.Context, owner, id string) error {
	args := m.Called(ctx, owner, id)
	return args.Error(0)
}

func (m *MockDraftService) CompleteByEntity(ctx context.Context, owner, module, entityID, route string) (int64, error) {
	args := m.Called(ctx, owner, module, entityID, route)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDraftService) VersionCheck(ctx context.Context, owner, id string, clientVersion int64) (*model.VersionCheckResult, error) {
	args := m.Called(ctx, owner, id, clientVersion)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VersionCheckResult), args.Error(1)
}

func (m *MockDraftService) PurgeExpired(ctx context.Context, ret config.RetentionConfig) (int64, error) {
	args := m.Called(ctx, ret)
	return args.Get(0).(int64), args.Error(1)
}
