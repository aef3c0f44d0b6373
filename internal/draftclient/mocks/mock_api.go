package mocks

import (
	"context"

	"draftapi/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) Check(ctx context.Context, module, route, entityID string) (*model.Draft, error) {
	args := m.Called(ctx, module, route, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Draft), args.Error(1)
}

func (m *MockAPI) Save(ctx context.Context, req *model.SaveDraftRequest) (*model.Draft, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Draft), args.Error(1)
}

func (m *MockAPI) List(ctx context.Context, module string) ([]model.Draft, error) {
	args := m.Called(ctx, module)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Draft), args.Error(1)
}

func (m *MockAPI) Load(ctx context.Context, id string) (*model.Draft, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Draft), args.Error(1)
}

func (m *MockAPI) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAPI) Convert(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAPI) CompleteByEntity(ctx context.Context, module, entityID, route string) error {
	args := m.Called(ctx, module, entityID, route)
	return args.Error(0)
}

func (m *MockAPI) VersionCheck(ctx context.Context, id string, clientVersion int64) (*model.VersionCheckResult, error) {
	args := m.Called(ctx, id, clientVersion)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VersionCheckResult), args.Error(1)
}

func (m *MockAPI) Latest(ctx context.Context) (*model.Draft, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Draft), args.Error(1)
}

func (m *MockAPI) SendBeacon(req *model.SaveDraftRequest) {
	m.Called(req)
}
