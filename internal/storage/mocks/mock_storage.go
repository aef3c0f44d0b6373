package mocks

import (
	"context"
	"io"

	"draftapi/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockArchiver struct {
	mock.Mock
}

func (m *MockArchiver) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (storage.ObjectInfo, error) {
	args := m.Called(ctx, key, r, size, contentType)
	return args.Get(0).(storage.ObjectInfo), args.Error(1)
}

func (m *MockArchiver) Get(ctx context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Get(1).(storage.ObjectInfo), args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(storage.ObjectInfo), args.Error(2)
}

func (m *MockArchiver) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
