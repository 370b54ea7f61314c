package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"flowforge/internal/port"
)

// MockResultArchive is a mock implementation of port.ResultArchive.
type MockResultArchive struct {
	mock.Mock
}

func (m *MockResultArchive) Upload(ctx context.Context, input port.UploadInput) (*port.UploadOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.UploadOutput), args.Error(1)
}

func (m *MockResultArchive) Download(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
