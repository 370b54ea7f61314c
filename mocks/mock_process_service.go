package mocks

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"flowforge/internal/domain"
	"flowforge/internal/service"
)

// MockProcessService is a mock implementation of service.ProcessService.
type MockProcessService struct {
	mock.Mock
}

func (m *MockProcessService) Parse(ctx context.Context, input *service.ParseInput) (*domain.ParseBatchResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ParseBatchResult), args.Error(1)
}

func (m *MockProcessService) GenerateIdealState(ctx context.Context, process *domain.ParsedProcess) (*domain.IdealState, error) {
	args := m.Called(ctx, process)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IdealState), args.Error(1)
}

func (m *MockProcessService) Chat(ctx context.Context, input *service.ChatInput) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}

func (m *MockProcessService) Export(ctx context.Context, batch *domain.ParseBatchResult) ([]byte, error) {
	args := m.Called(ctx, batch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockProcessService) ListRuns(ctx context.Context, offset, limit int) ([]domain.ParseRun, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.ParseRun), args.Int(1), args.Error(2)
}

func (m *MockProcessService) GetRunResult(ctx context.Context, id uuid.UUID) (json.RawMessage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockProcessService) CacheStats(ctx context.Context) (*domain.CacheStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CacheStats), args.Error(1)
}

func (m *MockProcessService) ClearCache(ctx context.Context, pattern string) (int, error) {
	args := m.Called(ctx, pattern)
	return args.Int(0), args.Error(1)
}
