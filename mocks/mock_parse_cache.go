package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"flowforge/internal/domain"
)

// MockParseCache is a mock implementation of port.ParseCache.
type MockParseCache struct {
	mock.Mock
}

func (m *MockParseCache) Lookup(ctx context.Context, text string, inputType domain.InputType) (*domain.ParseBatchResult, domain.CacheTier, bool) {
	args := m.Called(ctx, text, inputType)
	if args.Get(0) == nil {
		return nil, args.Get(1).(domain.CacheTier), args.Bool(2)
	}
	return args.Get(0).(*domain.ParseBatchResult), args.Get(1).(domain.CacheTier), args.Bool(2)
}

func (m *MockParseCache) Store(ctx context.Context, text string, inputType domain.InputType, result *domain.ParseBatchResult) {
	m.Called(ctx, text, inputType, result)
}

func (m *MockParseCache) Stats(ctx context.Context) (*domain.CacheStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CacheStats), args.Error(1)
}

func (m *MockParseCache) Clear(ctx context.Context, pattern string) (int, error) {
	args := m.Called(ctx, pattern)
	return args.Int(0), args.Error(1)
}

func (m *MockParseCache) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
