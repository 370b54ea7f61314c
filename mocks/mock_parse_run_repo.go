package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"flowforge/internal/domain"
)

// MockParseRunRepository is a mock implementation of port.ParseRunRepository.
type MockParseRunRepository struct {
	mock.Mock
}

func (m *MockParseRunRepository) Create(ctx context.Context, run *domain.ParseRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockParseRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ParseRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ParseRun), args.Error(1)
}

func (m *MockParseRunRepository) List(ctx context.Context, offset, limit int) ([]domain.ParseRun, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.ParseRun), args.Int(1), args.Error(2)
}

func (m *MockParseRunRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
