package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockLLMGateway is a mock implementation of port.LLMGateway.
type MockLLMGateway struct {
	mock.Mock
}

func (m *MockLLMGateway) Send(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	args := m.Called(ctx, systemPrompt, userPrompt)
	return args.String(0), args.Error(1)
}
