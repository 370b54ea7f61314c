package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"flowforge/internal/domain"
)

// MockDocumentParser is a mock implementation of port.DocumentParser.
type MockDocumentParser struct {
	mock.Mock
}

func (m *MockDocumentParser) ParseDocument(ctx context.Context, doc domain.Document) (*domain.ParseBatchResult, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ParseBatchResult), args.Error(1)
}
