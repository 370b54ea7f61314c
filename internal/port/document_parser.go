package port

import (
	"context"

	"flowforge/internal/domain"
)

// DocumentParser turns one document into a batch of parsed processes.
type DocumentParser interface {
	ParseDocument(ctx context.Context, doc domain.Document) (*domain.ParseBatchResult, error)
}
