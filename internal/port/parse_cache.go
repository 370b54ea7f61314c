package port

import (
	"context"

	"flowforge/internal/domain"
)

// ParseCache is the advisory result cache consulted before any LLM call.
// Lookup and Store never fail a request: an unavailable backing store reads as
// a miss and drops writes.
type ParseCache interface {
	Lookup(ctx context.Context, text string, inputType domain.InputType) (*domain.ParseBatchResult, domain.CacheTier, bool)
	Store(ctx context.Context, text string, inputType domain.InputType, result *domain.ParseBatchResult)
	Stats(ctx context.Context) (*domain.CacheStats, error)
	Clear(ctx context.Context, pattern string) (int, error)
	Ping(ctx context.Context) error
}
