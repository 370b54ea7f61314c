package port

import (
	"context"

	"github.com/google/uuid"

	"flowforge/internal/domain"
)

// ParseRunRepository defines the contract for parse audit log persistence.
type ParseRunRepository interface {
	Create(ctx context.Context, run *domain.ParseRun) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ParseRun, error)
	List(ctx context.Context, offset, limit int) ([]domain.ParseRun, int, error)
	Ping(ctx context.Context) error
}
