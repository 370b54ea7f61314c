package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"flowforge/internal/domain"
	"flowforge/internal/port"
)

type parseRunRepo struct {
	db *sqlx.DB
}

// NewParseRunRepo creates a new PostgreSQL-backed ParseRunRepository.
func NewParseRunRepo(db *sqlx.DB) port.ParseRunRepository {
	return &parseRunRepo{db: db}
}

func (r *parseRunRepo) Create(ctx context.Context, run *domain.ParseRun) error {
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO parse_runs (id, fingerprint, input_type, mode, cache_tier, detected_count,
		     process_count, failed_count, duration_ms, archive_key, requested_by, created_at)
		 VALUES (:id, :fingerprint, :input_type, :mode, :cache_tier, :detected_count,
		     :process_count, :failed_count, :duration_ms, :archive_key, :requested_by, :created_at)`,
		run)
	if err != nil {
		return fmt.Errorf("parseRunRepo.Create: %w", err)
	}
	return nil
}

const parseRunColumns = `id, fingerprint, input_type, mode, cache_tier, detected_count, process_count,
	failed_count, duration_ms, archive_key, requested_by, created_at`

func (r *parseRunRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ParseRun, error) {
	var run domain.ParseRun
	err := r.db.GetContext(ctx, &run,
		`SELECT `+parseRunColumns+` FROM parse_runs WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("parseRunRepo.GetByID: %w", err)
	}
	return &run, nil
}

func (r *parseRunRepo) List(ctx context.Context, offset, limit int) ([]domain.ParseRun, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM parse_runs`); err != nil {
		return nil, 0, fmt.Errorf("parseRunRepo.List count: %w", err)
	}

	runs := []domain.ParseRun{}
	err := r.db.SelectContext(ctx, &runs,
		`SELECT `+parseRunColumns+`
		 FROM parse_runs
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("parseRunRepo.List: %w", err)
	}
	return runs, total, nil
}

func (r *parseRunRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
