package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_usage_store.go -package=mocks docprompt/internal/storage UsageStore

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// UsageStore records token consumption.
type UsageStore interface {
	// Record appends a usage entry.
	Record(ctx context.Context, u UsageRecord) error
	// SumSince returns the tokens of the given kind consumed by a project since a point in time.
	SumSince(ctx context.Context, projectID, kind string, since time.Time) (int, error)
}

// UsageRepo provides methods for usage operations.
// It implements the UsageStore interface.
type UsageRepo struct {
	db *sql.DB
}

// NewUsageRepo creates a new UsageRepo.
func NewUsageRepo(db *sql.DB) *UsageRepo {
	return &UsageRepo{db: db}
}

// Record appends a usage entry.
func (r *UsageRepo) Record(ctx context.Context, u UsageRecord) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO usage (project_id, kind, model, tokens) VALUES (?, ?, ?, ?)",
		u.ProjectID, u.Kind, u.Model, u.Tokens,
	)
	if err != nil {
		return fmt.Errorf("failed to record usage: %w", err)
	}
	return nil
}

// SumSince returns the tokens of the given kind consumed by a project since a point in time.
func (r *UsageRepo) SumSince(ctx context.Context, projectID, kind string, since time.Time) (int, error) {
	var total sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		"SELECT SUM(tokens) FROM usage WHERE project_id = ? AND kind = ? AND created_at >= ?",
		projectID, kind, since.UTC().Format("2006-01-02 15:04:05"),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum usage: %w", err)
	}
	return int(total.Int64), nil
}
