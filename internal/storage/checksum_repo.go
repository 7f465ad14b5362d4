package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_checksum_store.go -package=mocks docprompt/internal/storage ChecksumStore

import (
	"context"
	"database/sql"
	"fmt"
)

// ChecksumStore tracks the last indexed content checksum per (source, path).
type ChecksumStore interface {
	// ListBySource returns the stored checksums of a source keyed by path.
	ListBySource(ctx context.Context, sourceID string) (map[string]string, error)
	// Upsert records the checksum of a path, replacing any previous value.
	Upsert(ctx context.Context, sourceID, path, checksum string) error
	// DeleteBySource removes every checksum of a source.
	DeleteBySource(ctx context.Context, sourceID string) error
}

// ChecksumRepo provides methods for checksum operations.
// It implements the ChecksumStore interface.
type ChecksumRepo struct {
	db *sql.DB
}

// NewChecksumRepo creates a new ChecksumRepo.
func NewChecksumRepo(db *sql.DB) *ChecksumRepo {
	return &ChecksumRepo{db: db}
}

// ListBySource returns the stored checksums of a source keyed by path.
func (r *ChecksumRepo) ListBySource(ctx context.Context, sourceID string) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT path, checksum FROM checksums WHERE source_id = ?", sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query checksums: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	checksums := make(map[string]string)
	for rows.Next() {
		var path, checksum string
		if err := rows.Scan(&path, &checksum); err != nil {
			return nil, fmt.Errorf("failed to scan checksum: %w", err)
		}
		checksums[path] = checksum
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating checksums: %w", err)
	}

	return checksums, nil
}

// Upsert records the checksum of a path. The (source_id, path) key guarantees a single row.
func (r *ChecksumRepo) Upsert(ctx context.Context, sourceID, path, checksum string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO checksums (source_id, path, checksum, updated_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (source_id, path) DO UPDATE SET
		 checksum = excluded.checksum, updated_at = CURRENT_TIMESTAMP`,
		sourceID, path, checksum,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert checksum: %w", err)
	}

	return nil
}

// DeleteBySource removes every checksum of a source.
func (r *ChecksumRepo) DeleteBySource(ctx context.Context, sourceID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM checksums WHERE source_id = ?", sourceID); err != nil {
		return fmt.Errorf("failed to delete checksums: %w", err)
	}
	return nil
}
