package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_file_store.go -package=mocks docprompt/internal/storage FileStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// FileStore defines the interface for indexed file operations.
type FileStore interface {
	// GetBySourceAndPath gets a file by source ID and path.
	// Returns nil and ErrNotFound if not found.
	GetBySourceAndPath(ctx context.Context, sourceID, path string) (*FileRecord, error)
	// Upsert inserts a new file or updates an existing one and returns its ID.
	Upsert(ctx context.Context, file *FileRecord) (string, error)
	// DeleteBySource removes every file of a source together with its sections.
	DeleteBySource(ctx context.Context, sourceID string) error
	// CountBySource returns the number of indexed files of a source.
	CountBySource(ctx context.Context, sourceID string) (int, error)
}

// FileRepo provides methods for file operations.
// It implements the FileStore interface.
type FileRepo struct {
	db *sql.DB
}

// NewFileRepo creates a new FileRepo.
func NewFileRepo(db *sql.DB) *FileRepo {
	return &FileRepo{db: db}
}

// GetBySourceAndPath gets a file by source ID and path.
func (r *FileRepo) GetBySourceAndPath(ctx context.Context, sourceID, path string) (*FileRecord, error) {
	var file FileRecord
	var title sql.NullString
	var meta string

	err := r.db.QueryRowContext(ctx,
		"SELECT id, source_id, path, title, meta, updated_at FROM files WHERE source_id = ? AND path = ?",
		sourceID, path,
	).Scan(&file.ID, &file.SourceID, &file.Path, &title, &meta, &file.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query file: %w", err)
	}

	file.Title = title.String
	if meta != "" {
		if err := json.Unmarshal([]byte(meta), &file.Meta); err != nil {
			return nil, fmt.Errorf("failed to decode file meta: %w", err)
		}
	}

	return &file, nil
}

// Upsert inserts a new file or updates an existing one.
// If the file exists (by source_id and path) its ID is preserved.
func (r *FileRepo) Upsert(ctx context.Context, file *FileRecord) (string, error) {
	if file.ID == "" {
		file.ID = uuid.New().String()
	}

	meta, err := json.Marshal(file.Meta)
	if err != nil {
		return "", fmt.Errorf("failed to encode file meta: %w", err)
	}
	if file.Meta == nil {
		meta = []byte("{}")
	}

	err = r.db.QueryRowContext(ctx,
		`INSERT INTO files (id, source_id, path, title, meta, updated_at)
		 VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (source_id, path) DO UPDATE SET
		 title = excluded.title, meta = excluded.meta, updated_at = CURRENT_TIMESTAMP
		 RETURNING id`,
		file.ID, file.SourceID, file.Path, file.Title, string(meta),
	).Scan(&file.ID)
	if err != nil {
		return "", fmt.Errorf("failed to upsert file: %w", err)
	}

	return file.ID, nil
}

// DeleteBySource removes every file of a source. Sections cascade.
func (r *FileRepo) DeleteBySource(ctx context.Context, sourceID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM files WHERE source_id = ?", sourceID); err != nil {
		return fmt.Errorf("failed to delete files: %w", err)
	}
	return nil
}

// CountBySource returns the number of indexed files of a source.
func (r *FileRepo) CountBySource(ctx context.Context, sourceID string) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM files WHERE source_id = ?", sourceID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count files: %w", err)
	}
	return count, nil
}
