package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_section_store.go -package=mocks docprompt/internal/storage SectionStore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// SectionStore defines the interface for section storage operations.
type SectionStore interface {
	// ListIDsByFile returns all section IDs of a file, ordered by section_index.
	ListIDsByFile(ctx context.Context, fileID string) ([]string, error)
	// ReplaceForFile deletes the sections of a file and inserts the given ones in one transaction.
	// Sections without an ID get a new UUID assigned in place.
	ReplaceForFile(ctx context.Context, fileID string, sections []SectionRecord) error
	// TokenCountsBySource returns the token count of every section of a source.
	TokenCountsBySource(ctx context.Context, sourceID string) ([]int, error)
}

// SectionRepo provides methods for section operations.
// It implements the SectionStore interface.
type SectionRepo struct {
	db *sql.DB
}

// NewSectionRepo creates a new SectionRepo.
func NewSectionRepo(db *sql.DB) *SectionRepo {
	return &SectionRepo{db: db}
}

// ListIDsByFile returns all section IDs of a file, ordered by section_index.
// Returns an empty slice if no sections exist (not an error).
// Used to get Qdrant point IDs for deletion before re-indexing.
func (r *SectionRepo) ListIDsByFile(ctx context.Context, fileID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id FROM sections WHERE file_id = ? ORDER BY section_index",
		fileID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query section IDs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan section ID: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return ids, nil
}

// ReplaceForFile deletes the sections of a file and inserts the given ones in one transaction.
func (r *SectionRepo) ReplaceForFile(ctx context.Context, fileID string, sections []SectionRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM sections WHERE file_id = ?", fileID); err != nil {
		return fmt.Errorf("failed to delete sections by file: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO sections (id, file_id, section_index, heading_path, content, token_count) VALUES (?, ?, ?, ?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("failed to prepare section insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for i := range sections {
		if sections[i].ID == "" {
			sections[i].ID = uuid.New().String()
		}
		sections[i].FileID = fileID
		s := sections[i]
		if _, err := stmt.ExecContext(ctx, s.ID, fileID, s.SectionIndex, s.HeadingPath, s.Content, s.TokenCount); err != nil {
			return fmt.Errorf("failed to insert section: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sections: %w", err)
	}

	return nil
}

// TokenCountsBySource returns the token count of every section of a source.
func (r *SectionRepo) TokenCountsBySource(ctx context.Context, sourceID string) ([]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT s.token_count FROM sections s
		 JOIN files f ON f.id = s.file_id
		 WHERE f.source_id = ?`,
		sourceID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query section token counts: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var counts []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to scan token count: %w", err)
		}
		counts = append(counts, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return counts, nil
}
