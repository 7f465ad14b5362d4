package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_source_store.go -package=mocks docprompt/internal/storage SourceStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// SourceStore defines the interface for source storage operations.
type SourceStore interface {
	// Create inserts a new source and assigns its ID.
	Create(ctx context.Context, src *SourceRecord) error
	// Get returns a source of the project by ID.
	// Returns nil and ErrNotFound if not found.
	Get(ctx context.Context, projectID, id string) (*SourceRecord, error)
	// ListByProject returns all sources of a project ordered by creation time.
	ListByProject(ctx context.Context, projectID string) ([]SourceRecord, error)
	// Delete removes a source and, through cascades, everything indexed for it.
	Delete(ctx context.Context, projectID, id string) error
	// UpsertByName inserts a source or updates the type and config of the one with the same name.
	UpsertByName(ctx context.Context, src *SourceRecord) error
}

// SourceRepo provides methods for source operations.
// It implements the SourceStore interface.
type SourceRepo struct {
	db *sql.DB
}

// NewSourceRepo creates a new SourceRepo.
func NewSourceRepo(db *sql.DB) *SourceRepo {
	return &SourceRepo{db: db}
}

// Create inserts a new source and assigns its ID.
func (r *SourceRepo) Create(ctx context.Context, src *SourceRecord) error {
	if src.ID == "" {
		src.ID = uuid.New().String()
	}

	config, err := marshalConfig(src.Config)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO sources (id, project_id, type, name, config) VALUES (?, ?, ?, ?, ?)",
		src.ID, src.ProjectID, src.Type, src.Name, config,
	)
	if err != nil {
		return fmt.Errorf("failed to insert source: %w", err)
	}

	return nil
}

// Get returns a source of the project by ID.
func (r *SourceRepo) Get(ctx context.Context, projectID, id string) (*SourceRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, project_id, type, name, config, created_at FROM sources WHERE project_id = ? AND id = ?",
		projectID, id,
	)

	src, err := scanSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query source: %w", err)
	}

	return src, nil
}

// ListByProject returns all sources of a project ordered by creation time.
func (r *SourceRepo) ListByProject(ctx context.Context, projectID string) ([]SourceRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, project_id, type, name, config, created_at FROM sources WHERE project_id = ? ORDER BY created_at, name",
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var sources []SourceRecord
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, *src)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sources: %w", err)
	}

	return sources, nil
}

// Delete removes a source. Checksums, files and sections cascade.
func (r *SourceRepo) Delete(ctx context.Context, projectID, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM sources WHERE project_id = ? AND id = ?", projectID, id)
	if err != nil {
		return fmt.Errorf("failed to delete source: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

// UpsertByName inserts a source or updates the type and config of the one with the same name.
// The ID of an existing source is preserved and written back to src.
func (r *SourceRepo) UpsertByName(ctx context.Context, src *SourceRecord) error {
	if src.ID == "" {
		src.ID = uuid.New().String()
	}

	config, err := marshalConfig(src.Config)
	if err != nil {
		return err
	}

	err = r.db.QueryRowContext(ctx,
		`INSERT INTO sources (id, project_id, type, name, config)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (project_id, name) DO UPDATE SET
		 type = excluded.type, config = excluded.config
		 RETURNING id`,
		src.ID, src.ProjectID, src.Type, src.Name, config,
	).Scan(&src.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert source: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSource(row rowScanner) (*SourceRecord, error) {
	var src SourceRecord
	var config string

	if err := row.Scan(&src.ID, &src.ProjectID, &src.Type, &src.Name, &config, &src.CreatedAt); err != nil {
		return nil, err
	}

	if config != "" {
		if err := json.Unmarshal([]byte(config), &src.Config); err != nil {
			return nil, fmt.Errorf("failed to decode source config: %w", err)
		}
	}
	if src.Config == nil {
		src.Config = map[string]any{}
	}

	return &src, nil
}

func marshalConfig(config map[string]any) (string, error) {
	if config == nil {
		return "{}", nil
	}
	b, err := json.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("failed to encode source config: %w", err)
	}
	return string(b), nil
}
