package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_query_store.go -package=mocks docprompt/internal/storage QueryStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// QueryStore persists prompt/response records.
type QueryStore interface {
	// Insert stores a new query record and assigns its ID.
	Insert(ctx context.Context, q *QueryRecord) error
	// Update sets the final response and no-answer reason of a streamed query.
	Update(ctx context.Context, id string, response, noAnswerReason *string) error
	// ListRecent returns the latest query records of a project, newest first.
	ListRecent(ctx context.Context, projectID string, limit int) ([]QueryRecord, error)
}

// QueryRepo provides methods for query record operations.
// It implements the QueryStore interface.
type QueryRepo struct {
	db *sql.DB
}

// NewQueryRepo creates a new QueryRepo.
func NewQueryRepo(db *sql.DB) *QueryRepo {
	return &QueryRepo{db: db}
}

// Insert stores a new query record and assigns its ID.
func (r *QueryRepo) Insert(ctx context.Context, q *QueryRecord) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}

	var embedding any
	if len(q.Embedding) > 0 {
		b, err := json.Marshal(q.Embedding)
		if err != nil {
			return fmt.Errorf("failed to encode embedding: %w", err)
		}
		embedding = string(b)
	}

	refs := q.References
	if refs == nil {
		refs = []string{}
	}
	refsJSON, err := json.Marshal(refs)
	if err != nil {
		return fmt.Errorf("failed to encode references: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO queries (id, project_id, prompt, response, embedding, no_answer_reason, refs, processed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.ProjectID, q.Prompt, q.Response, embedding, q.NoAnswerReason, string(refsJSON), q.Processed,
	)
	if err != nil {
		return fmt.Errorf("failed to insert query: %w", err)
	}

	return nil
}

// Update sets the final response and no-answer reason of a streamed query.
func (r *QueryRepo) Update(ctx context.Context, id string, response, noAnswerReason *string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE queries SET response = ?, no_answer_reason = ? WHERE id = ?",
		response, noAnswerReason, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update query: %w", err)
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

// ListRecent returns the latest query records of a project, newest first.
func (r *QueryRepo) ListRecent(ctx context.Context, projectID string, limit int) ([]QueryRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, project_id, prompt, response, embedding, no_answer_reason, refs, processed, created_at
		 FROM queries WHERE project_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		projectID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query queries: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var records []QueryRecord
	for rows.Next() {
		var q QueryRecord
		var prompt, response, embedding, reason sql.NullString
		var refs string

		if err := rows.Scan(&q.ID, &q.ProjectID, &prompt, &response, &embedding, &reason, &refs, &q.Processed, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan query: %w", err)
		}

		q.Prompt = nullStringPtr(prompt)
		q.Response = nullStringPtr(response)
		q.NoAnswerReason = nullStringPtr(reason)
		if embedding.Valid {
			if err := json.Unmarshal([]byte(embedding.String), &q.Embedding); err != nil {
				return nil, fmt.Errorf("failed to decode embedding: %w", err)
			}
		}
		if err := json.Unmarshal([]byte(refs), &q.References); err != nil {
			return nil, fmt.Errorf("failed to decode references: %w", err)
		}

		records = append(records, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

func nullStringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
