package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/neetimanthan/comment-engine/pkg/database"
	"github.com/neetimanthan/comment-engine/pkg/models"
)

// ClauseRepository provides data access for draft clauses.
// The clause set for a draft is read-only during linking; writes only happen
// when a draft's content is (re-)extracted.
type ClauseRepository interface {
	// CreateBatch inserts all clauses for a draft in one round of inserts.
	CreateBatch(ctx context.Context, clauses []*models.Clause) error

	// ListByDraft returns all clauses for a draft.
	ListByDraft(ctx context.Context, draftID uuid.UUID) ([]*models.Clause, error)

	// DeleteByDraft removes all clauses for a draft, used before re-extraction.
	DeleteByDraft(ctx context.Context, draftID uuid.UUID) error
}

type clauseRepository struct{}

// NewClauseRepository creates a new ClauseRepository.
func NewClauseRepository() ClauseRepository {
	return &clauseRepository{}
}

var _ ClauseRepository = (*clauseRepository)(nil)

func (r *clauseRepository) CreateBatch(ctx context.Context, clauses []*models.Clause) error {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return fmt.Errorf("no database querier in context")
	}

	query := `
		INSERT INTO clauses (id, draft_id, ref, text, embedding, extraction_method, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	now := time.Now()
	for _, clause := range clauses {
		if clause.ID == uuid.Nil {
			clause.ID = uuid.New()
		}
		clause.CreatedAt = now

		_, err := q.Exec(ctx, query,
			clause.ID, clause.DraftID, clause.Ref, clause.Text,
			clause.Embedding, clause.ExtractionMethod, clause.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create clause %s: %w", clause.Ref, err)
		}
	}

	return nil
}

func (r *clauseRepository) ListByDraft(ctx context.Context, draftID uuid.UUID) ([]*models.Clause, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no database querier in context")
	}

	query := `
		SELECT id, draft_id, ref, text, embedding, extraction_method, created_at
		FROM clauses
		WHERE draft_id = $1
		ORDER BY created_at, ref`

	rows, err := q.Query(ctx, query, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to list clauses: %w", err)
	}
	defer rows.Close()

	var clauses []*models.Clause
	for rows.Next() {
		var clause models.Clause
		var method *string
		if err := rows.Scan(&clause.ID, &clause.DraftID, &clause.Ref, &clause.Text,
			&clause.Embedding, &method, &clause.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan clause: %w", err)
		}
		if method != nil {
			clause.ExtractionMethod = *method
		}
		clauses = append(clauses, &clause)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clauses: %w", err)
	}

	return clauses, nil
}

func (r *clauseRepository) DeleteByDraft(ctx context.Context, draftID uuid.UUID) error {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return fmt.Errorf("no database querier in context")
	}

	if _, err := q.Exec(ctx, "DELETE FROM clauses WHERE draft_id = $1", draftID); err != nil {
		return fmt.Errorf("failed to delete clauses for draft: %w", err)
	}

	return nil
}
