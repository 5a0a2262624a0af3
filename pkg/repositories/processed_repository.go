package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/neetimanthan/comment-engine/pkg/apperrors"
	"github.com/neetimanthan/comment-engine/pkg/database"
	"github.com/neetimanthan/comment-engine/pkg/models"
)

// ProcessedRepository provides data access for normalized comment rows.
type ProcessedRepository interface {
	// Upsert inserts or replaces the processed row for a comment.
	// Reprocessing overwrites the previous normalization in place.
	Upsert(ctx context.Context, processed *models.CommentProcessed) error

	// GetByCommentID returns the processed row, or apperrors.ErrNotFound.
	GetByCommentID(ctx context.Context, commentID uuid.UUID) (*models.CommentProcessed, error)

	// ListByDraft returns all processed rows for a draft's comments,
	// embeddings included. Used by duplicate detection.
	ListByDraft(ctx context.Context, draftID uuid.UUID) ([]*models.CommentProcessed, error)

	// CountByDraft returns how many of a draft's comments have been processed.
	CountByDraft(ctx context.Context, draftID uuid.UUID) (int, error)

	// CountClausesByDraft returns, per clause reference, how many of a
	// draft's comments were linked to it.
	CountClausesByDraft(ctx context.Context, draftID uuid.UUID) (map[string]int, error)
}

type processedRepository struct{}

// NewProcessedRepository creates a new ProcessedRepository.
func NewProcessedRepository() ProcessedRepository {
	return &processedRepository{}
}

var _ ProcessedRepository = (*processedRepository)(nil)

func (r *processedRepository) Upsert(ctx context.Context, processed *models.CommentProcessed) error {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return fmt.Errorf("no database querier in context")
	}

	if processed.ID == uuid.Nil {
		processed.ID = uuid.New()
	}
	processed.CreatedAt = time.Now()

	query := `
		INSERT INTO comments_processed (id, comment_id, text_norm, clause_guesses, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (comment_id) DO UPDATE SET
			text_norm = EXCLUDED.text_norm,
			clause_guesses = EXCLUDED.clause_guesses,
			embedding = EXCLUDED.embedding,
			created_at = EXCLUDED.created_at`

	_, err := q.Exec(ctx, query,
		processed.ID, processed.CommentID, processed.TextNormalized,
		processed.ClauseGuesses, processed.Embedding, processed.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert processed comment: %w", err)
	}

	return nil
}

func (r *processedRepository) GetByCommentID(ctx context.Context, commentID uuid.UUID) (*models.CommentProcessed, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no database querier in context")
	}

	query := `
		SELECT id, comment_id, text_norm, clause_guesses, embedding, created_at
		FROM comments_processed
		WHERE comment_id = $1`

	var processed models.CommentProcessed
	err := q.QueryRow(ctx, query, commentID).Scan(
		&processed.ID, &processed.CommentID, &processed.TextNormalized,
		&processed.ClauseGuesses, &processed.Embedding, &processed.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get processed comment: %w", err)
	}

	return &processed, nil
}

func (r *processedRepository) ListByDraft(ctx context.Context, draftID uuid.UUID) ([]*models.CommentProcessed, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no database querier in context")
	}

	query := `
		SELECT cp.id, cp.comment_id, cp.text_norm, cp.clause_guesses, cp.embedding, cp.created_at
		FROM comments_processed cp
		JOIN comments_raw c ON c.id = cp.comment_id
		WHERE c.draft_id = $1
		ORDER BY cp.created_at`

	rows, err := q.Query(ctx, query, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to list processed comments: %w", err)
	}
	defer rows.Close()

	var results []*models.CommentProcessed
	for rows.Next() {
		var processed models.CommentProcessed
		err := rows.Scan(
			&processed.ID, &processed.CommentID, &processed.TextNormalized,
			&processed.ClauseGuesses, &processed.Embedding, &processed.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan processed comment: %w", err)
		}
		results = append(results, &processed)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating processed comments: %w", err)
	}

	return results, nil
}

func (r *processedRepository) CountByDraft(ctx context.Context, draftID uuid.UUID) (int, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return 0, fmt.Errorf("no database querier in context")
	}

	query := `
		SELECT COUNT(*)
		FROM comments_processed cp
		JOIN comments_raw c ON c.id = cp.comment_id
		WHERE c.draft_id = $1`

	var count int
	if err := q.QueryRow(ctx, query, draftID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count processed comments: %w", err)
	}

	return count, nil
}

func (r *processedRepository) CountClausesByDraft(ctx context.Context, draftID uuid.UUID) (map[string]int, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no database querier in context")
	}

	query := `
		SELECT guess, COUNT(*)
		FROM comments_processed cp
		JOIN comments_raw c ON c.id = cp.comment_id
		CROSS JOIN LATERAL unnest(cp.clause_guesses) AS guess
		WHERE c.draft_id = $1
		GROUP BY guess`

	rows, err := q.Query(ctx, query, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to count clause links: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var ref string
		var count int
		if err := rows.Scan(&ref, &count); err != nil {
			return nil, fmt.Errorf("failed to scan clause count: %w", err)
		}
		counts[ref] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clause counts: %w", err)
	}

	return counts, nil
}
