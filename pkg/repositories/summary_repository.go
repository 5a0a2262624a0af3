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

// SummaryRepository provides data access for comment summaries.
type SummaryRepository interface {
	// Upsert inserts or replaces the summary for a comment.
	Upsert(ctx context.Context, summary *models.Summary) error

	// GetByCommentID returns the summary, or apperrors.ErrNotFound.
	GetByCommentID(ctx context.Context, commentID uuid.UUID) (*models.Summary, error)
}

type summaryRepository struct{}

// NewSummaryRepository creates a new SummaryRepository.
func NewSummaryRepository() SummaryRepository {
	return &summaryRepository{}
}

var _ SummaryRepository = (*summaryRepository)(nil)

func (r *summaryRepository) Upsert(ctx context.Context, summary *models.Summary) error {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return fmt.Errorf("no database querier in context")
	}

	if summary.ID == uuid.Nil {
		summary.ID = uuid.New()
	}
	now := time.Now()
	summary.CreatedAt = now
	summary.UpdatedAt = now

	query := `
		INSERT INTO summaries (id, comment_id, summary_text, confidence, model_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (comment_id) DO UPDATE SET
			summary_text = EXCLUDED.summary_text,
			confidence = EXCLUDED.confidence,
			model_version = EXCLUDED.model_version,
			updated_at = EXCLUDED.updated_at`

	_, err := q.Exec(ctx, query,
		summary.ID, summary.CommentID, summary.SummaryText,
		summary.Confidence, summary.ModelVersion, summary.CreatedAt, summary.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert summary: %w", err)
	}

	return nil
}

func (r *summaryRepository) GetByCommentID(ctx context.Context, commentID uuid.UUID) (*models.Summary, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no database querier in context")
	}

	query := `
		SELECT id, comment_id, summary_text, confidence, model_version, created_at, updated_at
		FROM summaries
		WHERE comment_id = $1`

	var summary models.Summary
	err := q.QueryRow(ctx, query, commentID).Scan(
		&summary.ID, &summary.CommentID, &summary.SummaryText,
		&summary.Confidence, &summary.ModelVersion, &summary.CreatedAt, &summary.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}

	return &summary, nil
}
