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

// SentimentCount is one slice of a draft's sentiment distribution.
type SentimentCount struct {
	Sentiment string `json:"sentiment"`
	Count     int    `json:"count"`
}

// StanceCount is one slice of a draft's stance distribution.
type StanceCount struct {
	Stance string `json:"stance"`
	Count  int    `json:"count"`
}

// PredictionRepository provides data access for classification results.
type PredictionRepository interface {
	// Upsert inserts or replaces the prediction for a comment.
	Upsert(ctx context.Context, prediction *models.Prediction) error

	// GetByCommentID returns the prediction, or apperrors.ErrNotFound.
	GetByCommentID(ctx context.Context, commentID uuid.UUID) (*models.Prediction, error)

	// CountSentimentsByDraft returns the sentiment distribution over a
	// draft's classified comments.
	CountSentimentsByDraft(ctx context.Context, draftID uuid.UUID) ([]SentimentCount, error)

	// CountStancesByDraft returns the stance distribution over a draft's
	// classified comments.
	CountStancesByDraft(ctx context.Context, draftID uuid.UUID) ([]StanceCount, error)

	// AverageConfidenceByDraft returns the mean confidence across a draft's
	// predictions, zero when none exist.
	AverageConfidenceByDraft(ctx context.Context, draftID uuid.UUID) (float64, error)
}

type predictionRepository struct{}

// NewPredictionRepository creates a new PredictionRepository.
func NewPredictionRepository() PredictionRepository {
	return &predictionRepository{}
}

var _ PredictionRepository = (*predictionRepository)(nil)

func (r *predictionRepository) Upsert(ctx context.Context, prediction *models.Prediction) error {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return fmt.Errorf("no database querier in context")
	}

	if prediction.ID == uuid.Nil {
		prediction.ID = uuid.New()
	}
	prediction.CreatedAt = time.Now()

	query := `
		INSERT INTO predictions (id, comment_id, sentiment_label, sentiment_score, sentiment_intensity, stance, aspects, confidence, model_version, ci_low, ci_high, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (comment_id) DO UPDATE SET
			sentiment_label = EXCLUDED.sentiment_label,
			sentiment_score = EXCLUDED.sentiment_score,
			sentiment_intensity = EXCLUDED.sentiment_intensity,
			stance = EXCLUDED.stance,
			aspects = EXCLUDED.aspects,
			confidence = EXCLUDED.confidence,
			model_version = EXCLUDED.model_version,
			ci_low = EXCLUDED.ci_low,
			ci_high = EXCLUDED.ci_high,
			created_at = EXCLUDED.created_at,
			updated_at = now()`

	_, err := q.Exec(ctx, query,
		prediction.ID, prediction.CommentID, prediction.SentimentLabel,
		prediction.SentimentScore, prediction.SentimentIntensity, prediction.Stance,
		prediction.Aspects, prediction.Confidence, prediction.ModelVersion,
		prediction.CILow, prediction.CIHigh, prediction.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert prediction: %w", err)
	}

	return nil
}

func (r *predictionRepository) GetByCommentID(ctx context.Context, commentID uuid.UUID) (*models.Prediction, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no database querier in context")
	}

	query := `
		SELECT id, comment_id, sentiment_label, sentiment_score, sentiment_intensity, stance, aspects, confidence, model_version, ci_low, ci_high, created_at
		FROM predictions
		WHERE comment_id = $1`

	var prediction models.Prediction
	err := q.QueryRow(ctx, query, commentID).Scan(
		&prediction.ID, &prediction.CommentID, &prediction.SentimentLabel,
		&prediction.SentimentScore, &prediction.SentimentIntensity, &prediction.Stance,
		&prediction.Aspects, &prediction.Confidence, &prediction.ModelVersion,
		&prediction.CILow, &prediction.CIHigh, &prediction.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get prediction: %w", err)
	}

	return &prediction, nil
}

func (r *predictionRepository) CountSentimentsByDraft(ctx context.Context, draftID uuid.UUID) ([]SentimentCount, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no database querier in context")
	}

	query := `
		SELECT p.sentiment_label, COUNT(*)
		FROM predictions p
		JOIN comments_raw c ON c.id = p.comment_id
		WHERE c.draft_id = $1
		GROUP BY p.sentiment_label`

	rows, err := q.Query(ctx, query, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to count sentiments: %w", err)
	}
	defer rows.Close()

	var counts []SentimentCount
	for rows.Next() {
		var c SentimentCount
		if err := rows.Scan(&c.Sentiment, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan sentiment count: %w", err)
		}
		counts = append(counts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sentiment counts: %w", err)
	}

	return counts, nil
}

func (r *predictionRepository) CountStancesByDraft(ctx context.Context, draftID uuid.UUID) ([]StanceCount, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no database querier in context")
	}

	query := `
		SELECT p.stance, COUNT(*)
		FROM predictions p
		JOIN comments_raw c ON c.id = p.comment_id
		WHERE c.draft_id = $1
		GROUP BY p.stance`

	rows, err := q.Query(ctx, query, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to count stances: %w", err)
	}
	defer rows.Close()

	var counts []StanceCount
	for rows.Next() {
		var c StanceCount
		if err := rows.Scan(&c.Stance, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan stance count: %w", err)
		}
		counts = append(counts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stance counts: %w", err)
	}

	return counts, nil
}

func (r *predictionRepository) AverageConfidenceByDraft(ctx context.Context, draftID uuid.UUID) (float64, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return 0, fmt.Errorf("no database querier in context")
	}

	query := `
		SELECT COALESCE(AVG(p.confidence), 0)
		FROM predictions p
		JOIN comments_raw c ON c.id = p.comment_id
		WHERE c.draft_id = $1`

	var avg float64
	if err := q.QueryRow(ctx, query, draftID).Scan(&avg); err != nil {
		return 0, fmt.Errorf("failed to average confidence: %w", err)
	}

	return avg, nil
}
