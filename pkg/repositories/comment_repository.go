package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/neetimanthan/comment-engine/pkg/apperrors"
	"github.com/neetimanthan/comment-engine/pkg/database"
	"github.com/neetimanthan/comment-engine/pkg/models"
)

// psql builds queries with PostgreSQL $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// CommentRepository provides data access for raw comments.
type CommentRepository interface {
	// Create inserts a new raw comment.
	Create(ctx context.Context, comment *models.CommentRaw) error

	// GetByID returns a raw comment, or apperrors.ErrCommentNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*models.CommentRaw, error)

	// UpdateIngestResult writes the ingest stage's outputs (masked text,
	// detected language) onto the raw comment in place.
	UpdateIngestResult(ctx context.Context, id uuid.UUID, piiMasked string, lang *string) error

	// List returns comments matching the filter, newest first. Sentiment,
	// stance, clause and confidence filters join against analysis rows.
	List(ctx context.Context, filter *models.CommentFilter) ([]*models.CommentRaw, error)

	// ListIDsByDraft returns all comment ids for a draft.
	ListIDsByDraft(ctx context.Context, draftID uuid.UUID) ([]uuid.UUID, error)

	// Delete removes a raw comment and (via cascade) its analysis rows.
	Delete(ctx context.Context, id uuid.UUID) error
}

type commentRepository struct{}

// NewCommentRepository creates a new CommentRepository.
func NewCommentRepository() CommentRepository {
	return &commentRepository{}
}

var _ CommentRepository = (*commentRepository)(nil)

func (r *commentRepository) Create(ctx context.Context, comment *models.CommentRaw) error {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return fmt.Errorf("no database querier in context")
	}

	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}
	now := time.Now()
	comment.CreatedAt = now
	comment.UpdatedAt = now

	var userMetaJSON []byte
	var err error
	if len(comment.UserMeta) > 0 {
		userMetaJSON, err = json.Marshal(comment.UserMeta)
		if err != nil {
			return fmt.Errorf("failed to marshal user_meta: %w", err)
		}
	}

	query := `
		INSERT INTO comments_raw (id, draft_id, text_raw, user_meta, lang, pii_masked, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = q.Exec(ctx, query,
		comment.ID, comment.DraftID, comment.TextRaw, userMetaJSON,
		comment.Lang, comment.PIIMasked, comment.CreatedAt, comment.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}

	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CommentRaw, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no database querier in context")
	}

	query := `
		SELECT id, draft_id, text_raw, user_meta, lang, pii_masked, created_at, updated_at
		FROM comments_raw
		WHERE id = $1`

	comment, err := scanComment(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCommentNotFound
		}
		return nil, err
	}

	return comment, nil
}

func (r *commentRepository) UpdateIngestResult(ctx context.Context, id uuid.UUID, piiMasked string, lang *string) error {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return fmt.Errorf("no database querier in context")
	}

	query := `
		UPDATE comments_raw
		SET pii_masked = $2, lang = $3, updated_at = $4
		WHERE id = $1`

	tag, err := q.Exec(ctx, query, id, piiMasked, lang, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update ingest result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrCommentNotFound
	}

	return nil
}

func (r *commentRepository) List(ctx context.Context, filter *models.CommentFilter) ([]*models.CommentRaw, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no database querier in context")
	}

	if filter == nil {
		filter = &models.CommentFilter{}
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	builder := psql.
		Select("c.id", "c.draft_id", "c.text_raw", "c.user_meta", "c.lang", "c.pii_masked", "c.created_at", "c.updated_at").
		From("comments_raw c").
		OrderBy("c.created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(filter.Offset))

	needsPrediction := filter.Sentiment != "" || filter.Stance != "" || filter.MinConfidence != nil
	if needsPrediction {
		builder = builder.Join("predictions p ON p.comment_id = c.id")
	}
	if filter.ClauseRef != "" {
		builder = builder.
			Join("comments_processed cp ON cp.comment_id = c.id").
			Where("? = ANY(cp.clause_guesses)", filter.ClauseRef)
	}

	if filter.DraftID != nil {
		builder = builder.Where(sq.Eq{"c.draft_id": *filter.DraftID})
	}
	if filter.Sentiment != "" {
		builder = builder.Where(sq.Eq{"p.sentiment_label": filter.Sentiment})
	}
	if filter.Stance != "" {
		builder = builder.Where(sq.Eq{"p.stance": filter.Stance})
	}
	if filter.MinConfidence != nil {
		builder = builder.Where(sq.GtOrEq{"p.confidence": *filter.MinConfidence})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build comment list query: %w", err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []*models.CommentRaw
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}

	return comments, nil
}

func (r *commentRepository) ListIDsByDraft(ctx context.Context, draftID uuid.UUID) ([]uuid.UUID, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no database querier in context")
	}

	rows, err := q.Query(ctx, "SELECT id FROM comments_raw WHERE draft_id = $1 ORDER BY created_at", draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comment ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan comment id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comment ids: %w", err)
	}

	return ids, nil
}

func (r *commentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return fmt.Errorf("no database querier in context")
	}

	tag, err := q.Exec(ctx, "DELETE FROM comments_raw WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrCommentNotFound
	}

	return nil
}

func scanComment(row pgx.Row) (*models.CommentRaw, error) {
	var comment models.CommentRaw
	var userMetaJSON []byte

	err := row.Scan(
		&comment.ID, &comment.DraftID, &comment.TextRaw, &userMetaJSON,
		&comment.Lang, &comment.PIIMasked, &comment.CreatedAt, &comment.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan comment: %w", err)
	}

	if len(userMetaJSON) > 0 && string(userMetaJSON) != "null" {
		if err := json.Unmarshal(userMetaJSON, &comment.UserMeta); err != nil {
			return nil, fmt.Errorf("failed to unmarshal user_meta: %w", err)
		}
	}

	return &comment, nil
}
