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

// DraftRepository provides data access for regulation drafts.
type DraftRepository interface {
	// Create inserts a new draft.
	Create(ctx context.Context, draft *models.Draft) error

	// GetByID returns a draft by id, or apperrors.ErrDraftNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Draft, error)

	// List returns drafts ordered by creation time (newest first).
	List(ctx context.Context, limit, offset int) ([]*models.Draft, error)
}

type draftRepository struct{}

// NewDraftRepository creates a new DraftRepository.
func NewDraftRepository() DraftRepository {
	return &draftRepository{}
}

var _ DraftRepository = (*draftRepository)(nil)

func (r *draftRepository) Create(ctx context.Context, draft *models.Draft) error {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return fmt.Errorf("no database querier in context")
	}

	if draft.ID == uuid.Nil {
		draft.ID = uuid.New()
	}
	now := time.Now()
	draft.CreatedAt = now
	draft.UpdatedAt = now

	query := `
		INSERT INTO drafts (id, title, text_uri, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := q.Exec(ctx, query,
		draft.ID, draft.Title, draft.TextURI, draft.Content, draft.CreatedAt, draft.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create draft: %w", err)
	}

	return nil
}

func (r *draftRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no database querier in context")
	}

	query := `
		SELECT id, title, text_uri, content, created_at, updated_at
		FROM drafts
		WHERE id = $1`

	var draft models.Draft
	err := q.QueryRow(ctx, query, id).Scan(
		&draft.ID, &draft.Title, &draft.TextURI, &draft.Content, &draft.CreatedAt, &draft.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrDraftNotFound
		}
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}

	return &draft, nil
}

func (r *draftRepository) List(ctx context.Context, limit, offset int) ([]*models.Draft, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no database querier in context")
	}

	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, title, text_uri, content, created_at, updated_at
		FROM drafts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	defer rows.Close()

	var drafts []*models.Draft
	for rows.Next() {
		var draft models.Draft
		if err := rows.Scan(&draft.ID, &draft.Title, &draft.TextURI, &draft.Content,
			&draft.CreatedAt, &draft.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan draft: %w", err)
		}
		drafts = append(drafts, &draft)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating drafts: %w", err)
	}

	return drafts, nil
}
