package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/neetimanthan/comment-engine/pkg/database"
	"github.com/neetimanthan/comment-engine/pkg/models"
)

// KeywordRepository provides data access for per-draft keywords.
type KeywordRepository interface {
	// ReplaceForDraft deletes a draft's keywords for the given facet and
	// inserts the new set. The keyword job recomputes from scratch.
	ReplaceForDraft(ctx context.Context, draftID uuid.UUID, facet string, keywords []*models.Keyword) error

	// ListTopByDraft returns a draft's keywords by descending weight.
	ListTopByDraft(ctx context.Context, draftID uuid.UUID, limit int) ([]*models.Keyword, error)
}

type keywordRepository struct{}

// NewKeywordRepository creates a new KeywordRepository.
func NewKeywordRepository() KeywordRepository {
	return &keywordRepository{}
}

var _ KeywordRepository = (*keywordRepository)(nil)

func (r *keywordRepository) ReplaceForDraft(ctx context.Context, draftID uuid.UUID, facet string, keywords []*models.Keyword) error {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return fmt.Errorf("no database querier in context")
	}

	_, err := q.Exec(ctx, "DELETE FROM keywords WHERE draft_id = $1 AND facet = $2", draftID, facet)
	if err != nil {
		return fmt.Errorf("failed to clear keywords: %w", err)
	}

	now := time.Now()
	for _, kw := range keywords {
		if kw.ID == uuid.Nil {
			kw.ID = uuid.New()
		}
		kw.DraftID = draftID
		kw.Facet = facet
		kw.CreatedAt = now

		_, err := q.Exec(ctx, `
			INSERT INTO keywords (id, draft_id, facet, term, weight, frequency, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			kw.ID, kw.DraftID, kw.Facet, kw.Term, kw.Weight, kw.Frequency, kw.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert keyword %q: %w", kw.Term, err)
		}
	}

	return nil
}

func (r *keywordRepository) ListTopByDraft(ctx context.Context, draftID uuid.UUID, limit int) ([]*models.Keyword, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no database querier in context")
	}

	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, draft_id, facet, term, weight, frequency, created_at
		FROM keywords
		WHERE draft_id = $1
		ORDER BY weight DESC
		LIMIT $2`

	rows, err := q.Query(ctx, query, draftID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list keywords: %w", err)
	}
	defer rows.Close()

	var keywords []*models.Keyword
	for rows.Next() {
		var kw models.Keyword
		err := rows.Scan(&kw.ID, &kw.DraftID, &kw.Facet, &kw.Term, &kw.Weight, &kw.Frequency, &kw.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan keyword: %w", err)
		}
		keywords = append(keywords, &kw)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating keywords: %w", err)
	}

	return keywords, nil
}
