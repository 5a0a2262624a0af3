package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neetimanthan/comment-engine/pkg/apperrors"
	"github.com/neetimanthan/comment-engine/pkg/models"
	"github.com/neetimanthan/comment-engine/pkg/repositories"
	"github.com/neetimanthan/comment-engine/pkg/tools"
)

// DraftService manages regulation drafts: creation, clause extraction with
// embeddings, uploads, and reads.
type DraftService struct {
	store       Store
	drafts      repositories.DraftRepository
	clauses     repositories.ClauseRepository
	clauseCache *ClauseService
	ingester    tools.Ingester
	logger      *zap.Logger
}

// NewDraftService creates the draft service. The clause cache may be nil.
func NewDraftService(
	store Store,
	drafts repositories.DraftRepository,
	clauses repositories.ClauseRepository,
	clauseCache *ClauseService,
	ingester tools.Ingester,
	logger *zap.Logger,
) *DraftService {
	return &DraftService{
		store:       store,
		drafts:      drafts,
		clauses:     clauses,
		clauseCache: clauseCache,
		ingester:    ingester,
		logger:      logger.Named("draft_service"),
	}
}

// CreateDraft stores a draft and its extracted clauses in one transaction.
// Clause embeddings come from the ingest tool; an embedding failure degrades
// that clause to lexical matching only.
func (s *DraftService) CreateDraft(ctx context.Context, title string, textURI *string, content string) (*models.Draft, []*models.Clause, error) {
	if strings.TrimSpace(content) == "" {
		return nil, nil, apperrors.ErrEmptyDraft
	}

	draft := &models.Draft{
		Title:   title,
		TextURI: textURI,
		Content: content,
	}

	clauses := ExtractClauses(content)
	for _, clause := range clauses {
		result, err := s.ingester.Process(ctx, clause.Text)
		if err != nil {
			s.logger.Warn("Clause embedding failed, keeping clause without one",
				zap.String("ref", clause.Ref), zap.Error(err))
			continue
		}
		clause.Embedding = result.Embedding
	}

	err := s.store.InTx(ctx, func(txCtx context.Context) error {
		if err := s.drafts.Create(txCtx, draft); err != nil {
			return err
		}
		for _, clause := range clauses {
			clause.DraftID = draft.ID
		}
		return s.clauses.CreateBatch(txCtx, clauses)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating draft: %w", err)
	}

	if s.clauseCache != nil {
		s.clauseCache.Invalidate(ctx, draft.ID)
	}

	s.logger.Info("Draft created",
		zap.String("draft_id", draft.ID.String()),
		zap.String("title", draft.Title),
		zap.Int("clauses", len(clauses)))

	return draft, clauses, nil
}

// CreateFromUpload accepts an uploaded document, strips HTML when the file
// looks like markup, and delegates to CreateDraft. The payload must be UTF-8.
func (s *DraftService) CreateFromUpload(ctx context.Context, filename, title, contentType string, data []byte) (*models.Draft, []*models.Clause, error) {
	if !utf8.Valid(data) {
		return nil, nil, fmt.Errorf("%w: upload must be UTF-8 encoded text", apperrors.ErrEmptyDraft)
	}

	content := string(data)
	if isHTMLUpload(filename, contentType) {
		stripped, err := stripHTML(data)
		if err != nil {
			return nil, nil, fmt.Errorf("parsing HTML upload: %w", err)
		}
		content = stripped
	}

	if title == "" {
		title = filename
	}
	if title == "" {
		title = "Uploaded Draft"
	}

	return s.CreateDraft(ctx, title, nil, content)
}

// GetDraft returns one draft.
func (s *DraftService) GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
	return s.drafts.GetByID(s.store.WithPool(ctx), id)
}

// ListDrafts returns drafts, newest first.
func (s *DraftService) ListDrafts(ctx context.Context, limit, offset int) ([]*models.Draft, error) {
	return s.drafts.List(s.store.WithPool(ctx), limit, offset)
}

// GetClauses returns a draft's clause set, checking the draft exists first.
func (s *DraftService) GetClauses(ctx context.Context, draftID uuid.UUID) ([]*models.Clause, error) {
	poolCtx := s.store.WithPool(ctx)
	if _, err := s.drafts.GetByID(poolCtx, draftID); err != nil {
		return nil, err
	}
	return s.clauses.ListByDraft(poolCtx, draftID)
}

func isHTMLUpload(filename, contentType string) bool {
	if strings.Contains(contentType, "text/html") {
		return true
	}
	lower := strings.ToLower(filename)
	return strings.HasSuffix(lower, ".html") || strings.HasSuffix(lower, ".htm")
}

// stripHTML extracts the visible text of an HTML document, keeping paragraph
// breaks so clause extraction can still split on them.
func stripHTML(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}

	var blocks []string
	doc.Find("p, li, h1, h2, h3, h4, h5, h6, div").Each(func(_ int, sel *goquery.Selection) {
		// Leaf blocks only, so nested containers do not duplicate text.
		if sel.Children().Filter("p, li, div").Length() > 0 {
			return
		}
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			blocks = append(blocks, text)
		}
	})
	if len(blocks) == 0 {
		return strings.TrimSpace(doc.Text()), nil
	}
	return strings.Join(blocks, "\n\n"), nil
}
