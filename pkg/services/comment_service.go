package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neetimanthan/comment-engine/pkg/apperrors"
	"github.com/neetimanthan/comment-engine/pkg/logging"
	"github.com/neetimanthan/comment-engine/pkg/models"
	"github.com/neetimanthan/comment-engine/pkg/repositories"
)

// ErrEmptyCommentText is returned when a comment is submitted with no text.
var ErrEmptyCommentText = errors.New("comment text must not be empty")

// ProcessEnqueuer schedules a pipeline run for one comment. The comment
// service never runs the pipeline inline; intake must stay fast.
type ProcessEnqueuer interface {
	EnqueueProcess(commentID uuid.UUID, forceReprocess bool)
}

// BulkCommentItem is one entry of a bulk intake request.
type BulkCommentItem struct {
	Text string            `json:"text"`
	Meta map[string]string `json:"meta,omitempty"`
}

// CommentService handles comment intake and reads: create, bulk and CSV
// upload, listing joined with analysis rows, and reprocess triggers.
type CommentService struct {
	store       Store
	comments    repositories.CommentRepository
	processed   repositories.ProcessedRepository
	predictions repositories.PredictionRepository
	summaries   repositories.SummaryRepository
	drafts      repositories.DraftRepository
	enqueuer    ProcessEnqueuer
	logger      *zap.Logger
}

// NewCommentService creates the comment service.
func NewCommentService(
	store Store,
	comments repositories.CommentRepository,
	processed repositories.ProcessedRepository,
	predictions repositories.PredictionRepository,
	summaries repositories.SummaryRepository,
	drafts repositories.DraftRepository,
	enqueuer ProcessEnqueuer,
	logger *zap.Logger,
) *CommentService {
	return &CommentService{
		store:       store,
		comments:    comments,
		processed:   processed,
		predictions: predictions,
		summaries:   summaries,
		drafts:      drafts,
		enqueuer:    enqueuer,
		logger:      logger.Named("comment_service"),
	}
}

// CreateComment stores one raw comment and schedules its pipeline run.
func (s *CommentService) CreateComment(ctx context.Context, draftID uuid.UUID, text string, userMeta map[string]string) (*models.CommentRaw, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyCommentText
	}

	poolCtx := s.store.WithPool(ctx)
	if _, err := s.drafts.GetByID(poolCtx, draftID); err != nil {
		return nil, err
	}

	comment := &models.CommentRaw{
		DraftID:  draftID,
		TextRaw:  text,
		UserMeta: userMeta,
	}
	if err := s.comments.Create(poolCtx, comment); err != nil {
		return nil, fmt.Errorf("creating comment: %w", err)
	}

	s.enqueuer.EnqueueProcess(comment.ID, false)
	s.logger.Info("Comment created",
		zap.String("comment_id", comment.ID.String()),
		zap.String("draft_id", draftID.String()))
	s.logger.Debug("Comment text received",
		zap.String("comment_id", comment.ID.String()),
		zap.String("snippet", logging.SanitizeCommentText(text)))
	return comment, nil
}

// CreateBulk stores many comments in one transaction and schedules a
// pipeline run for each. Items with empty text are skipped, not rejected.
func (s *CommentService) CreateBulk(ctx context.Context, draftID uuid.UUID, items []BulkCommentItem) ([]uuid.UUID, error) {
	if _, err := s.drafts.GetByID(s.store.WithPool(ctx), draftID); err != nil {
		return nil, err
	}

	var created []uuid.UUID
	err := s.store.InTx(ctx, func(txCtx context.Context) error {
		for _, item := range items {
			if strings.TrimSpace(item.Text) == "" {
				continue
			}
			comment := &models.CommentRaw{
				DraftID:  draftID,
				TextRaw:  item.Text,
				UserMeta: item.Meta,
			}
			if err := s.comments.Create(txCtx, comment); err != nil {
				return err
			}
			created = append(created, comment.ID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("creating bulk comments: %w", err)
	}

	for _, id := range created {
		s.enqueuer.EnqueueProcess(id, false)
	}

	s.logger.Info("Bulk comments created",
		zap.String("draft_id", draftID.String()),
		zap.Int("count", len(created)))
	return created, nil
}

// CreateFromCSV parses an UTF-8 CSV with a header row. The "text" column
// becomes the comment body; every other column lands in user metadata.
func (s *CommentService) CreateFromCSV(ctx context.Context, draftID uuid.UUID, data []byte) ([]uuid.UUID, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("CSV must be UTF-8 encoded")
	}

	reader := csv.NewReader(bytes.NewReader(data))
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	textColumn := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), "text") {
			textColumn = i
			break
		}
	}
	if textColumn == -1 {
		return nil, fmt.Errorf("CSV must have a %q column", "text")
	}

	var items []BulkCommentItem
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}

		item := BulkCommentItem{Text: record[textColumn]}
		for i, value := range record {
			if i == textColumn || i >= len(header) {
				continue
			}
			if item.Meta == nil {
				item.Meta = make(map[string]string)
			}
			item.Meta[header[i]] = value
		}
		items = append(items, item)
	}

	return s.CreateBulk(ctx, draftID, items)
}

// GetComment returns a comment with whatever analysis rows exist for it.
func (s *CommentService) GetComment(ctx context.Context, id uuid.UUID) (*models.CommentWithAnalysis, error) {
	poolCtx := s.store.WithPool(ctx)
	comment, err := s.comments.GetByID(poolCtx, id)
	if err != nil {
		return nil, err
	}
	return s.withAnalysis(poolCtx, comment)
}

// ListComments returns comments matching the filter, each joined with its
// analysis rows.
func (s *CommentService) ListComments(ctx context.Context, filter *models.CommentFilter) ([]*models.CommentWithAnalysis, error) {
	poolCtx := s.store.WithPool(ctx)
	comments, err := s.comments.List(poolCtx, filter)
	if err != nil {
		return nil, err
	}

	out := make([]*models.CommentWithAnalysis, 0, len(comments))
	for _, comment := range comments {
		enriched, err := s.withAnalysis(poolCtx, comment)
		if err != nil {
			return nil, err
		}
		out = append(out, enriched)
	}
	return out, nil
}

// Reprocess schedules a forced pipeline run, bypassing the idempotency
// check. Used after model or threshold changes.
func (s *CommentService) Reprocess(ctx context.Context, id uuid.UUID) error {
	if _, err := s.comments.GetByID(s.store.WithPool(ctx), id); err != nil {
		return err
	}
	s.enqueuer.EnqueueProcess(id, true)
	s.logger.Info("Comment reprocess scheduled", zap.String("comment_id", id.String()))
	return nil
}

// DeleteComment removes a comment and its analysis rows.
func (s *CommentService) DeleteComment(ctx context.Context, id uuid.UUID) error {
	poolCtx := s.store.WithPool(ctx)
	if _, err := s.comments.GetByID(poolCtx, id); err != nil {
		return err
	}
	return s.comments.Delete(poolCtx, id)
}

func (s *CommentService) withAnalysis(ctx context.Context, comment *models.CommentRaw) (*models.CommentWithAnalysis, error) {
	out := &models.CommentWithAnalysis{Comment: comment}

	processed, err := s.processed.GetByCommentID(ctx, comment.ID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	out.Processed = processed

	prediction, err := s.predictions.GetByCommentID(ctx, comment.ID)
	if err == nil {
		out.Prediction = prediction
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	summary, err := s.summaries.GetByCommentID(ctx, comment.ID)
	if err == nil {
		out.Summary = summary
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	return out, nil
}
