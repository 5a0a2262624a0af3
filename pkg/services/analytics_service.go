package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neetimanthan/comment-engine/pkg/models"
	"github.com/neetimanthan/comment-engine/pkg/repositories"
)

// topKeywordsInSummary is how many keywords the draft summary view carries.
const topKeywordsInSummary = 10

// AnalyticsService aggregates pipeline outputs per draft: distributions,
// clause engagement, keywords and duplicate clusters.
type AnalyticsService struct {
	store       Store
	drafts      repositories.DraftRepository
	comments    repositories.CommentRepository
	processed   repositories.ProcessedRepository
	predictions repositories.PredictionRepository
	keywords    repositories.KeywordRepository
	clusters    repositories.ClusterRepository
	logger      *zap.Logger
}

// NewAnalyticsService creates the analytics service.
func NewAnalyticsService(
	store Store,
	drafts repositories.DraftRepository,
	comments repositories.CommentRepository,
	processed repositories.ProcessedRepository,
	predictions repositories.PredictionRepository,
	keywords repositories.KeywordRepository,
	clusters repositories.ClusterRepository,
	logger *zap.Logger,
) *AnalyticsService {
	return &AnalyticsService{
		store:       store,
		drafts:      drafts,
		comments:    comments,
		processed:   processed,
		predictions: predictions,
		keywords:    keywords,
		clusters:    clusters,
		logger:      logger.Named("analytics_service"),
	}
}

// DraftSummary returns the aggregated view over one draft's analysis rows.
func (s *AnalyticsService) DraftSummary(ctx context.Context, draftID uuid.UUID) (*models.DraftAnalytics, error) {
	poolCtx := s.store.WithPool(ctx)

	if _, err := s.drafts.GetByID(poolCtx, draftID); err != nil {
		return nil, err
	}

	ids, err := s.comments.ListIDsByDraft(poolCtx, draftID)
	if err != nil {
		return nil, fmt.Errorf("counting comments: %w", err)
	}

	processedCount, err := s.processed.CountByDraft(poolCtx, draftID)
	if err != nil {
		return nil, fmt.Errorf("counting processed comments: %w", err)
	}

	sentiments, err := s.predictions.CountSentimentsByDraft(poolCtx, draftID)
	if err != nil {
		return nil, fmt.Errorf("aggregating sentiments: %w", err)
	}
	sentimentCounts := make(map[string]int, len(sentiments))
	for _, sc := range sentiments {
		sentimentCounts[sc.Sentiment] = sc.Count
	}

	stances, err := s.predictions.CountStancesByDraft(poolCtx, draftID)
	if err != nil {
		return nil, fmt.Errorf("aggregating stances: %w", err)
	}
	stanceCounts := make(map[string]int, len(stances))
	for _, sc := range stances {
		stanceCounts[sc.Stance] = sc.Count
	}

	clauseCounts, err := s.processed.CountClausesByDraft(poolCtx, draftID)
	if err != nil {
		return nil, fmt.Errorf("aggregating clause links: %w", err)
	}

	avgConfidence, err := s.predictions.AverageConfidenceByDraft(poolCtx, draftID)
	if err != nil {
		return nil, fmt.Errorf("averaging confidence: %w", err)
	}

	topKeywords, err := s.keywords.ListTopByDraft(poolCtx, draftID, topKeywordsInSummary)
	if err != nil {
		return nil, fmt.Errorf("listing keywords: %w", err)
	}

	return &models.DraftAnalytics{
		DraftID:         draftID,
		TotalComments:   len(ids),
		ProcessedCount:  processedCount,
		SentimentCounts: sentimentCounts,
		StanceCounts:    stanceCounts,
		ClauseCounts:    clauseCounts,
		AvgConfidence:   avgConfidence,
		TopKeywords:     topKeywords,
	}, nil
}

// Keywords returns a draft's extracted keywords, highest weight first.
func (s *AnalyticsService) Keywords(ctx context.Context, draftID uuid.UUID, limit int) ([]*models.Keyword, error) {
	poolCtx := s.store.WithPool(ctx)
	if _, err := s.drafts.GetByID(poolCtx, draftID); err != nil {
		return nil, err
	}
	return s.keywords.ListTopByDraft(poolCtx, draftID, limit)
}

// Clusters returns a draft's duplicate-comment groups, largest first.
func (s *AnalyticsService) Clusters(ctx context.Context, draftID uuid.UUID) ([]*models.CommentCluster, error) {
	poolCtx := s.store.WithPool(ctx)
	if _, err := s.drafts.GetByID(poolCtx, draftID); err != nil {
		return nil, err
	}
	return s.clusters.ListByDraft(poolCtx, draftID)
}
