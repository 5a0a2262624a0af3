package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/neetimanthan/comment-engine/pkg/apperrors"
	"github.com/neetimanthan/comment-engine/pkg/models"
	"github.com/neetimanthan/comment-engine/pkg/repositories"
)

func TestAnalyticsServiceDraftSummary(t *testing.T) {
	ctx := context.Background()

	drafts := newMemDraftRepo()
	draft := &models.Draft{Title: "Filing Rules", Content: "..."}
	require.NoError(t, drafts.Create(ctx, draft))

	comments := newMemCommentRepo()
	for i := 0; i < 3; i++ {
		require.NoError(t, comments.Create(ctx, &models.CommentRaw{DraftID: draft.ID, TextRaw: "c"}))
	}

	processed := newMemProcessedRepo()
	for i := 0; i < 2; i++ {
		require.NoError(t, processed.Upsert(ctx, &models.CommentProcessed{
			CommentID:     uuid.New(),
			ClauseGuesses: []string{"Section 8(2)"},
		}))
	}

	predictions := newMemPredictionRepo()
	predictions.sentimentCounts = []repositories.SentimentCount{
		{Sentiment: models.SentimentNegative, Count: 2},
	}
	predictions.stanceCounts = []repositories.StanceCount{
		{Stance: models.StanceOppose, Count: 2},
	}
	predictions.avgConfidence = 0.85

	keywords := newMemKeywordRepo()
	require.NoError(t, keywords.ReplaceForDraft(ctx, draft.ID, keywordFacet, []*models.Keyword{
		{DraftID: draft.ID, Term: "deadline", Weight: 0.4, Frequency: 4},
	}))

	svc := NewAnalyticsService(&memStore{}, drafts, comments, processed, predictions,
		keywords, newMemClusterRepo(), zap.NewNop())

	summary, err := svc.DraftSummary(ctx, draft.ID)
	require.NoError(t, err)

	assert.Equal(t, draft.ID, summary.DraftID)
	assert.Equal(t, 3, summary.TotalComments)
	assert.Equal(t, 2, summary.ProcessedCount)
	assert.Equal(t, map[string]int{models.SentimentNegative: 2}, summary.SentimentCounts)
	assert.Equal(t, map[string]int{models.StanceOppose: 2}, summary.StanceCounts)
	assert.Equal(t, map[string]int{"Section 8(2)": 2}, summary.ClauseCounts)
	assert.Equal(t, 0.85, summary.AvgConfidence)
	require.Len(t, summary.TopKeywords, 1)
	assert.Equal(t, "deadline", summary.TopKeywords[0].Term)
}

func TestAnalyticsServiceUnknownDraft(t *testing.T) {
	svc := NewAnalyticsService(&memStore{}, newMemDraftRepo(), newMemCommentRepo(),
		newMemProcessedRepo(), newMemPredictionRepo(), newMemKeywordRepo(),
		newMemClusterRepo(), zap.NewNop())

	_, err := svc.DraftSummary(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrDraftNotFound)

	_, err = svc.Keywords(context.Background(), uuid.New(), 10)
	assert.ErrorIs(t, err, apperrors.ErrDraftNotFound)

	_, err = svc.Clusters(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrDraftNotFound)
}

func TestAnalyticsServiceClusters(t *testing.T) {
	ctx := context.Background()

	drafts := newMemDraftRepo()
	draft := &models.Draft{Title: "Rules", Content: "..."}
	require.NoError(t, drafts.Create(ctx, draft))

	clusters := newMemClusterRepo()
	require.NoError(t, clusters.ReplaceForDraft(ctx, draft.ID, []*models.CommentCluster{
		{DraftID: draft.ID, ClusterID: 1, Size: 3},
	}))

	svc := NewAnalyticsService(&memStore{}, drafts, newMemCommentRepo(),
		newMemProcessedRepo(), newMemPredictionRepo(), newMemKeywordRepo(),
		clusters, zap.NewNop())

	got, err := svc.Clusters(ctx, draft.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].Size)
}
