package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/neetimanthan/comment-engine/pkg/clauselink"
	"github.com/neetimanthan/comment-engine/pkg/tools"
)

func TestLinkerServiceDirectMention(t *testing.T) {
	svc := NewLinkerService(0.3, 0.1, 5, zap.NewNop())

	result, err := svc.Link(context.Background(), &tools.LinkRequest{
		CommentText: "I strongly object to Section 8(2) of the draft.",
		Clauses: []tools.ClauseInput{
			{ClauseRef: "Section 8(2)", Text: "The filing deadline shall be thirty days."},
			{ClauseRef: "Section 9", Text: "Appeals lie to the tribunal."},
		},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"Section 8(2)"}, result.ClauseCandidates)
	assert.Equal(t, 1.0, result.Confidence)
	require.NotEmpty(t, result.DetailedMatches)
	assert.Equal(t, clauselink.MatchExact, result.DetailedMatches[0].MatchType)
}

func TestLinkerServiceEmptyClauseSet(t *testing.T) {
	svc := NewLinkerService(0.3, 0.1, 5, zap.NewNop())

	result, err := svc.Link(context.Background(), &tools.LinkRequest{
		CommentText: "Any text at all.",
	})
	require.NoError(t, err)
	assert.Empty(t, result.ClauseCandidates)
	assert.Empty(t, result.DetailedMatches)
	assert.Zero(t, result.Confidence)
}

func TestLinkerServiceSemanticTier(t *testing.T) {
	svc := NewLinkerService(0.3, 0.1, 5, zap.NewNop())

	result, err := svc.Link(context.Background(), &tools.LinkRequest{
		CommentText:      "zzz qqq xxx", // no citations, no lexical overlap
		CommentEmbedding: []float32{1, 0},
		Clauses: []tools.ClauseInput{
			{ClauseRef: "Section 2", Text: "alpha beta gamma", Embedding: []float32{0.9, 0.1}},
		},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"Section 2"}, result.ClauseCandidates)
	assert.Equal(t, clauselink.MatchSemantic, result.DetailedMatches[0].MatchType)
	assert.Greater(t, result.Confidence, 0.3)
}

func TestLinkerServiceHealth(t *testing.T) {
	svc := NewLinkerService(0.3, 0.1, 5, zap.NewNop())
	assert.NoError(t, svc.Health(context.Background()))
}
