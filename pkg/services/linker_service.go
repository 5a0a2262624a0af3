package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/neetimanthan/comment-engine/pkg/clauselink"
	"github.com/neetimanthan/comment-engine/pkg/models"
	"github.com/neetimanthan/comment-engine/pkg/tools"
)

// LinkerService runs the clause-linking cascade in-process. It satisfies the
// same interface as the remote linker client, so deployments choose between
// them with configuration alone.
type LinkerService struct {
	linker *clauselink.Linker
	logger *zap.Logger
}

// NewLinkerService creates an in-process clause linker with the given tier
// thresholds and candidate cap.
func NewLinkerService(semanticThreshold, fuzzyThreshold float64, maxCandidates int, logger *zap.Logger) *LinkerService {
	return &LinkerService{
		linker: clauselink.NewLinker(semanticThreshold, fuzzyThreshold, maxCandidates),
		logger: logger.Named("linker_service"),
	}
}

var _ tools.ClauseLinker = (*LinkerService)(nil)

// Link implements tools.ClauseLinker.
func (s *LinkerService) Link(ctx context.Context, req *tools.LinkRequest) (*tools.LinkResult, error) {
	clauses := make([]*models.Clause, 0, len(req.Clauses))
	for i := range req.Clauses {
		clauses = append(clauses, &models.Clause{
			Ref:       req.Clauses[i].ClauseRef,
			Text:      req.Clauses[i].Text,
			Embedding: req.Clauses[i].Embedding,
		})
	}

	result := s.linker.Link(req.CommentText, req.CommentEmbedding, clauses)

	matches := make([]tools.ClauseMatch, 0, len(result.Matches))
	for _, m := range result.Matches {
		matches = append(matches, tools.ClauseMatch{
			ClauseRef:       m.ClauseRef,
			SimilarityScore: m.Score,
			MatchType:       m.MatchType,
			ClauseText:      m.ClauseText,
		})
	}

	s.logger.Debug("Clause linking complete",
		zap.Strings("candidates", result.CandidateRefs),
		zap.Float64("confidence", result.Confidence))

	return &tools.LinkResult{
		ClauseCandidates: result.CandidateRefs,
		DetailedMatches:  matches,
		Confidence:       result.Confidence,
	}, nil
}

// Health implements tools.ClauseLinker. The in-process linker has no
// dependencies to probe.
func (s *LinkerService) Health(ctx context.Context) error {
	return nil
}
