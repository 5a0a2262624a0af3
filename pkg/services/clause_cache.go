package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/neetimanthan/comment-engine/pkg/models"
	"github.com/neetimanthan/comment-engine/pkg/repositories"
)

// clauseCacheTTL bounds staleness if a draft's clauses are ever re-extracted.
const clauseCacheTTL = 30 * time.Minute

// ClauseService loads a draft's clause set for linking, with an optional
// Redis cache in front of the repository. Clauses are immutable once
// extracted, so the cache only needs invalidation on re-extraction.
type ClauseService struct {
	clauses repositories.ClauseRepository
	store   Store
	cache   *redis.Client // nil disables caching
	logger  *zap.Logger
}

// NewClauseService creates the clause provider. Pass a nil cache to read
// straight from the repository.
func NewClauseService(clauses repositories.ClauseRepository, store Store, cache *redis.Client, logger *zap.Logger) *ClauseService {
	return &ClauseService{
		clauses: clauses,
		store:   store,
		cache:   cache,
		logger:  logger.Named("clause_service"),
	}
}

var _ ClauseProvider = (*ClauseService)(nil)

func clauseCacheKey(draftID uuid.UUID) string {
	return fmt.Sprintf("clauses:%s", draftID)
}

// ClausesForDraft implements ClauseProvider. Cache failures degrade to a
// repository read; they are logged, never surfaced.
func (s *ClauseService) ClausesForDraft(ctx context.Context, draftID uuid.UUID) ([]*models.Clause, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, clauseCacheKey(draftID)).Bytes()
		if err == nil {
			var clauses []*models.Clause
			if err := json.Unmarshal(raw, &clauses); err == nil {
				return clauses, nil
			}
			s.logger.Warn("Discarding undecodable cached clause set",
				zap.String("draft_id", draftID.String()))
		} else if err != redis.Nil {
			s.logger.Warn("Clause cache read failed", zap.Error(err))
		}
	}

	clauses, err := s.clauses.ListByDraft(s.store.WithPool(ctx), draftID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(clauses); err == nil {
			if err := s.cache.Set(ctx, clauseCacheKey(draftID), raw, clauseCacheTTL).Err(); err != nil {
				s.logger.Warn("Clause cache write failed", zap.Error(err))
			}
		}
	}

	return clauses, nil
}

// Invalidate drops the cached clause set for a draft. Called after clause
// re-extraction.
func (s *ClauseService) Invalidate(ctx context.Context, draftID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, clauseCacheKey(draftID)).Err(); err != nil {
		s.logger.Warn("Clause cache invalidation failed",
			zap.String("draft_id", draftID.String()), zap.Error(err))
	}
}
