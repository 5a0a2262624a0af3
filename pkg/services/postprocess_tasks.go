package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neetimanthan/comment-engine/pkg/clauselink"
	"github.com/neetimanthan/comment-engine/pkg/models"
	"github.com/neetimanthan/comment-engine/pkg/repositories"
	"github.com/neetimanthan/comment-engine/pkg/services/workqueue"
	"github.com/neetimanthan/comment-engine/pkg/textutil"
)

// keywordFacet tags keywords extracted from comment text, as opposed to
// future facets like draft text.
const keywordFacet = "comments"

// maxDraftKeywords caps how many keywords are kept per draft.
const maxDraftKeywords = 20

// PostProcessor schedules the fire-and-forget jobs that run after a
// successful pipeline run: duplicate detection and keyword extraction over
// the owning draft. Both are data tasks; they never call the analysis tools.
type PostProcessor struct {
	queue     *workqueue.Queue
	store     Store
	processed repositories.ProcessedRepository
	clusters  repositories.ClusterRepository
	keywords  repositories.KeywordRepository

	dedupeSimilarity float64
	logger           *zap.Logger
}

// NewPostProcessor creates the post-run scheduler.
func NewPostProcessor(
	queue *workqueue.Queue,
	store Store,
	processed repositories.ProcessedRepository,
	clusters repositories.ClusterRepository,
	keywords repositories.KeywordRepository,
	dedupeSimilarity float64,
	logger *zap.Logger,
) *PostProcessor {
	return &PostProcessor{
		queue:            queue,
		store:            store,
		processed:        processed,
		clusters:         clusters,
		keywords:         keywords,
		dedupeSimilarity: dedupeSimilarity,
		logger:           logger,
	}
}

var _ PostRunScheduler = (*PostProcessor)(nil)

// SchedulePostProcessing implements PostRunScheduler.
func (p *PostProcessor) SchedulePostProcessing(draftID uuid.UUID) {
	p.queue.Enqueue(NewDedupeCommentsTask(p.store, p.processed, p.clusters, draftID, p.dedupeSimilarity, p.logger))
	p.queue.Enqueue(NewExtractKeywordsTask(p.store, p.processed, p.keywords, draftID, p.logger))
}

// DedupeCommentsTask groups near-duplicate comments of one draft by embedding
// similarity. Each run recomputes the clustering for the whole draft, so
// duplicate deliveries are harmless.
type DedupeCommentsTask struct {
	workqueue.BaseTask

	store     Store
	processed repositories.ProcessedRepository
	clusters  repositories.ClusterRepository
	draftID   uuid.UUID
	threshold float64
	logger    *zap.Logger
}

// NewDedupeCommentsTask creates a deduplication task for one draft.
func NewDedupeCommentsTask(
	store Store,
	processed repositories.ProcessedRepository,
	clusters repositories.ClusterRepository,
	draftID uuid.UUID,
	threshold float64,
	logger *zap.Logger,
) *DedupeCommentsTask {
	return &DedupeCommentsTask{
		BaseTask:  workqueue.NewBaseTask(fmt.Sprintf("dedupe_comments:%s", draftID), false),
		store:     store,
		processed: processed,
		clusters:  clusters,
		draftID:   draftID,
		threshold: threshold,
		logger:    logger.Named("dedupe_task"),
	}
}

var _ workqueue.Task = (*DedupeCommentsTask)(nil)

// Execute implements workqueue.Task.
func (t *DedupeCommentsTask) Execute(ctx context.Context, enqueuer workqueue.TaskEnqueuer) error {
	rows, err := t.processed.ListByDraft(t.store.WithPool(ctx), t.draftID)
	if err != nil {
		return fmt.Errorf("listing processed comments: %w", err)
	}

	clusters := clusterByEmbedding(rows, t.threshold)

	out := make([]*models.CommentCluster, 0, len(clusters))
	for i, members := range clusters {
		if len(members) < 2 {
			continue
		}
		out = append(out, &models.CommentCluster{
			DraftID:          t.draftID,
			ClusterID:        i + 1,
			MemberIDs:        members,
			RepresentativeID: members[0],
			Size:             len(members),
		})
	}

	err = t.store.InTx(ctx, func(txCtx context.Context) error {
		return t.clusters.ReplaceForDraft(txCtx, t.draftID, out)
	})
	if err != nil {
		return fmt.Errorf("replacing clusters: %w", err)
	}

	t.logger.Info("Deduplication complete",
		zap.String("draft_id", t.draftID.String()),
		zap.Int("comments", len(rows)),
		zap.Int("clusters", len(out)))
	return nil
}

// clusterByEmbedding greedily assigns each comment to the first cluster whose
// representative embedding is similar enough, else starts a new cluster.
// Comments without embeddings stay unclustered.
func clusterByEmbedding(rows []*models.CommentProcessed, threshold float64) [][]uuid.UUID {
	// Deterministic input order regardless of map/scan order upstream.
	sorted := make([]*models.CommentProcessed, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CommentID.String() < sorted[j].CommentID.String()
	})

	var members [][]uuid.UUID
	var representatives [][]float32

	for _, row := range sorted {
		if len(row.Embedding) == 0 {
			continue
		}
		assigned := false
		for i, rep := range representatives {
			if clauselink.CosineSimilarity(row.Embedding, rep) >= threshold {
				members[i] = append(members[i], row.CommentID)
				assigned = true
				break
			}
		}
		if !assigned {
			members = append(members, []uuid.UUID{row.CommentID})
			representatives = append(representatives, row.Embedding)
		}
	}

	return members
}

// ExtractKeywordsTask aggregates weighted keywords over all processed
// comments of a draft. Like deduplication, each run replaces the previous
// result wholesale.
type ExtractKeywordsTask struct {
	workqueue.BaseTask

	store     Store
	processed repositories.ProcessedRepository
	keywords  repositories.KeywordRepository
	draftID   uuid.UUID
	logger    *zap.Logger
}

// NewExtractKeywordsTask creates a keyword extraction task for one draft.
func NewExtractKeywordsTask(
	store Store,
	processed repositories.ProcessedRepository,
	keywords repositories.KeywordRepository,
	draftID uuid.UUID,
	logger *zap.Logger,
) *ExtractKeywordsTask {
	return &ExtractKeywordsTask{
		BaseTask:  workqueue.NewBaseTask(fmt.Sprintf("extract_keywords:%s", draftID), false),
		store:     store,
		processed: processed,
		keywords:  keywords,
		draftID:   draftID,
		logger:    logger.Named("keyword_task"),
	}
}

var _ workqueue.Task = (*ExtractKeywordsTask)(nil)

// Execute implements workqueue.Task.
func (t *ExtractKeywordsTask) Execute(ctx context.Context, enqueuer workqueue.TaskEnqueuer) error {
	rows, err := t.processed.ListByDraft(t.store.WithPool(ctx), t.draftID)
	if err != nil {
		return fmt.Errorf("listing processed comments: %w", err)
	}

	counts := make(map[string]int)
	total := 0
	for _, row := range rows {
		for _, kw := range textutil.ExtractKeywords(row.TextNormalized, maxDraftKeywords) {
			counts[kw.Term] += kw.Count
			total += kw.Count
		}
	}

	terms := make([]string, 0, len(counts))
	for term := range counts {
		terms = append(terms, term)
	}
	// Highest count first, alphabetical among ties.
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > maxDraftKeywords {
		terms = terms[:maxDraftKeywords]
	}

	out := make([]*models.Keyword, 0, len(terms))
	for _, term := range terms {
		weight := 0.0
		if total > 0 {
			weight = float64(counts[term]) / float64(total)
		}
		out = append(out, &models.Keyword{
			DraftID:   t.draftID,
			Facet:     keywordFacet,
			Term:      term,
			Weight:    weight,
			Frequency: float64(counts[term]),
		})
	}

	err = t.store.InTx(ctx, func(txCtx context.Context) error {
		return t.keywords.ReplaceForDraft(txCtx, t.draftID, keywordFacet, out)
	})
	if err != nil {
		return fmt.Errorf("replacing keywords: %w", err)
	}

	t.logger.Info("Keyword extraction complete",
		zap.String("draft_id", t.draftID.String()),
		zap.Int("keywords", len(out)))
	return nil
}
