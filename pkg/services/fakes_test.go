package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/neetimanthan/comment-engine/pkg/apperrors"
	"github.com/neetimanthan/comment-engine/pkg/models"
	"github.com/neetimanthan/comment-engine/pkg/repositories"
)

// In-memory fakes shared by the service tests. They implement the repository
// interfaces directly, so the Store fake just passes contexts through.

type memStore struct {
	mu        sync.Mutex
	lockCalls int
	unlocks   int
	txCalls   int
	failTx    int // 1-based index of the InTx call that should fail, 0 = never
}

type memUnlocker struct {
	store *memStore
}

func (u *memUnlocker) Close() {
	u.store.mu.Lock()
	u.store.unlocks++
	u.store.mu.Unlock()
}

func (s *memStore) WithPool(ctx context.Context) context.Context {
	return ctx
}

func (s *memStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	s.txCalls++
	calls := s.txCalls
	s.mu.Unlock()
	if s.failTx != 0 && calls == s.failTx {
		return fmt.Errorf("transaction failed")
	}
	return fn(ctx)
}

func (s *memStore) LockComment(ctx context.Context, commentID uuid.UUID) (Unlocker, error) {
	s.mu.Lock()
	s.lockCalls++
	s.mu.Unlock()
	return &memUnlocker{store: s}, nil
}

var _ Store = (*memStore)(nil)

type memCommentRepo struct {
	comments map[uuid.UUID]*models.CommentRaw
}

func newMemCommentRepo() *memCommentRepo {
	return &memCommentRepo{comments: make(map[uuid.UUID]*models.CommentRaw)}
}

func (r *memCommentRepo) Create(ctx context.Context, comment *models.CommentRaw) error {
	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}
	r.comments[comment.ID] = comment
	return nil
}

func (r *memCommentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.CommentRaw, error) {
	comment, ok := r.comments[id]
	if !ok {
		return nil, apperrors.ErrCommentNotFound
	}
	copied := *comment
	return &copied, nil
}

func (r *memCommentRepo) UpdateIngestResult(ctx context.Context, id uuid.UUID, piiMasked string, lang *string) error {
	comment, ok := r.comments[id]
	if !ok {
		return apperrors.ErrCommentNotFound
	}
	comment.PIIMasked = &piiMasked
	comment.Lang = lang
	return nil
}

func (r *memCommentRepo) List(ctx context.Context, filter *models.CommentFilter) ([]*models.CommentRaw, error) {
	var out []*models.CommentRaw
	for _, comment := range r.comments {
		if filter != nil && filter.DraftID != nil && comment.DraftID != *filter.DraftID {
			continue
		}
		out = append(out, comment)
	}
	return out, nil
}

func (r *memCommentRepo) ListIDsByDraft(ctx context.Context, draftID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id, comment := range r.comments {
		if comment.DraftID == draftID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *memCommentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.comments, id)
	return nil
}

var _ repositories.CommentRepository = (*memCommentRepo)(nil)

type memProcessedRepo struct {
	rows map[uuid.UUID]*models.CommentProcessed // keyed by comment id
}

func newMemProcessedRepo() *memProcessedRepo {
	return &memProcessedRepo{rows: make(map[uuid.UUID]*models.CommentProcessed)}
}

func (r *memProcessedRepo) Upsert(ctx context.Context, processed *models.CommentProcessed) error {
	copied := *processed
	if existing, ok := r.rows[processed.CommentID]; ok {
		copied.ID = existing.ID
	} else if copied.ID == uuid.Nil {
		copied.ID = uuid.New()
	}
	r.rows[processed.CommentID] = &copied
	return nil
}

func (r *memProcessedRepo) GetByCommentID(ctx context.Context, commentID uuid.UUID) (*models.CommentProcessed, error) {
	row, ok := r.rows[commentID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *row
	return &copied, nil
}

func (r *memProcessedRepo) ListByDraft(ctx context.Context, draftID uuid.UUID) ([]*models.CommentProcessed, error) {
	var out []*models.CommentProcessed
	for _, row := range r.rows {
		out = append(out, row)
	}
	return out, nil
}

func (r *memProcessedRepo) CountByDraft(ctx context.Context, draftID uuid.UUID) (int, error) {
	return len(r.rows), nil
}

func (r *memProcessedRepo) CountClausesByDraft(ctx context.Context, draftID uuid.UUID) (map[string]int, error) {
	counts := make(map[string]int)
	for _, row := range r.rows {
		for _, ref := range row.ClauseGuesses {
			counts[ref]++
		}
	}
	return counts, nil
}

var _ repositories.ProcessedRepository = (*memProcessedRepo)(nil)

type memPredictionRepo struct {
	rows map[uuid.UUID]*models.Prediction // keyed by comment id

	sentimentCounts []repositories.SentimentCount
	stanceCounts    []repositories.StanceCount
	avgConfidence   float64
}

func newMemPredictionRepo() *memPredictionRepo {
	return &memPredictionRepo{rows: make(map[uuid.UUID]*models.Prediction)}
}

func (r *memPredictionRepo) Upsert(ctx context.Context, prediction *models.Prediction) error {
	copied := *prediction
	if existing, ok := r.rows[prediction.CommentID]; ok {
		copied.ID = existing.ID
	} else if copied.ID == uuid.Nil {
		copied.ID = uuid.New()
	}
	r.rows[prediction.CommentID] = &copied
	return nil
}

func (r *memPredictionRepo) GetByCommentID(ctx context.Context, commentID uuid.UUID) (*models.Prediction, error) {
	row, ok := r.rows[commentID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *row
	return &copied, nil
}

func (r *memPredictionRepo) CountSentimentsByDraft(ctx context.Context, draftID uuid.UUID) ([]repositories.SentimentCount, error) {
	return r.sentimentCounts, nil
}

func (r *memPredictionRepo) CountStancesByDraft(ctx context.Context, draftID uuid.UUID) ([]repositories.StanceCount, error) {
	return r.stanceCounts, nil
}

func (r *memPredictionRepo) AverageConfidenceByDraft(ctx context.Context, draftID uuid.UUID) (float64, error) {
	return r.avgConfidence, nil
}

var _ repositories.PredictionRepository = (*memPredictionRepo)(nil)

type memSummaryRepo struct {
	rows map[uuid.UUID]*models.Summary // keyed by comment id
}

func newMemSummaryRepo() *memSummaryRepo {
	return &memSummaryRepo{rows: make(map[uuid.UUID]*models.Summary)}
}

func (r *memSummaryRepo) Upsert(ctx context.Context, summary *models.Summary) error {
	copied := *summary
	if existing, ok := r.rows[summary.CommentID]; ok {
		copied.ID = existing.ID
	} else if copied.ID == uuid.Nil {
		copied.ID = uuid.New()
	}
	r.rows[summary.CommentID] = &copied
	return nil
}

func (r *memSummaryRepo) GetByCommentID(ctx context.Context, commentID uuid.UUID) (*models.Summary, error) {
	row, ok := r.rows[commentID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *row
	return &copied, nil
}

var _ repositories.SummaryRepository = (*memSummaryRepo)(nil)

type memAuditRepo struct {
	entries []*models.AuditEntry
}

func (r *memAuditRepo) Create(ctx context.Context, entry *models.AuditEntry) error {
	copied := *entry
	if copied.ID == uuid.Nil {
		copied.ID = uuid.New()
	}
	r.entries = append(r.entries, &copied)
	return nil
}

func (r *memAuditRepo) ListByEntity(ctx context.Context, entityID uuid.UUID, limit int) ([]*models.AuditEntry, error) {
	var out []*models.AuditEntry
	for _, entry := range r.entries {
		if entry.EntityID == entityID {
			out = append(out, entry)
		}
	}
	return out, nil
}

// byChangeType filters recorded entries, for assertions.
func (r *memAuditRepo) byChangeType(changeType string) []*models.AuditEntry {
	var out []*models.AuditEntry
	for _, entry := range r.entries {
		if entry.ChangeType == changeType {
			out = append(out, entry)
		}
	}
	return out
}

var _ repositories.AuditRepository = (*memAuditRepo)(nil)

type memDraftRepo struct {
	drafts map[uuid.UUID]*models.Draft
}

func newMemDraftRepo() *memDraftRepo {
	return &memDraftRepo{drafts: make(map[uuid.UUID]*models.Draft)}
}

func (r *memDraftRepo) Create(ctx context.Context, draft *models.Draft) error {
	if draft.ID == uuid.Nil {
		draft.ID = uuid.New()
	}
	r.drafts[draft.ID] = draft
	return nil
}

func (r *memDraftRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
	draft, ok := r.drafts[id]
	if !ok {
		return nil, apperrors.ErrDraftNotFound
	}
	copied := *draft
	return &copied, nil
}

func (r *memDraftRepo) List(ctx context.Context, limit, offset int) ([]*models.Draft, error) {
	var out []*models.Draft
	for _, draft := range r.drafts {
		out = append(out, draft)
	}
	return out, nil
}

var _ repositories.DraftRepository = (*memDraftRepo)(nil)

type memClauseRepo struct {
	byDraft map[uuid.UUID][]*models.Clause
}

func newMemClauseRepo() *memClauseRepo {
	return &memClauseRepo{byDraft: make(map[uuid.UUID][]*models.Clause)}
}

func (r *memClauseRepo) CreateBatch(ctx context.Context, clauses []*models.Clause) error {
	for _, clause := range clauses {
		if clause.ID == uuid.Nil {
			clause.ID = uuid.New()
		}
		r.byDraft[clause.DraftID] = append(r.byDraft[clause.DraftID], clause)
	}
	return nil
}

func (r *memClauseRepo) ListByDraft(ctx context.Context, draftID uuid.UUID) ([]*models.Clause, error) {
	return r.byDraft[draftID], nil
}

func (r *memClauseRepo) DeleteByDraft(ctx context.Context, draftID uuid.UUID) error {
	delete(r.byDraft, draftID)
	return nil
}

var _ repositories.ClauseRepository = (*memClauseRepo)(nil)

type enqueueCall struct {
	commentID uuid.UUID
	force     bool
}

type recordingEnqueuer struct {
	calls []enqueueCall
}

func (e *recordingEnqueuer) EnqueueProcess(commentID uuid.UUID, forceReprocess bool) {
	e.calls = append(e.calls, enqueueCall{commentID: commentID, force: forceReprocess})
}

var _ ProcessEnqueuer = (*recordingEnqueuer)(nil)

type memClusterRepo struct {
	byDraft map[uuid.UUID][]*models.CommentCluster
}

func newMemClusterRepo() *memClusterRepo {
	return &memClusterRepo{byDraft: make(map[uuid.UUID][]*models.CommentCluster)}
}

func (r *memClusterRepo) ReplaceForDraft(ctx context.Context, draftID uuid.UUID, clusters []*models.CommentCluster) error {
	r.byDraft[draftID] = clusters
	return nil
}

func (r *memClusterRepo) ListByDraft(ctx context.Context, draftID uuid.UUID) ([]*models.CommentCluster, error) {
	return r.byDraft[draftID], nil
}

var _ repositories.ClusterRepository = (*memClusterRepo)(nil)

type memKeywordRepo struct {
	byDraft map[uuid.UUID][]*models.Keyword
}

func newMemKeywordRepo() *memKeywordRepo {
	return &memKeywordRepo{byDraft: make(map[uuid.UUID][]*models.Keyword)}
}

func (r *memKeywordRepo) ReplaceForDraft(ctx context.Context, draftID uuid.UUID, facet string, keywords []*models.Keyword) error {
	r.byDraft[draftID] = keywords
	return nil
}

func (r *memKeywordRepo) ListTopByDraft(ctx context.Context, draftID uuid.UUID, limit int) ([]*models.Keyword, error) {
	keywords := r.byDraft[draftID]
	if limit > 0 && len(keywords) > limit {
		keywords = keywords[:limit]
	}
	return keywords, nil
}

var _ repositories.KeywordRepository = (*memKeywordRepo)(nil)

type staticClauseProvider struct {
	clauses []*models.Clause
	err     error
	calls   int
}

func (p *staticClauseProvider) ClausesForDraft(ctx context.Context, draftID uuid.UUID) ([]*models.Clause, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.clauses, nil
}

var _ ClauseProvider = (*staticClauseProvider)(nil)

type recordingScheduler struct {
	mu       sync.Mutex
	draftIDs []uuid.UUID
}

func (s *recordingScheduler) SchedulePostProcessing(draftID uuid.UUID) {
	s.mu.Lock()
	s.draftIDs = append(s.draftIDs, draftID)
	s.mu.Unlock()
}

var _ PostRunScheduler = (*recordingScheduler)(nil)
