package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/neetimanthan/comment-engine/pkg/models"
	"github.com/neetimanthan/comment-engine/pkg/services"
)

// mockDraftService is a configurable mock for all handler tests.
type mockDraftService struct {
	draft   *models.Draft
	clauses []*models.Clause
	drafts  []*models.Draft
	err     error

	lastContent     string
	lastFilename    string
	lastContentType string
}

func (m *mockDraftService) CreateDraft(ctx context.Context, title string, textURI *string, content string) (*models.Draft, []*models.Clause, error) {
	m.lastContent = content
	if m.err != nil {
		return nil, nil, m.err
	}
	if m.draft != nil {
		return m.draft, m.clauses, nil
	}
	return &models.Draft{ID: uuid.New(), Title: title, Content: content}, m.clauses, nil
}

func (m *mockDraftService) CreateFromUpload(ctx context.Context, filename, title, contentType string, data []byte) (*models.Draft, []*models.Clause, error) {
	m.lastFilename = filename
	m.lastContentType = contentType
	return m.CreateDraft(ctx, title, nil, string(data))
}

func (m *mockDraftService) GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.draft != nil {
		return m.draft, nil
	}
	return &models.Draft{ID: id, Title: "Test Draft"}, nil
}

func (m *mockDraftService) ListDrafts(ctx context.Context, limit, offset int) ([]*models.Draft, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.drafts, nil
}

func (m *mockDraftService) GetClauses(ctx context.Context, draftID uuid.UUID) ([]*models.Clause, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.clauses, nil
}

// mockCommentService is a configurable mock for all handler tests.
type mockCommentService struct {
	comment  *models.CommentWithAnalysis
	comments []*models.CommentWithAnalysis
	bulkIDs  []uuid.UUID
	err      error

	lastFilter      *models.CommentFilter
	lastForce       bool
	reprocessCalls  int
	deleteCalls     int
	lastCSV         []byte
	lastBulkDraftID uuid.UUID
}

func (m *mockCommentService) CreateComment(ctx context.Context, draftID uuid.UUID, text string, userMeta map[string]string) (*models.CommentRaw, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.CommentRaw{ID: uuid.New(), DraftID: draftID, TextRaw: text, UserMeta: userMeta}, nil
}

func (m *mockCommentService) CreateBulk(ctx context.Context, draftID uuid.UUID, items []services.BulkCommentItem) ([]uuid.UUID, error) {
	m.lastBulkDraftID = draftID
	if m.err != nil {
		return nil, m.err
	}
	if m.bulkIDs != nil {
		return m.bulkIDs, nil
	}
	ids := make([]uuid.UUID, len(items))
	for i := range items {
		ids[i] = uuid.New()
	}
	return ids, nil
}

func (m *mockCommentService) CreateFromCSV(ctx context.Context, draftID uuid.UUID, data []byte) ([]uuid.UUID, error) {
	m.lastCSV = data
	if m.err != nil {
		return nil, m.err
	}
	return m.bulkIDs, nil
}

func (m *mockCommentService) GetComment(ctx context.Context, id uuid.UUID) (*models.CommentWithAnalysis, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.comment != nil {
		return m.comment, nil
	}
	return &models.CommentWithAnalysis{Comment: &models.CommentRaw{ID: id}}, nil
}

func (m *mockCommentService) ListComments(ctx context.Context, filter *models.CommentFilter) ([]*models.CommentWithAnalysis, error) {
	m.lastFilter = filter
	if m.err != nil {
		return nil, m.err
	}
	return m.comments, nil
}

func (m *mockCommentService) Reprocess(ctx context.Context, id uuid.UUID) error {
	m.reprocessCalls++
	return m.err
}

func (m *mockCommentService) DeleteComment(ctx context.Context, id uuid.UUID) error {
	m.deleteCalls++
	return m.err
}

// mockAuditReader is a configurable mock for all handler tests.
type mockAuditReader struct {
	entries []*models.AuditEntry
	err     error

	lastEntityID uuid.UUID
}

func (m *mockAuditReader) History(ctx context.Context, entityID uuid.UUID, limit int) ([]*models.AuditEntry, error) {
	m.lastEntityID = entityID
	if m.err != nil {
		return nil, m.err
	}
	return m.entries, nil
}

// mockAnalyticsService is a configurable mock for all handler tests.
type mockAnalyticsService struct {
	summary  *models.DraftAnalytics
	keywords []*models.Keyword
	clusters []*models.CommentCluster
	err      error

	lastLimit int
}

func (m *mockAnalyticsService) DraftSummary(ctx context.Context, draftID uuid.UUID) (*models.DraftAnalytics, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.summary != nil {
		return m.summary, nil
	}
	return &models.DraftAnalytics{DraftID: draftID}, nil
}

func (m *mockAnalyticsService) Keywords(ctx context.Context, draftID uuid.UUID, limit int) ([]*models.Keyword, error) {
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	return m.keywords, nil
}

func (m *mockAnalyticsService) Clusters(ctx context.Context, draftID uuid.UUID) ([]*models.CommentCluster, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.clusters, nil
}
