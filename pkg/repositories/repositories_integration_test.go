package repositories_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/neetimanthan/comment-engine/pkg/apperrors"
	"github.com/neetimanthan/comment-engine/pkg/models"
	"github.com/neetimanthan/comment-engine/pkg/repositories"
	"github.com/neetimanthan/comment-engine/pkg/testhelpers"
)

// seedDraft inserts a draft with two clauses and returns it.
func seedDraft(t *testing.T, ctx context.Context) *models.Draft {
	t.Helper()

	drafts := repositories.NewDraftRepository()
	clauses := repositories.NewClauseRepository()

	draft := &models.Draft{
		Title:   "Data Protection Rules",
		Content: "Section 1: Scope.\n\nSection 2: Definitions.",
	}
	if err := drafts.Create(ctx, draft); err != nil {
		t.Fatalf("failed to create draft: %v", err)
	}

	batch := []*models.Clause{
		{DraftID: draft.ID, Ref: "Section 1", Text: "Scope of these rules.", ExtractionMethod: "regex"},
		{DraftID: draft.ID, Ref: "Section 2", Text: "Definitions used in these rules.", ExtractionMethod: "regex"},
	}
	if err := clauses.CreateBatch(ctx, batch); err != nil {
		t.Fatalf("failed to create clauses: %v", err)
	}
	return draft
}

func TestDraftRepository_RoundTrip(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	tdb.TruncateAll(t)
	ctx := tdb.DB.WithPool(context.Background())

	draft := seedDraft(t, ctx)

	drafts := repositories.NewDraftRepository()
	got, err := drafts.GetByID(ctx, draft.ID)
	if err != nil {
		t.Fatalf("failed to get draft: %v", err)
	}
	if got.Title != draft.Title || got.Content != draft.Content {
		t.Errorf("draft did not round-trip: %+v", got)
	}

	if _, err := drafts.GetByID(ctx, uuid.New()); !errors.Is(err, apperrors.ErrDraftNotFound) {
		t.Errorf("expected ErrDraftNotFound, got %v", err)
	}

	list, err := drafts.List(ctx, 10, 0)
	if err != nil {
		t.Fatalf("failed to list drafts: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 draft, got %d", len(list))
	}

	clauses := repositories.NewClauseRepository()
	clauseList, err := clauses.ListByDraft(ctx, draft.ID)
	if err != nil {
		t.Fatalf("failed to list clauses: %v", err)
	}
	if len(clauseList) != 2 {
		t.Errorf("expected 2 clauses, got %d", len(clauseList))
	}
}

func TestCommentRepository_LifecycleAndCascade(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	tdb.TruncateAll(t)
	ctx := tdb.DB.WithPool(context.Background())

	draft := seedDraft(t, ctx)

	comments := repositories.NewCommentRepository()
	processed := repositories.NewProcessedRepository()

	comment := &models.CommentRaw{
		DraftID:  draft.ID,
		TextRaw:  "I object to Section 2. Call me at 555-0100.",
		UserMeta: map[string]string{"district": "north"},
	}
	if err := comments.Create(ctx, comment); err != nil {
		t.Fatalf("failed to create comment: %v", err)
	}

	lang := "en"
	if err := comments.UpdateIngestResult(ctx, comment.ID, "I object to Section 2. Call me at [PHONE].", &lang); err != nil {
		t.Fatalf("failed to update ingest result: %v", err)
	}

	got, err := comments.GetByID(ctx, comment.ID)
	if err != nil {
		t.Fatalf("failed to get comment: %v", err)
	}
	if got.PIIMasked == nil || *got.PIIMasked != "I object to Section 2. Call me at [PHONE]." {
		t.Errorf("unexpected masked text: %v", got.PIIMasked)
	}
	if got.Lang == nil || *got.Lang != "en" {
		t.Errorf("unexpected lang: %v", got.Lang)
	}
	if got.UserMeta["district"] != "north" {
		t.Errorf("unexpected user meta: %v", got.UserMeta)
	}

	row := &models.CommentProcessed{
		CommentID:      comment.ID,
		TextNormalized: "i object to section 2",
		ClauseGuesses:  []string{"Section 2"},
		Embedding:      []float32{0.1, 0.2},
	}
	if err := processed.Upsert(ctx, row); err != nil {
		t.Fatalf("failed to upsert processed row: %v", err)
	}

	// Deleting the raw comment cascades to the analysis rows.
	if err := comments.Delete(ctx, comment.ID); err != nil {
		t.Fatalf("failed to delete comment: %v", err)
	}
	if _, err := comments.GetByID(ctx, comment.ID); !errors.Is(err, apperrors.ErrCommentNotFound) {
		t.Errorf("expected ErrCommentNotFound, got %v", err)
	}
	if _, err := processed.GetByCommentID(ctx, comment.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected processed row to cascade, got %v", err)
	}
}

func TestProcessedRepository_UpsertOverwrites(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	tdb.TruncateAll(t)
	ctx := tdb.DB.WithPool(context.Background())

	draft := seedDraft(t, ctx)
	comments := repositories.NewCommentRepository()
	processed := repositories.NewProcessedRepository()

	comment := &models.CommentRaw{DraftID: draft.ID, TextRaw: "first pass"}
	if err := comments.Create(ctx, comment); err != nil {
		t.Fatalf("failed to create comment: %v", err)
	}

	first := &models.CommentProcessed{
		CommentID:      comment.ID,
		TextNormalized: "first pass",
		ClauseGuesses:  []string{"Section 1"},
	}
	if err := processed.Upsert(ctx, first); err != nil {
		t.Fatalf("failed to upsert: %v", err)
	}

	second := &models.CommentProcessed{
		CommentID:      comment.ID,
		TextNormalized: "second pass",
		ClauseGuesses:  []string{"Section 2"},
	}
	if err := processed.Upsert(ctx, second); err != nil {
		t.Fatalf("failed to upsert again: %v", err)
	}

	got, err := processed.GetByCommentID(ctx, comment.ID)
	if err != nil {
		t.Fatalf("failed to get processed row: %v", err)
	}
	if got.TextNormalized != "second pass" {
		t.Errorf("expected reprocess to overwrite, got '%s'", got.TextNormalized)
	}
	if len(got.ClauseGuesses) != 1 || got.ClauseGuesses[0] != "Section 2" {
		t.Errorf("unexpected clause guesses: %v", got.ClauseGuesses)
	}

	count, err := processed.CountByDraft(ctx, draft.ID)
	if err != nil {
		t.Fatalf("failed to count processed rows: %v", err)
	}
	if count != 1 {
		t.Errorf("expected one processed row after overwrite, got %d", count)
	}
}

func TestPredictionRepository_DraftAggregates(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	tdb.TruncateAll(t)
	ctx := tdb.DB.WithPool(context.Background())

	draft := seedDraft(t, ctx)
	comments := repositories.NewCommentRepository()
	predictions := repositories.NewPredictionRepository()

	seed := []struct {
		sentiment  string
		stance     string
		confidence float64
	}{
		{"negative", "oppose", 0.9},
		{"negative", "oppose", 0.8},
		{"positive", "support", 0.7},
	}
	for _, s := range seed {
		comment := &models.CommentRaw{DraftID: draft.ID, TextRaw: "some comment"}
		if err := comments.Create(ctx, comment); err != nil {
			t.Fatalf("failed to create comment: %v", err)
		}
		p := &models.Prediction{
			CommentID:      comment.ID,
			SentimentLabel: s.sentiment,
			Stance:         s.stance,
			Confidence:     s.confidence,
			ModelVersion:   "test-v1",
		}
		if err := predictions.Upsert(ctx, p); err != nil {
			t.Fatalf("failed to upsert prediction: %v", err)
		}
	}

	sentiments, err := predictions.CountSentimentsByDraft(ctx, draft.ID)
	if err != nil {
		t.Fatalf("failed to count sentiments: %v", err)
	}
	counts := map[string]int{}
	for _, sc := range sentiments {
		counts[sc.Sentiment] = sc.Count
	}
	if counts["negative"] != 2 || counts["positive"] != 1 {
		t.Errorf("unexpected sentiment counts: %v", counts)
	}

	avg, err := predictions.AverageConfidenceByDraft(ctx, draft.ID)
	if err != nil {
		t.Fatalf("failed to average confidence: %v", err)
	}
	if avg < 0.79 || avg > 0.81 {
		t.Errorf("expected average confidence ~0.8, got %f", avg)
	}
}

func TestPredictionRepository_FullRowRoundTrip(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	tdb.TruncateAll(t)
	ctx := tdb.DB.WithPool(context.Background())

	draft := seedDraft(t, ctx)
	comments := repositories.NewCommentRepository()
	predictions := repositories.NewPredictionRepository()

	comment := &models.CommentRaw{DraftID: draft.ID, TextRaw: "some comment"}
	if err := comments.Create(ctx, comment); err != nil {
		t.Fatalf("failed to create comment: %v", err)
	}

	ciLow, ciHigh := 0.75, 0.91
	p := &models.Prediction{
		CommentID:          comment.ID,
		SentimentLabel:     "negative",
		SentimentScore:     -0.6,
		SentimentIntensity: 0.72,
		Stance:             "oppose",
		Aspects:            []string{"deadline", "penalties"},
		Confidence:         0.83,
		ModelVersion:       "test-v1",
		CILow:              &ciLow,
		CIHigh:             &ciHigh,
	}
	if err := predictions.Upsert(ctx, p); err != nil {
		t.Fatalf("failed to upsert prediction: %v", err)
	}

	got, err := predictions.GetByCommentID(ctx, comment.ID)
	if err != nil {
		t.Fatalf("failed to get prediction: %v", err)
	}
	if got.SentimentIntensity != 0.72 {
		t.Errorf("expected sentiment intensity 0.72, got %f", got.SentimentIntensity)
	}
	if len(got.Aspects) != 2 || got.Aspects[0] != "deadline" || got.Aspects[1] != "penalties" {
		t.Errorf("unexpected aspects: %v", got.Aspects)
	}
	if got.CILow == nil || *got.CILow != 0.75 {
		t.Errorf("unexpected ci_low: %v", got.CILow)
	}
	if got.CIHigh == nil || *got.CIHigh != 0.91 {
		t.Errorf("unexpected ci_high: %v", got.CIHigh)
	}

	// Reprocessing overwrites in place, confidence interval included.
	p.Aspects = []string{"deadline"}
	p.CILow, p.CIHigh = nil, nil
	if err := predictions.Upsert(ctx, p); err != nil {
		t.Fatalf("failed to upsert prediction again: %v", err)
	}
	got, err = predictions.GetByCommentID(ctx, comment.ID)
	if err != nil {
		t.Fatalf("failed to get prediction after overwrite: %v", err)
	}
	if len(got.Aspects) != 1 || got.Aspects[0] != "deadline" {
		t.Errorf("unexpected aspects after overwrite: %v", got.Aspects)
	}
	if got.CILow != nil || got.CIHigh != nil {
		t.Errorf("expected cleared confidence interval, got %v %v", got.CILow, got.CIHigh)
	}
}

func TestKeywordAndClusterRepositories_Replace(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	tdb.TruncateAll(t)
	ctx := tdb.DB.WithPool(context.Background())

	draft := seedDraft(t, ctx)
	keywords := repositories.NewKeywordRepository()
	clusters := repositories.NewClusterRepository()

	kw := []*models.Keyword{
		{DraftID: draft.ID, Facet: "comments", Term: "deadline", Weight: 0.6, Frequency: 3},
		{DraftID: draft.ID, Facet: "comments", Term: "privacy", Weight: 0.4, Frequency: 2},
	}
	if err := keywords.ReplaceForDraft(ctx, draft.ID, "comments", kw); err != nil {
		t.Fatalf("failed to replace keywords: %v", err)
	}

	// Replacing again drops the previous set.
	if err := keywords.ReplaceForDraft(ctx, draft.ID, "comments", kw[:1]); err != nil {
		t.Fatalf("failed to replace keywords again: %v", err)
	}
	top, err := keywords.ListTopByDraft(ctx, draft.ID, 10)
	if err != nil {
		t.Fatalf("failed to list keywords: %v", err)
	}
	if len(top) != 1 || top[0].Term != "deadline" {
		t.Errorf("unexpected keywords after replace: %+v", top)
	}

	memberA, memberB := uuid.New(), uuid.New()
	cl := []*models.CommentCluster{
		{
			DraftID:          draft.ID,
			ClusterID:        1,
			MemberIDs:        []uuid.UUID{memberA, memberB},
			RepresentativeID: memberA,
			Size:             2,
		},
	}
	if err := clusters.ReplaceForDraft(ctx, draft.ID, cl); err != nil {
		t.Fatalf("failed to replace clusters: %v", err)
	}
	gotClusters, err := clusters.ListByDraft(ctx, draft.ID)
	if err != nil {
		t.Fatalf("failed to list clusters: %v", err)
	}
	if len(gotClusters) != 1 || gotClusters[0].Size != 2 {
		t.Errorf("unexpected clusters: %+v", gotClusters)
	}
}

func TestAuditRepository_History(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	tdb.TruncateAll(t)
	ctx := tdb.DB.WithPool(context.Background())

	audits := repositories.NewAuditRepository()
	entityID := uuid.New()

	entry := &models.AuditEntry{
		Entity:     "comment",
		EntityID:   entityID,
		ChangeType: "low_confidence",
		ChangeData: map[string]any{"confidence": 0.4, "threshold": 0.7},
		UserID:     "system",
	}
	if err := audits.Create(ctx, entry); err != nil {
		t.Fatalf("failed to create audit entry: %v", err)
	}

	history, err := audits.ListByEntity(ctx, entityID, 10)
	if err != nil {
		t.Fatalf("failed to list audit history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(history))
	}
	if history[0].ChangeType != "low_confidence" || history[0].UserID != "system" {
		t.Errorf("unexpected entry: %+v", history[0])
	}
	if history[0].ChangeData["threshold"] != 0.7 {
		t.Errorf("unexpected change data: %v", history[0].ChangeData)
	}
}
