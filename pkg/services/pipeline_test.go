package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/neetimanthan/comment-engine/pkg/apperrors"
	"github.com/neetimanthan/comment-engine/pkg/models"
	"github.com/neetimanthan/comment-engine/pkg/tools"
)

type pipelineFixture struct {
	pipeline *Pipeline

	store       *memStore
	comments    *memCommentRepo
	processed   *memProcessedRepo
	predictions *memPredictionRepo
	summaries   *memSummaryRepo
	audits      *memAuditRepo
	clauses     *staticClauseProvider
	scheduler   *recordingScheduler

	ingester   *tools.MockIngester
	linker     *tools.MockClauseLinker
	classifier *tools.MockClassifier
	summarizer *tools.MockSummarizer

	draftID   uuid.UUID
	commentID uuid.UUID
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()

	f := &pipelineFixture{
		store:       &memStore{},
		comments:    newMemCommentRepo(),
		processed:   newMemProcessedRepo(),
		predictions: newMemPredictionRepo(),
		summaries:   newMemSummaryRepo(),
		audits:      &memAuditRepo{},
		clauses:     &staticClauseProvider{},
		scheduler:   &recordingScheduler{},
		ingester:    &tools.MockIngester{},
		linker:      &tools.MockClauseLinker{},
		classifier:  &tools.MockClassifier{},
		summarizer:  &tools.MockSummarizer{},
		draftID:     uuid.New(),
		commentID:   uuid.New(),
	}

	err := f.comments.Create(context.Background(), &models.CommentRaw{
		ID:      f.commentID,
		DraftID: f.draftID,
		TextRaw: "I object to Section 8(2), the deadline is too short. Call me at 555-0100.",
	})
	require.NoError(t, err)

	f.pipeline = NewPipeline(PipelineDeps{
		Store:               f.store,
		Comments:            f.comments,
		Processed:           f.processed,
		Predictions:         f.predictions,
		Summaries:           f.summaries,
		Audits:              f.audits,
		Clauses:             f.clauses,
		Ingester:            f.ingester,
		Linker:              f.linker,
		Classifier:          f.classifier,
		Summarizer:          f.summarizer,
		Scheduler:           f.scheduler,
		ConfidenceThreshold: 0.7,
		Logger:              zap.NewNop(),
	})
	return f
}

func TestPipelineProcessSuccess(t *testing.T) {
	f := newPipelineFixture(t)

	f.ingester.ProcessFunc = func(ctx context.Context, text string) (*tools.IngestResult, error) {
		return &tools.IngestResult{
			PIIMasked:      "I object to Section 8(2), the deadline is too short. Call me at [PHONE].",
			Language:       "en",
			NormalizedText: "i object to section 8(2), the deadline is too short.",
			Embedding:      []float32{0.1, 0.2, 0.3},
		}, nil
	}
	f.linker.LinkFunc = func(ctx context.Context, req *tools.LinkRequest) (*tools.LinkResult, error) {
		return &tools.LinkResult{ClauseCandidates: []string{"Section 8(2)"}, Confidence: 1.0}, nil
	}
	f.classifier.ClassifyFunc = func(ctx context.Context, text, language string) (*tools.Classification, error) {
		return &tools.Classification{
			SentimentLabel: models.SentimentNegative,
			SentimentScore: -0.8,
			Stance:         models.StanceOppose,
			Confidence:     0.91,
			ModelVersion:   "classifier-v2",
		}, nil
	}

	outcome, err := f.pipeline.Process(context.Background(), f.commentID, false)
	require.NoError(t, err)
	require.Equal(t, models.OutcomeSuccess, outcome.Status)
	assert.Equal(t, f.commentID, outcome.CommentID)
	assert.Equal(t, 0.91, outcome.Confidence)
	assert.Equal(t, models.SentimentNegative, outcome.Sentiment)
	assert.Equal(t, models.StanceOppose, outcome.Stance)
	assert.Equal(t, []string{"Section 8(2)"}, outcome.Clauses)

	// Ingest results written back onto the raw comment.
	comment, err := f.comments.GetByID(context.Background(), f.commentID)
	require.NoError(t, err)
	require.NotNil(t, comment.PIIMasked)
	assert.Contains(t, *comment.PIIMasked, "[PHONE]")
	require.NotNil(t, comment.Lang)
	assert.Equal(t, "en", *comment.Lang)

	// Intermediate and final rows persisted.
	processed, err := f.processed.GetByCommentID(context.Background(), f.commentID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Section 8(2)"}, processed.ClauseGuesses)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, processed.Embedding)

	prediction, err := f.predictions.GetByCommentID(context.Background(), f.commentID)
	require.NoError(t, err)
	assert.Equal(t, 0.91, prediction.Confidence)
	assert.Equal(t, "classifier-v2", prediction.ModelVersion)

	summary, err := f.summaries.GetByCommentID(context.Background(), f.commentID)
	require.NoError(t, err)
	assert.Equal(t, "mock summary", summary.SummaryText)

	// Gate passed, first run: no audit entries.
	assert.Empty(t, f.audits.entries)

	// Post-processing handed off to the owning draft.
	assert.Equal(t, []uuid.UUID{f.draftID}, f.scheduler.draftIDs)

	// Lock acquired and released.
	assert.Equal(t, 1, f.store.lockCalls)
	assert.Equal(t, 1, f.store.unlocks)
}

func TestPipelineProcessAlreadyProcessed(t *testing.T) {
	f := newPipelineFixture(t)

	err := f.processed.Upsert(context.Background(), &models.CommentProcessed{
		CommentID:      f.commentID,
		TextNormalized: "earlier run",
	})
	require.NoError(t, err)

	outcome, err := f.pipeline.Process(context.Background(), f.commentID, false)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAlreadyProcessed, outcome.Status)
	assert.Equal(t, f.commentID, outcome.CommentID)

	// No tool was invoked.
	assert.Zero(t, f.ingester.ProcessCalls)
	assert.Zero(t, f.linker.LinkCalls)
	assert.Zero(t, f.classifier.ClassifyCalls)
	assert.Zero(t, f.summarizer.SummarizeCalls)
	assert.Empty(t, f.scheduler.draftIDs)

	// Lock still released.
	assert.Equal(t, 1, f.store.unlocks)
}

func TestPipelineProcessForceReprocess(t *testing.T) {
	f := newPipelineFixture(t)

	ctx := context.Background()
	require.NoError(t, f.processed.Upsert(ctx, &models.CommentProcessed{
		CommentID:      f.commentID,
		TextNormalized: "earlier run",
		ClauseGuesses:  []string{"Section 1"},
	}))
	require.NoError(t, f.predictions.Upsert(ctx, &models.Prediction{
		CommentID:      f.commentID,
		SentimentLabel: models.SentimentPositive,
		Confidence:     0.95,
	}))

	// Low confidence: the forced run still summarizes and records both the
	// low_confidence and reprocessed audit entries.
	f.classifier.ClassifyFunc = func(ctx context.Context, text, language string) (*tools.Classification, error) {
		return &tools.Classification{
			SentimentLabel: models.SentimentNegative,
			Stance:         models.StanceOppose,
			Confidence:     0.4,
			ModelVersion:   "classifier-v2",
		}, nil
	}

	outcome, err := f.pipeline.Process(ctx, f.commentID, true)
	require.NoError(t, err)
	require.Equal(t, models.OutcomeSuccess, outcome.Status)

	assert.Equal(t, 1, f.summarizer.SummarizeCalls)
	_, err = f.summaries.GetByCommentID(ctx, f.commentID)
	assert.NoError(t, err)

	assert.Len(t, f.audits.byChangeType(models.AuditChangeLowConfidence), 1)
	assert.Len(t, f.audits.byChangeType(models.AuditChangeReprocessed), 1)

	// Overwrite, not duplicate: one row each, holding the latest values.
	assert.Len(t, f.processed.rows, 1)
	assert.Len(t, f.predictions.rows, 1)
	prediction, err := f.predictions.GetByCommentID(ctx, f.commentID)
	require.NoError(t, err)
	assert.Equal(t, models.SentimentNegative, prediction.SentimentLabel)
	assert.Equal(t, 0.4, prediction.Confidence)
}

func TestPipelineProcessCommentNotFound(t *testing.T) {
	f := newPipelineFixture(t)

	outcome, err := f.pipeline.Process(context.Background(), uuid.New(), false)
	assert.Nil(t, outcome)
	require.ErrorIs(t, err, apperrors.ErrCommentNotFound)
	assert.Zero(t, f.ingester.ProcessCalls)
	assert.Equal(t, 1, f.store.unlocks)
}

func TestPipelineProcessIngestFailure(t *testing.T) {
	f := newPipelineFixture(t)

	f.ingester.ProcessFunc = func(ctx context.Context, text string) (*tools.IngestResult, error) {
		return nil, &tools.ToolError{Tool: "ingest", Kind: tools.ErrKindUnreachable, Err: fmt.Errorf("connection refused")}
	}

	outcome, err := f.pipeline.Process(context.Background(), f.commentID, false)
	require.NoError(t, err)
	require.Equal(t, models.OutcomeError, outcome.Status)
	assert.Equal(t, models.StageIngest, outcome.Stage)
	assert.NotEmpty(t, outcome.Detail)

	// Nothing was written: no processed row, raw comment untouched.
	_, err = f.processed.GetByCommentID(context.Background(), f.commentID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	comment, err := f.comments.GetByID(context.Background(), f.commentID)
	require.NoError(t, err)
	assert.Nil(t, comment.PIIMasked)

	// Downstream stages never ran.
	assert.Zero(t, f.linker.LinkCalls)
	assert.Zero(t, f.classifier.ClassifyCalls)
	assert.Empty(t, f.scheduler.draftIDs)
}

func TestPipelineProcessLinkFailure(t *testing.T) {
	f := newPipelineFixture(t)

	f.linker.LinkFunc = func(ctx context.Context, req *tools.LinkRequest) (*tools.LinkResult, error) {
		return nil, &tools.ToolError{Tool: "clauselink", Kind: tools.ErrKindTimeout, Err: context.DeadlineExceeded}
	}

	outcome, err := f.pipeline.Process(context.Background(), f.commentID, false)
	require.NoError(t, err)
	require.Equal(t, models.OutcomeError, outcome.Status)
	assert.Equal(t, models.StageClauseLink, outcome.Stage)

	// The run aborted before the intermediate commit.
	_, err = f.processed.GetByCommentID(context.Background(), f.commentID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Zero(t, f.classifier.ClassifyCalls)
}

func TestPipelineProcessClassifyFailureLeavesProcessedRow(t *testing.T) {
	f := newPipelineFixture(t)

	f.classifier.ClassifyFunc = func(ctx context.Context, text, language string) (*tools.Classification, error) {
		return nil, &tools.ToolError{Tool: "classify", Kind: tools.ErrKindBadStatus, Status: 503, Err: fmt.Errorf("unexpected status 503")}
	}

	ctx := context.Background()
	outcome, err := f.pipeline.Process(ctx, f.commentID, false)
	require.NoError(t, err)
	require.Equal(t, models.OutcomeError, outcome.Status)
	assert.Equal(t, models.StageClassify, outcome.Stage)

	// The intermediate row is durable across the classify failure.
	_, err = f.processed.GetByCommentID(ctx, f.commentID)
	require.NoError(t, err)
	_, err = f.predictions.GetByCommentID(ctx, f.commentID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Zero(t, f.summarizer.SummarizeCalls)

	// A retry without force now reports already_processed; recovering
	// requires an explicit reprocess.
	outcome, err = f.pipeline.Process(ctx, f.commentID, false)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAlreadyProcessed, outcome.Status)
}

func TestPipelineQualityGateBoundary(t *testing.T) {
	tests := []struct {
		name        string
		confidence  float64
		wantSummary bool
		wantAudit   bool
	}{
		{name: "at threshold passes", confidence: 0.7, wantSummary: true, wantAudit: false},
		{name: "just below threshold", confidence: 0.699, wantSummary: false, wantAudit: true},
		{name: "well above threshold", confidence: 0.95, wantSummary: true, wantAudit: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPipelineFixture(t)
			f.classifier.ClassifyFunc = func(ctx context.Context, text, language string) (*tools.Classification, error) {
				return &tools.Classification{
					SentimentLabel: models.SentimentNeutral,
					Stance:         models.StanceNeutral,
					Confidence:     tt.confidence,
					ModelVersion:   "classifier-v2",
				}, nil
			}

			ctx := context.Background()
			outcome, err := f.pipeline.Process(ctx, f.commentID, false)
			require.NoError(t, err)
			require.Equal(t, models.OutcomeSuccess, outcome.Status)

			// The prediction is persisted regardless of the gate.
			_, err = f.predictions.GetByCommentID(ctx, f.commentID)
			require.NoError(t, err)

			if tt.wantSummary {
				assert.Equal(t, 1, f.summarizer.SummarizeCalls)
			} else {
				assert.Zero(t, f.summarizer.SummarizeCalls)
			}

			audits := f.audits.byChangeType(models.AuditChangeLowConfidence)
			if tt.wantAudit {
				require.Len(t, audits, 1)
				assert.Equal(t, tt.confidence, audits[0].ChangeData["confidence"])
				assert.Equal(t, 0.7, audits[0].ChangeData["threshold"])
				assert.Equal(t, "system", audits[0].UserID)
			} else {
				assert.Empty(t, audits)
			}
		})
	}
}

func TestPipelineSummarizeFailureSwallowed(t *testing.T) {
	f := newPipelineFixture(t)

	f.summarizer.SummarizeFunc = func(ctx context.Context, text, clauseRef string) (*tools.SummaryResult, error) {
		return nil, &tools.ToolError{Tool: "summarize", Kind: tools.ErrKindTimeout, Err: context.DeadlineExceeded}
	}

	ctx := context.Background()
	outcome, err := f.pipeline.Process(ctx, f.commentID, false)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSuccess, outcome.Status)

	// No summary row, but everything else committed.
	_, err = f.summaries.GetByCommentID(ctx, f.commentID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = f.predictions.GetByCommentID(ctx, f.commentID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{f.draftID}, f.scheduler.draftIDs)
}

func TestPipelineSummarizeUsesTopClauseGuess(t *testing.T) {
	f := newPipelineFixture(t)

	f.linker.LinkFunc = func(ctx context.Context, req *tools.LinkRequest) (*tools.LinkResult, error) {
		return &tools.LinkResult{ClauseCandidates: []string{"Section 8(2)", "Section 9"}, Confidence: 1.0}, nil
	}
	var gotClauseRef string
	f.summarizer.SummarizeFunc = func(ctx context.Context, text, clauseRef string) (*tools.SummaryResult, error) {
		gotClauseRef = clauseRef
		return &tools.SummaryResult{Summary: "s", Confidence: 0.9, ModelVersion: "m"}, nil
	}

	_, err := f.pipeline.Process(context.Background(), f.commentID, false)
	require.NoError(t, err)
	assert.Equal(t, "Section 8(2)", gotClauseRef)
}

func TestPipelineEmptyClauseCandidatesIsSuccess(t *testing.T) {
	f := newPipelineFixture(t)

	// Default mock linker returns no candidates.
	var gotClauseRef string
	f.summarizer.SummarizeFunc = func(ctx context.Context, text, clauseRef string) (*tools.SummaryResult, error) {
		gotClauseRef = clauseRef
		return &tools.SummaryResult{Summary: "s", Confidence: 0.9, ModelVersion: "m"}, nil
	}

	outcome, err := f.pipeline.Process(context.Background(), f.commentID, false)
	require.NoError(t, err)
	require.Equal(t, models.OutcomeSuccess, outcome.Status)
	assert.Empty(t, outcome.Clauses)
	assert.Equal(t, "", gotClauseRef)
}

func TestPipelineClauseSetPassedToLinker(t *testing.T) {
	f := newPipelineFixture(t)

	f.clauses.clauses = []*models.Clause{
		{DraftID: f.draftID, Ref: "Section 8(2)", Text: "Filing deadline shall be 30 days.", Embedding: []float32{1, 0}},
		{DraftID: f.draftID, Ref: "Section 9", Text: "Penalties for late filing."},
	}

	var gotReq *tools.LinkRequest
	f.linker.LinkFunc = func(ctx context.Context, req *tools.LinkRequest) (*tools.LinkResult, error) {
		gotReq = req
		return &tools.LinkResult{ClauseCandidates: []string{}, Confidence: 0}, nil
	}

	_, err := f.pipeline.Process(context.Background(), f.commentID, false)
	require.NoError(t, err)
	require.NotNil(t, gotReq)
	assert.Equal(t, f.draftID, gotReq.DraftID)
	require.Len(t, gotReq.Clauses, 2)
	assert.Equal(t, "Section 8(2)", gotReq.Clauses[0].ClauseRef)
	assert.Equal(t, []float32{1, 0}, gotReq.Clauses[0].Embedding)
	assert.Equal(t, 1, f.clauses.calls)
}

func TestPipelinePersistsFullClassification(t *testing.T) {
	f := newPipelineFixture(t)

	ciLow, ciHigh := 0.78, 0.88
	var gotLanguage string
	f.classifier.ClassifyFunc = func(ctx context.Context, text, language string) (*tools.Classification, error) {
		gotLanguage = language
		return &tools.Classification{
			SentimentLabel:     models.SentimentNegative,
			SentimentScore:     -0.8,
			SentimentIntensity: 0.65,
			Stance:             models.StanceOppose,
			Aspects:            []string{"deadline", "fees"},
			Confidence:         0.83,
			ModelVersion:       "classifier-v2",
			CILow:              &ciLow,
			CIHigh:             &ciHigh,
		}, nil
	}

	outcome, err := f.pipeline.Process(context.Background(), f.commentID, false)
	require.NoError(t, err)
	require.Equal(t, models.OutcomeSuccess, outcome.Status)

	// The classifier gets the language detected at ingest.
	assert.Equal(t, "en", gotLanguage)

	// Every classification field lands on the prediction row.
	prediction, err := f.predictions.GetByCommentID(context.Background(), f.commentID)
	require.NoError(t, err)
	assert.Equal(t, models.SentimentNegative, prediction.SentimentLabel)
	assert.Equal(t, -0.8, prediction.SentimentScore)
	assert.Equal(t, 0.65, prediction.SentimentIntensity)
	assert.Equal(t, models.StanceOppose, prediction.Stance)
	assert.Equal(t, []string{"deadline", "fees"}, prediction.Aspects)
	assert.Equal(t, 0.83, prediction.Confidence)
	require.NotNil(t, prediction.CILow)
	assert.Equal(t, 0.78, *prediction.CILow)
	require.NotNil(t, prediction.CIHigh)
	assert.Equal(t, 0.88, *prediction.CIHigh)
}

func TestPipelinePersistFailureIsRetriableError(t *testing.T) {
	f := newPipelineFixture(t)
	f.store.failTx = 1 // intermediate-state transaction

	outcome, err := f.pipeline.Process(context.Background(), f.commentID, false)
	assert.Nil(t, outcome)
	require.Error(t, err)
	assert.Zero(t, f.classifier.ClassifyCalls)
	assert.Equal(t, 1, f.store.unlocks)
}

func TestPipelineResultCommitFailure(t *testing.T) {
	f := newPipelineFixture(t)
	f.store.failTx = 2 // prediction/audit/summary transaction

	outcome, err := f.pipeline.Process(context.Background(), f.commentID, false)
	assert.Nil(t, outcome)
	require.Error(t, err)

	// No post-processing hand-off on a failed commit.
	assert.Empty(t, f.scheduler.draftIDs)
}
