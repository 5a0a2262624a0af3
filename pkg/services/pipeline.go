package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neetimanthan/comment-engine/pkg/apperrors"
	"github.com/neetimanthan/comment-engine/pkg/models"
	"github.com/neetimanthan/comment-engine/pkg/repositories"
	"github.com/neetimanthan/comment-engine/pkg/tools"
)

// ClauseProvider supplies the clause set of a draft for linking. Clauses are
// immutable after extraction, so implementations may cache.
type ClauseProvider interface {
	ClausesForDraft(ctx context.Context, draftID uuid.UUID) ([]*models.Clause, error)
}

// PostRunScheduler schedules the fire-and-forget post-processing jobs
// (deduplication, keyword extraction) after a successful pipeline run.
type PostRunScheduler interface {
	SchedulePostProcessing(draftID uuid.UUID)
}

// PipelineDeps collects everything a Pipeline needs. All fields are required
// except Scheduler, which may be nil to disable post-processing hand-off.
type PipelineDeps struct {
	Store       Store
	Comments    repositories.CommentRepository
	Processed   repositories.ProcessedRepository
	Predictions repositories.PredictionRepository
	Summaries   repositories.SummaryRepository
	Audits      repositories.AuditRepository
	Clauses     ClauseProvider
	Ingester    tools.Ingester
	Linker      tools.ClauseLinker
	Classifier  tools.Classifier
	Summarizer  tools.Summarizer
	Scheduler   PostRunScheduler

	ConfidenceThreshold float64
	Logger              *zap.Logger
}

// Pipeline orchestrates the per-comment analysis run: ingest, clause linking,
// classification, quality gate, summarization, persistence, and post-run
// hand-off. One Process call is one run; runs for different comments may
// execute concurrently, runs for the same comment are serialized by a
// per-comment advisory lock.
type Pipeline struct {
	store       Store
	comments    repositories.CommentRepository
	processed   repositories.ProcessedRepository
	predictions repositories.PredictionRepository
	summaries   repositories.SummaryRepository
	audits      repositories.AuditRepository
	clauses     ClauseProvider
	ingester    tools.Ingester
	linker      tools.ClauseLinker
	classifier  tools.Classifier
	summarizer  tools.Summarizer
	scheduler   PostRunScheduler

	confidenceThreshold float64
	logger              *zap.Logger
}

// NewPipeline creates the orchestrator.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		store:               deps.Store,
		comments:            deps.Comments,
		processed:           deps.Processed,
		predictions:         deps.Predictions,
		summaries:           deps.Summaries,
		audits:              deps.Audits,
		clauses:             deps.Clauses,
		ingester:            deps.Ingester,
		linker:              deps.Linker,
		classifier:          deps.Classifier,
		summarizer:          deps.Summarizer,
		scheduler:           deps.Scheduler,
		confidenceThreshold: deps.ConfidenceThreshold,
		logger:              deps.Logger.Named("pipeline"),
	}
}

// Process runs the full analysis pipeline for one comment.
//
// Business failures (a tool refusing or timing out) come back as an Error
// outcome with a nil error; the returned outcome is terminal and must not be
// retried blindly. A non-nil error means something unexpected happened below
// the business layer (storage, lock acquisition) and the call is safe to
// retry, except for apperrors.ErrCommentNotFound which will never succeed.
func (p *Pipeline) Process(ctx context.Context, commentID uuid.UUID, forceReprocess bool) (*models.Outcome, error) {
	lock, err := p.store.LockComment(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("acquiring comment lock: %w", err)
	}
	defer lock.Close()

	poolCtx := p.store.WithPool(ctx)

	comment, err := p.comments.GetByID(poolCtx, commentID)
	if err != nil {
		return nil, err
	}

	logger := p.logger.With(
		zap.String("comment_id", commentID.String()),
		zap.String("draft_id", comment.DraftID.String()))
	logger.Info("Starting comment processing", zap.Bool("force_reprocess", forceReprocess))

	existing, err := p.processed.GetByCommentID(poolCtx, commentID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("checking processed state: %w", err)
	}
	if existing != nil && !forceReprocess {
		logger.Info("Comment already processed")
		return models.AlreadyProcessedOutcome(commentID), nil
	}
	wasProcessed := existing != nil

	// Stage 1: ingest. Fatal on failure; nothing has been written yet.
	ingest, err := p.ingester.Process(ctx, comment.TextRaw)
	if err != nil {
		logger.Error("Ingest stage failed", zap.String("stage", models.StageIngest), zap.Error(err))
		return models.ErrorOutcome(commentID, models.StageIngest, err.Error()), nil
	}

	piiMasked := ingest.PIIMasked
	if piiMasked == "" {
		piiMasked = comment.TextRaw
	}
	normalized := ingest.NormalizedText
	if normalized == "" {
		normalized = piiMasked
	}
	var lang *string
	if ingest.Language != "" {
		lang = &ingest.Language
	}

	// Stage 2: clause linking against the draft's clause set. An empty
	// candidate list is a normal outcome; a linker failure is fatal.
	clauseSet, err := p.clauses.ClausesForDraft(poolCtx, comment.DraftID)
	if err != nil {
		return nil, fmt.Errorf("loading clause set: %w", err)
	}

	linkResult, err := p.linker.Link(ctx, &tools.LinkRequest{
		CommentText:      piiMasked,
		DraftID:          comment.DraftID,
		CommentEmbedding: ingest.Embedding,
		Clauses:          clauseInputs(clauseSet),
	})
	if err != nil {
		logger.Error("Clause link stage failed", zap.String("stage", models.StageClauseLink), zap.Error(err))
		return models.ErrorOutcome(commentID, models.StageClauseLink, err.Error()), nil
	}
	clauseGuesses := linkResult.ClauseCandidates
	if clauseGuesses == nil {
		clauseGuesses = []string{}
	}

	// Persist intermediate state before classification so a classify failure
	// does not lose the linking work.
	err = p.store.InTx(ctx, func(txCtx context.Context) error {
		if err := p.comments.UpdateIngestResult(txCtx, commentID, piiMasked, lang); err != nil {
			return err
		}
		return p.processed.Upsert(txCtx, &models.CommentProcessed{
			CommentID:      commentID,
			TextNormalized: normalized,
			ClauseGuesses:  clauseGuesses,
			Embedding:      ingest.Embedding,
		})
	})
	if err != nil {
		logger.Error("Persisting intermediate state failed",
			zap.String("stage", models.StagePersist), zap.Error(err))
		return nil, fmt.Errorf("persisting intermediate state: %w", err)
	}

	// Stage 3: classify. Fatal on failure; the processed row above survives,
	// so a later retry without force reports already_processed.
	classification, err := p.classifier.Classify(ctx, normalized, ingest.Language)
	if err != nil {
		logger.Error("Classify stage failed", zap.String("stage", models.StageClassify), zap.Error(err))
		return models.ErrorOutcome(commentID, models.StageClassify, err.Error()), nil
	}
	confidence := classification.Confidence

	// Stage 4: quality gate. Below-threshold confidence is advisory, not
	// fatal; the prediction is persisted either way. Equal-to-threshold
	// passes.
	gatePassed := confidence >= p.confidenceThreshold
	if !gatePassed {
		logger.Warn("Low confidence prediction",
			zap.Float64("confidence", confidence),
			zap.Float64("threshold", p.confidenceThreshold))
	}

	// Stage 5: summarize, only when the gate passed or a human forced the
	// run. Failure here is swallowed; summaries are best-effort.
	var summary *tools.SummaryResult
	if gatePassed || forceReprocess {
		clauseRef := ""
		if len(clauseGuesses) > 0 {
			clauseRef = clauseGuesses[0]
		}
		summary, err = p.summarizer.Summarize(ctx, normalized, clauseRef)
		if err != nil {
			logger.Warn("Summarize stage failed, continuing without summary",
				zap.String("stage", models.StageSummarize), zap.Error(err))
			summary = nil
		}
	}

	// Commit prediction, audit entries and summary atomically.
	err = p.store.InTx(ctx, func(txCtx context.Context) error {
		if err := p.predictions.Upsert(txCtx, &models.Prediction{
			CommentID:          commentID,
			SentimentLabel:     classification.SentimentLabel,
			SentimentScore:     classification.SentimentScore,
			SentimentIntensity: classification.SentimentIntensity,
			Stance:             classification.Stance,
			Aspects:            classification.Aspects,
			Confidence:         confidence,
			ModelVersion:       classification.ModelVersion,
			CILow:              classification.CILow,
			CIHigh:             classification.CIHigh,
		}); err != nil {
			return err
		}

		if !gatePassed {
			if err := p.audits.Create(txCtx, &models.AuditEntry{
				Entity:     models.AuditEntityComment,
				EntityID:   commentID,
				ChangeType: models.AuditChangeLowConfidence,
				ChangeData: map[string]any{
					"confidence": confidence,
					"threshold":  p.confidenceThreshold,
				},
				UserID: "system",
			}); err != nil {
				return err
			}
		}

		if forceReprocess && wasProcessed {
			if err := p.audits.Create(txCtx, &models.AuditEntry{
				Entity:     models.AuditEntityComment,
				EntityID:   commentID,
				ChangeType: models.AuditChangeReprocessed,
				ChangeData: map[string]any{"confidence": confidence},
				UserID:     "system",
			}); err != nil {
				return err
			}
		}

		if summary != nil {
			return p.summaries.Upsert(txCtx, &models.Summary{
				CommentID:    commentID,
				SummaryText:  summary.Summary,
				Confidence:   summary.Confidence,
				ModelVersion: summary.ModelVersion,
			})
		}
		return nil
	})
	if err != nil {
		logger.Error("Persisting results failed",
			zap.String("stage", models.StagePersist), zap.Error(err))
		return nil, fmt.Errorf("persisting results: %w", err)
	}

	if p.scheduler != nil {
		p.scheduler.SchedulePostProcessing(comment.DraftID)
	}

	logger.Info("Comment processing completed",
		zap.Float64("confidence", confidence),
		zap.String("sentiment", classification.SentimentLabel),
		zap.String("stance", classification.Stance),
		zap.Int("clause_guesses", len(clauseGuesses)))

	return models.SuccessOutcome(
		commentID,
		confidence,
		classification.SentimentLabel,
		classification.Stance,
		clauseGuesses,
	), nil
}

func clauseInputs(clauses []*models.Clause) []tools.ClauseInput {
	inputs := make([]tools.ClauseInput, 0, len(clauses))
	for _, clause := range clauses {
		inputs = append(inputs, tools.ClauseInput{
			ClauseRef: clause.Ref,
			Text:      clause.Text,
			Embedding: clause.Embedding,
		})
	}
	return inputs
}
