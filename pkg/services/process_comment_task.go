package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neetimanthan/comment-engine/pkg/models"
	"github.com/neetimanthan/comment-engine/pkg/services/workqueue"
)

// Dispatcher puts pipeline runs on the work queue. It is the ProcessEnqueuer
// used by the intake path.
type Dispatcher struct {
	queue    *workqueue.Queue
	pipeline *Pipeline
	audits   *AuditService
	logger   *zap.Logger
}

// NewDispatcher creates a Dispatcher. The audit service may be nil; terminal
// pipeline errors are then only logged, not audited.
func NewDispatcher(queue *workqueue.Queue, pipeline *Pipeline, audits *AuditService, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{queue: queue, pipeline: pipeline, audits: audits, logger: logger}
}

var _ ProcessEnqueuer = (*Dispatcher)(nil)

// EnqueueProcess implements ProcessEnqueuer.
func (d *Dispatcher) EnqueueProcess(commentID uuid.UUID, forceReprocess bool) {
	d.queue.Enqueue(NewProcessCommentTask(d.pipeline, d.audits, commentID, forceReprocess, d.logger))
}

// ProcessCommentTask runs the analysis pipeline for one comment on the work
// queue. Business failures (an Error outcome) are terminal: the task reports
// success to the queue so it is not retried, because the per-stage taxonomy
// already decided the failure is not transient. Unexpected errors propagate
// and the queue's retry policy applies.
type ProcessCommentTask struct {
	workqueue.BaseTask

	pipeline       *Pipeline
	audits         *AuditService
	commentID      uuid.UUID
	forceReprocess bool
	logger         *zap.Logger

	// Outcome holds the pipeline's verdict after Execute returns. Read-only
	// for callers, and only valid once the task completes.
	Outcome *models.Outcome
}

// NewProcessCommentTask creates a queue task that processes one comment.
func NewProcessCommentTask(pipeline *Pipeline, audits *AuditService, commentID uuid.UUID, forceReprocess bool, logger *zap.Logger) *ProcessCommentTask {
	return &ProcessCommentTask{
		BaseTask:       workqueue.NewBaseTask(fmt.Sprintf("process_comment:%s", commentID), true),
		pipeline:       pipeline,
		audits:         audits,
		commentID:      commentID,
		forceReprocess: forceReprocess,
		logger:         logger.Named("process_comment_task"),
	}
}

var _ workqueue.Task = (*ProcessCommentTask)(nil)

// Execute implements workqueue.Task.
func (t *ProcessCommentTask) Execute(ctx context.Context, enqueuer workqueue.TaskEnqueuer) error {
	outcome, err := t.pipeline.Process(ctx, t.commentID, t.forceReprocess)
	if err != nil {
		return err
	}
	t.Outcome = outcome

	switch outcome.Status {
	case models.OutcomeError:
		t.logger.Error("Comment processing terminated",
			zap.String("comment_id", t.commentID.String()),
			zap.String("stage", outcome.Stage),
			zap.String("detail", outcome.Detail))
		if t.audits != nil {
			t.audits.Record(ctx, "comment", t.commentID, "pipeline_error", map[string]any{
				"stage":  outcome.Stage,
				"detail": outcome.Detail,
			}, "system")
		}
	case models.OutcomeAlreadyProcessed:
		t.logger.Debug("Comment already processed",
			zap.String("comment_id", t.commentID.String()))
	}
	return nil
}
