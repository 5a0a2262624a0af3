package models

import "github.com/google/uuid"

// OutcomeStatus is the terminal status of one pipeline run.
type OutcomeStatus string

const (
	OutcomeAlreadyProcessed OutcomeStatus = "already_processed"
	OutcomeSuccess          OutcomeStatus = "success"
	OutcomeError            OutcomeStatus = "error"
)

// Pipeline stage names reported in error outcomes.
const (
	StageIngest     = "ingest"
	StageClauseLink = "clause_link"
	StageClassify   = "classify"
	StagePersist    = "persist"
	StageSummarize  = "summarize"
)

// Outcome is the structured result of one Process run for one comment.
// Exactly one of the three statuses applies: AlreadyProcessed carries only the
// comment id, Success carries the analysis fields, Error carries the failing
// stage and detail.
type Outcome struct {
	Status    OutcomeStatus `json:"status"`
	CommentID uuid.UUID     `json:"comment_id"`

	// Success fields
	Confidence float64  `json:"confidence,omitempty"`
	Sentiment  string   `json:"sentiment,omitempty"`
	Stance     string   `json:"stance,omitempty"`
	Clauses    []string `json:"clauses,omitempty"`

	// Error fields
	Stage  string `json:"stage,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// AlreadyProcessedOutcome reports that a comment was skipped because analysis
// rows already exist and reprocessing was not forced.
func AlreadyProcessedOutcome(commentID uuid.UUID) *Outcome {
	return &Outcome{Status: OutcomeAlreadyProcessed, CommentID: commentID}
}

// SuccessOutcome reports a completed run.
func SuccessOutcome(commentID uuid.UUID, confidence float64, sentiment, stance string, clauses []string) *Outcome {
	return &Outcome{
		Status:     OutcomeSuccess,
		CommentID:  commentID,
		Confidence: confidence,
		Sentiment:  sentiment,
		Stance:     stance,
		Clauses:    clauses,
	}
}

// ErrorOutcome reports a run that terminated at the named stage.
func ErrorOutcome(commentID uuid.UUID, stage, detail string) *Outcome {
	return &Outcome{
		Status:    OutcomeError,
		CommentID: commentID,
		Stage:     stage,
		Detail:    detail,
	}
}
