package models

import (
	"time"

	"github.com/google/uuid"
)

// Summary is the neutral summary of a comment, created only when the quality
// gate passes (or a reprocess forces regeneration). One-to-one with
// CommentProcessed by CommentID; overwritten on reprocess.
type Summary struct {
	ID           uuid.UUID `json:"id"`
	CommentID    uuid.UUID `json:"comment_id"`
	SummaryText  string    `json:"summary_text"`
	Confidence   float64   `json:"confidence"`
	ModelVersion string    `json:"model_version"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
