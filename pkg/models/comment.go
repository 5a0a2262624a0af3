package models

import (
	"time"

	"github.com/google/uuid"
)

// CommentRaw is a piece of public feedback as submitted by the intake path.
// Lang and PIIMasked are nullable until the ingest stage fills them in.
type CommentRaw struct {
	ID        uuid.UUID         `json:"id"`
	DraftID   uuid.UUID         `json:"draft_id"`
	TextRaw   string            `json:"text_raw"`
	UserMeta  map[string]string `json:"user_meta,omitempty"`
	Lang      *string           `json:"lang,omitempty"`
	PIIMasked *string           `json:"pii_masked,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// CommentProcessed holds the pipeline's durable intermediate state for one
// comment: normalized text, ordered clause guesses (most confident first) and
// the comment embedding. At most one row exists per CommentRaw; reprocessing
// overwrites in place.
type CommentProcessed struct {
	ID             uuid.UUID `json:"id"`
	CommentID      uuid.UUID `json:"comment_id"`
	TextNormalized string    `json:"text_normalized"`
	ClauseGuesses  []string  `json:"clause_guesses"`
	Embedding      []float32 `json:"embedding,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CommentFilter narrows comment listings. Zero values mean "no filter".
type CommentFilter struct {
	DraftID       *uuid.UUID
	Sentiment     string
	Stance        string
	ClauseRef     string
	MinConfidence *float64
	Offset        int
	Limit         int
}

// CommentWithAnalysis is a raw comment enriched with whatever analysis rows
// exist for it. Processed, Prediction and Summary are nil when the pipeline
// has not produced them yet.
type CommentWithAnalysis struct {
	Comment    *CommentRaw       `json:"comment"`
	Processed  *CommentProcessed `json:"processed,omitempty"`
	Prediction *Prediction       `json:"prediction,omitempty"`
	Summary    *Summary          `json:"summary,omitempty"`
}
