package models

import (
	"time"

	"github.com/google/uuid"
)

// Sentiment labels produced by the classify tool.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Stance labels: whether the comment supports, opposes, or is neutral toward
// the clause/draft it addresses.
const (
	StanceSupport = "support"
	StanceOppose  = "oppose"
	StanceNeutral = "neutral"
)

// Prediction holds the classification result for one processed comment.
// One-to-one with CommentProcessed by CommentID; overwritten on reprocess.
type Prediction struct {
	ID                 uuid.UUID `json:"id"`
	CommentID          uuid.UUID `json:"comment_id"`
	SentimentLabel     string    `json:"sentiment_label"`
	SentimentScore     float64   `json:"sentiment_score"`
	SentimentIntensity float64   `json:"sentiment_intensity"`
	Stance             string    `json:"stance"`
	Aspects            []string  `json:"aspects"`
	Confidence         float64   `json:"confidence"`
	ModelVersion       string    `json:"model_version"`
	CILow              *float64  `json:"ci_low,omitempty"`
	CIHigh             *float64  `json:"ci_high,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
