package models

import (
	"time"

	"github.com/google/uuid"
)

// Keyword is a weighted term extracted per draft by the keyword job.
type Keyword struct {
	ID        uuid.UUID `json:"id"`
	DraftID   uuid.UUID `json:"draft_id"`
	Facet     string    `json:"facet"`
	Term      string    `json:"term"`
	Weight    float64   `json:"weight"`
	Frequency float64   `json:"frequency"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentCluster groups near-duplicate comments for a draft, produced by the
// deduplication job. MemberIDs includes the representative.
type CommentCluster struct {
	ID               uuid.UUID   `json:"id"`
	DraftID          uuid.UUID   `json:"draft_id"`
	ClusterID        int         `json:"cluster_id"`
	MemberIDs        []uuid.UUID `json:"member_ids"`
	RepresentativeID uuid.UUID   `json:"representative_id"`
	Size             int         `json:"size"`
	CreatedAt        time.Time   `json:"created_at"`
}

// DraftAnalytics is the per-draft aggregation view over pipeline outputs.
type DraftAnalytics struct {
	DraftID         uuid.UUID      `json:"draft_id"`
	TotalComments   int            `json:"total_comments"`
	ProcessedCount  int            `json:"processed_count"`
	SentimentCounts map[string]int `json:"sentiment_counts"`
	StanceCounts    map[string]int `json:"stance_counts"`
	ClauseCounts    map[string]int `json:"clause_counts"`
	AvgConfidence   float64        `json:"avg_confidence"`
	TopKeywords     []*Keyword     `json:"top_keywords,omitempty"`
}
