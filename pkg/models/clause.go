package models

import (
	"time"

	"github.com/google/uuid"
)

// Clause extraction methods recorded when a draft is split into clauses.
const (
	ClauseExtractionRegex        = "regex"
	ClauseExtractionParagraph    = "paragraph"
	ClauseExtractionFullDocument = "full_document"
)

// Clause is a locatable unit of a draft (section, rule, sub-clause).
// Ref is the human-readable locator, e.g. "Section 8(2)(b)". It is unique
// per draft by convention, not globally.
type Clause struct {
	ID               uuid.UUID `json:"id"`
	DraftID          uuid.UUID `json:"draft_id"`
	Ref              string    `json:"ref"`
	Text             string    `json:"text"`
	Embedding        []float32 `json:"embedding,omitempty"`
	ExtractionMethod string    `json:"extraction_method,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
