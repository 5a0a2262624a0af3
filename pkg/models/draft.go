package models

import (
	"time"

	"github.com/google/uuid"
)

// Draft is a regulatory text document open for public comment.
// Content is immutable after clause extraction; only metadata may change.
type Draft struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	TextURI   *string   `json:"text_uri,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
