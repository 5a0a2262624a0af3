package models

import (
	"time"

	"github.com/google/uuid"
)

// Audited entity types.
const (
	AuditEntityComment = "comment"
	AuditEntityDraft   = "draft"
)

// Audit change types.
const (
	AuditChangeLowConfidence = "low_confidence"
	AuditChangeReprocessed   = "reprocessed"
)

// AuditEntry is one record in the append-only audit log. The pipeline only
// ever inserts; entries are never updated or deleted.
type AuditEntry struct {
	ID         uuid.UUID      `json:"id"`
	Entity     string         `json:"entity"`
	EntityID   uuid.UUID      `json:"entity_id"`
	ChangeType string         `json:"change_type"`
	ChangeData map[string]any `json:"change_data,omitempty"`
	UserID     string         `json:"user_id,omitempty"`
	Reason     string         `json:"reason,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
