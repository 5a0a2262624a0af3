package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/neetimanthan/comment-engine/pkg/database"
	"github.com/neetimanthan/comment-engine/pkg/models"
)

// AuditRepository provides data access for the append-only audit log.
// There are no update or delete operations on purpose.
type AuditRepository interface {
	// Create appends an audit entry.
	Create(ctx context.Context, entry *models.AuditEntry) error

	// ListByEntity returns entries for one entity, newest first.
	ListByEntity(ctx context.Context, entityID uuid.UUID, limit int) ([]*models.AuditEntry, error)
}

type auditRepository struct{}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository() AuditRepository {
	return &auditRepository{}
}

var _ AuditRepository = (*auditRepository)(nil)

func (r *auditRepository) Create(ctx context.Context, entry *models.AuditEntry) error {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return fmt.Errorf("no database querier in context")
	}

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now()

	var changeDataJSON []byte
	var err error
	if len(entry.ChangeData) > 0 {
		changeDataJSON, err = json.Marshal(entry.ChangeData)
		if err != nil {
			return fmt.Errorf("failed to marshal change_data: %w", err)
		}
	}

	query := `
		INSERT INTO audits (id, entity, entity_id, change_type, change_data, user_id, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = q.Exec(ctx, query,
		entry.ID, entry.Entity, entry.EntityID, entry.ChangeType,
		changeDataJSON, nullableString(entry.UserID), nullableString(entry.Reason), entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create audit entry: %w", err)
	}

	return nil
}

func (r *auditRepository) ListByEntity(ctx context.Context, entityID uuid.UUID, limit int) ([]*models.AuditEntry, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no database querier in context")
	}

	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, entity, entity_id, change_type, change_data, user_id, reason, created_at
		FROM audits
		WHERE entity_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := q.Query(ctx, query, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.AuditEntry
	for rows.Next() {
		var entry models.AuditEntry
		var changeDataJSON []byte
		var userID, reason *string

		err := rows.Scan(
			&entry.ID, &entry.Entity, &entry.EntityID, &entry.ChangeType,
			&changeDataJSON, &userID, &reason, &entry.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}

		if len(changeDataJSON) > 0 && string(changeDataJSON) != "null" {
			if err := json.Unmarshal(changeDataJSON, &entry.ChangeData); err != nil {
				return nil, fmt.Errorf("failed to unmarshal change_data: %w", err)
			}
		}
		if userID != nil {
			entry.UserID = *userID
		}
		if reason != nil {
			entry.Reason = *reason
		}

		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit entries: %w", err)
	}

	return entries, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
