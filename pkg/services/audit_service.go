package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neetimanthan/comment-engine/pkg/models"
	"github.com/neetimanthan/comment-engine/pkg/repositories"
)

// AuditService records audit entries outside the pipeline's transactions,
// for actions like manually triggered reprocessing. Failures are logged and
// swallowed: an audit write must never fail the operation it describes.
type AuditService struct {
	store  Store
	audits repositories.AuditRepository
	logger *zap.Logger
}

// NewAuditService creates the audit service.
func NewAuditService(store Store, audits repositories.AuditRepository, logger *zap.Logger) *AuditService {
	return &AuditService{
		store:  store,
		audits: audits,
		logger: logger.Named("audit_service"),
	}
}

// Record appends an audit entry, best effort.
func (s *AuditService) Record(ctx context.Context, entity string, entityID uuid.UUID, changeType string, changeData map[string]any, userID string) {
	err := s.audits.Create(s.store.WithPool(ctx), &models.AuditEntry{
		Entity:     entity,
		EntityID:   entityID,
		ChangeType: changeType,
		ChangeData: changeData,
		UserID:     userID,
	})
	if err != nil {
		s.logger.Warn("Audit write failed",
			zap.String("entity", entity),
			zap.String("entity_id", entityID.String()),
			zap.String("change_type", changeType),
			zap.Error(err))
	}
}

// History returns the audit trail for one entity, newest first.
func (s *AuditService) History(ctx context.Context, entityID uuid.UUID, limit int) ([]*models.AuditEntry, error) {
	return s.audits.ListByEntity(s.store.WithPool(ctx), entityID, limit)
}
