package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neetimanthan/comment-engine/pkg/apperrors"
	"github.com/neetimanthan/comment-engine/pkg/models"
	"github.com/neetimanthan/comment-engine/pkg/services"
)

// AnalyticsService is the analytics surface the handler needs.
type AnalyticsService interface {
	DraftSummary(ctx context.Context, draftID uuid.UUID) (*models.DraftAnalytics, error)
	Keywords(ctx context.Context, draftID uuid.UUID, limit int) ([]*models.Keyword, error)
	Clusters(ctx context.Context, draftID uuid.UUID) ([]*models.CommentCluster, error)
}

var _ AnalyticsService = (*services.AnalyticsService)(nil)

// AnalyticsHandler serves aggregated views over processed comments.
type AnalyticsHandler struct {
	analyticsService AnalyticsService
	logger           *zap.Logger
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(analyticsService AnalyticsService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
		logger:           logger,
	}
}

// RegisterRoutes registers the analytics handler's routes on the given mux.
func (h *AnalyticsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /analytics/drafts/{id}/summary", h.Summary)
	mux.HandleFunc("GET /analytics/drafts/{id}/keywords", h.Keywords)
	mux.HandleFunc("GET /analytics/drafts/{id}/clusters", h.Clusters)
}

// Summary handles GET /analytics/drafts/{id}/summary
// Returns volume, sentiment, stance and per-clause aggregates for a draft.
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	draftID, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}

	summary, err := h.analyticsService.DraftSummary(r.Context(), draftID)
	if err != nil {
		h.writeAnalyticsError(w, draftID, err, "Failed to build draft summary")
		return
	}

	if err := WriteJSON(w, http.StatusOK, summary); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Keywords handles GET /analytics/drafts/{id}/keywords
func (h *AnalyticsHandler) Keywords(w http.ResponseWriter, r *http.Request) {
	draftID, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}
	limit := queryInt(r, "limit", 50)

	keywords, err := h.analyticsService.Keywords(r.Context(), draftID, limit)
	if err != nil {
		h.writeAnalyticsError(w, draftID, err, "Failed to list keywords")
		return
	}
	if keywords == nil {
		keywords = []*models.Keyword{}
	}

	if err := WriteJSON(w, http.StatusOK, keywords); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Clusters handles GET /analytics/drafts/{id}/clusters
// Returns near-duplicate comment clusters found during post-processing.
func (h *AnalyticsHandler) Clusters(w http.ResponseWriter, r *http.Request) {
	draftID, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}

	clusters, err := h.analyticsService.Clusters(r.Context(), draftID)
	if err != nil {
		h.writeAnalyticsError(w, draftID, err, "Failed to list clusters")
		return
	}
	if clusters == nil {
		clusters = []*models.CommentCluster{}
	}

	if err := WriteJSON(w, http.StatusOK, clusters); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *AnalyticsHandler) writeAnalyticsError(w http.ResponseWriter, draftID uuid.UUID, err error, message string) {
	if errors.Is(err, apperrors.ErrDraftNotFound) {
		if err := ErrorResponse(w, http.StatusNotFound, "not_found", "Draft not found"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	h.logger.Error(message,
		zap.String("draft_id", draftID.String()),
		zap.Error(err))
	if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}

func (h *AnalyticsHandler) pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_id", "Invalid "+name+" format"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return id, true
}
