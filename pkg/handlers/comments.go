package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neetimanthan/comment-engine/pkg/apperrors"
	"github.com/neetimanthan/comment-engine/pkg/models"
	"github.com/neetimanthan/comment-engine/pkg/services"
)

// CreateCommentRequest is the JSON body for POST /comments.
type CreateCommentRequest struct {
	DraftID  uuid.UUID         `json:"draft_id"`
	Text     string            `json:"text"`
	UserMeta map[string]string `json:"user_meta,omitempty"`
}

// BulkCommentsRequest is the JSON body for POST /comments/bulk.
type BulkCommentsRequest struct {
	DraftID  uuid.UUID                  `json:"draft_id"`
	Comments []services.BulkCommentItem `json:"comments"`
}

// BulkCommentsResponse reports the IDs accepted for processing.
type BulkCommentsResponse struct {
	Accepted   int         `json:"accepted"`
	CommentIDs []uuid.UUID `json:"comment_ids"`
}

// CommentService is the comment surface the handler needs.
type CommentService interface {
	CreateComment(ctx context.Context, draftID uuid.UUID, text string, userMeta map[string]string) (*models.CommentRaw, error)
	CreateBulk(ctx context.Context, draftID uuid.UUID, items []services.BulkCommentItem) ([]uuid.UUID, error)
	CreateFromCSV(ctx context.Context, draftID uuid.UUID, data []byte) ([]uuid.UUID, error)
	GetComment(ctx context.Context, id uuid.UUID) (*models.CommentWithAnalysis, error)
	ListComments(ctx context.Context, filter *models.CommentFilter) ([]*models.CommentWithAnalysis, error)
	Reprocess(ctx context.Context, id uuid.UUID) error
	DeleteComment(ctx context.Context, id uuid.UUID) error
}

var _ CommentService = (*services.CommentService)(nil)

// AuditReader exposes the audit trail of an entity.
type AuditReader interface {
	History(ctx context.Context, entityID uuid.UUID, limit int) ([]*models.AuditEntry, error)
}

var _ AuditReader = (*services.AuditService)(nil)

// CommentsHandler handles comment HTTP requests.
type CommentsHandler struct {
	commentService CommentService
	auditReader    AuditReader
	logger         *zap.Logger
}

// NewCommentsHandler creates a new comments handler.
func NewCommentsHandler(commentService CommentService, auditReader AuditReader, logger *zap.Logger) *CommentsHandler {
	return &CommentsHandler{
		commentService: commentService,
		auditReader:    auditReader,
		logger:         logger,
	}
}

// RegisterRoutes registers the comments handler's routes on the given mux.
func (h *CommentsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /comments", h.Create)
	mux.HandleFunc("POST /comments/bulk", h.CreateBulk)
	mux.HandleFunc("POST /comments/upload-csv", h.UploadCSV)
	mux.HandleFunc("GET /comments", h.List)
	mux.HandleFunc("GET /comments/{id}", h.Get)
	mux.HandleFunc("POST /comments/{id}/reprocess", h.Reprocess)
	mux.HandleFunc("GET /comments/{id}/history", h.History)
	mux.HandleFunc("DELETE /comments/{id}", h.Delete)
}

// Create handles POST /comments
// Stores the comment and queues it for pipeline processing.
func (h *CommentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	comment, err := h.commentService.CreateComment(r.Context(), req.DraftID, req.Text, req.UserMeta)
	if err != nil {
		h.writeCreateError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusAccepted, comment); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// CreateBulk handles POST /comments/bulk
// Stores a batch of comments in one transaction and queues each for
// processing.
func (h *CommentsHandler) CreateBulk(w http.ResponseWriter, r *http.Request) {
	var req BulkCommentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if len(req.Comments) == 0 {
		if err := ErrorResponse(w, http.StatusBadRequest, "empty_batch", "Comments list must not be empty"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	ids, err := h.commentService.CreateBulk(r.Context(), req.DraftID, req.Comments)
	if err != nil {
		h.writeCreateError(w, err)
		return
	}

	response := BulkCommentsResponse{Accepted: len(ids), CommentIDs: ids}
	if err := WriteJSON(w, http.StatusAccepted, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// UploadCSV handles POST /comments/upload-csv?draft_id=
// Accepts a multipart CSV upload with a required "text" column. All other
// columns are stored as user metadata.
func (h *CommentsHandler) UploadCSV(w http.ResponseWriter, r *http.Request) {
	draftID, err := uuid.Parse(r.URL.Query().Get("draft_id"))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_id", "Valid draft_id query parameter is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid multipart form"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_file", "File field is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		h.logger.Error("Failed to read uploaded file", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to read uploaded file"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	ids, err := h.commentService.CreateFromCSV(r.Context(), draftID, data)
	if err != nil {
		if errors.Is(err, apperrors.ErrDraftNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "Draft not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to import comments from CSV",
			zap.String("draft_id", draftID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_csv", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := BulkCommentsResponse{Accepted: len(ids), CommentIDs: ids}
	if err := WriteJSON(w, http.StatusAccepted, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /comments
// Supports draft_id, sentiment, stance, clause_ref, min_confidence, skip and
// limit query parameters.
func (h *CommentsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := &models.CommentFilter{
		Sentiment: r.URL.Query().Get("sentiment"),
		Stance:    r.URL.Query().Get("stance"),
		ClauseRef: r.URL.Query().Get("clause_ref"),
		Offset:    queryInt(r, "skip", 0),
		Limit:     queryInt(r, "limit", 50),
	}

	if raw := r.URL.Query().Get("draft_id"); raw != "" {
		draftID, err := uuid.Parse(raw)
		if err != nil {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_id", "Invalid draft_id format"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		filter.DraftID = &draftID
	}

	if raw := r.URL.Query().Get("min_confidence"); raw != "" {
		minConfidence, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid min_confidence value"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		filter.MinConfidence = &minConfidence
	}

	comments, err := h.commentService.ListComments(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list comments", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to list comments"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if comments == nil {
		comments = []*models.CommentWithAnalysis{}
	}

	if err := WriteJSON(w, http.StatusOK, comments); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /comments/{id}
// Returns the comment together with any analysis rows produced so far.
func (h *CommentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	commentID, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}

	comment, err := h.commentService.GetComment(r.Context(), commentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrCommentNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "Comment not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to get comment",
			zap.String("comment_id", commentID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to get comment"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, comment); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Reprocess handles POST /comments/{id}/reprocess
// Queues the comment for a fresh pipeline run, overwriting prior results.
func (h *CommentsHandler) Reprocess(w http.ResponseWriter, r *http.Request) {
	commentID, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.commentService.Reprocess(r.Context(), commentID); err != nil {
		if errors.Is(err, apperrors.ErrCommentNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "Comment not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to queue reprocess",
			zap.String("comment_id", commentID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to queue reprocess"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusAccepted, map[string]string{"status": "queued"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// History handles GET /comments/{id}/history
// Returns the comment's audit trail (quality-gate and reprocess records),
// newest first.
func (h *CommentsHandler) History(w http.ResponseWriter, r *http.Request) {
	commentID, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}
	limit := queryInt(r, "limit", 50)

	entries, err := h.auditReader.History(r.Context(), commentID, limit)
	if err != nil {
		h.logger.Error("Failed to get audit history",
			zap.String("comment_id", commentID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to get audit history"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if entries == nil {
		entries = []*models.AuditEntry{}
	}

	if err := WriteJSON(w, http.StatusOK, entries); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /comments/{id}
func (h *CommentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	commentID, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.commentService.DeleteComment(r.Context(), commentID); err != nil {
		if errors.Is(err, apperrors.ErrCommentNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "Comment not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to delete comment",
			zap.String("comment_id", commentID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to delete comment"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CommentsHandler) writeCreateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrDraftNotFound):
		if err := ErrorResponse(w, http.StatusNotFound, "not_found", "Draft not found"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
	case errors.Is(err, services.ErrEmptyCommentText):
		if err := ErrorResponse(w, http.StatusBadRequest, "empty_text", "Comment text must not be empty"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
	default:
		h.logger.Error("Failed to create comment", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to create comment"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
	}
}

func (h *CommentsHandler) pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_id", "Invalid "+name+" format"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return id, true
}
