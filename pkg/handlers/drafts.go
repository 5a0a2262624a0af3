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

// maxUploadBytes bounds draft document uploads.
const maxUploadBytes = 10 << 20

// CreateDraftRequest is the JSON body for POST /drafts.
type CreateDraftRequest struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	TextURI *string `json:"text_uri,omitempty"`
}

// DraftResponse is returned by draft creation endpoints.
type DraftResponse struct {
	Draft            *models.Draft `json:"draft"`
	ClausesExtracted int           `json:"clauses_extracted"`
}

// DraftService is the draft surface the handler needs.
type DraftService interface {
	CreateDraft(ctx context.Context, title string, textURI *string, content string) (*models.Draft, []*models.Clause, error)
	CreateFromUpload(ctx context.Context, filename, title, contentType string, data []byte) (*models.Draft, []*models.Clause, error)
	GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error)
	ListDrafts(ctx context.Context, limit, offset int) ([]*models.Draft, error)
	GetClauses(ctx context.Context, draftID uuid.UUID) ([]*models.Clause, error)
}

var _ DraftService = (*services.DraftService)(nil)

// DraftsHandler handles draft document HTTP requests.
type DraftsHandler struct {
	draftService DraftService
	logger       *zap.Logger
}

// NewDraftsHandler creates a new drafts handler.
func NewDraftsHandler(draftService DraftService, logger *zap.Logger) *DraftsHandler {
	return &DraftsHandler{
		draftService: draftService,
		logger:       logger,
	}
}

// RegisterRoutes registers the drafts handler's routes on the given mux.
func (h *DraftsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /drafts", h.Create)
	mux.HandleFunc("POST /drafts/upload", h.Upload)
	mux.HandleFunc("GET /drafts", h.List)
	mux.HandleFunc("GET /drafts/{id}", h.Get)
	mux.HandleFunc("GET /drafts/{id}/clauses", h.GetClauses)
}

// Create handles POST /drafts
// Creates a draft from inline text and extracts its clauses.
func (h *DraftsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	draft, clauses, err := h.draftService.CreateDraft(r.Context(), req.Title, req.TextURI, req.Content)
	if err != nil {
		if errors.Is(err, apperrors.ErrEmptyDraft) {
			if err := ErrorResponse(w, http.StatusBadRequest, "empty_draft", "Draft content must not be empty"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to create draft", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to create draft"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := DraftResponse{Draft: draft, ClausesExtracted: len(clauses)}
	if err := WriteJSON(w, http.StatusCreated, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Upload handles POST /drafts/upload
// Accepts a multipart file upload (plain text or HTML) and creates a draft
// from the extracted text.
func (h *DraftsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid multipart form"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	file, header, err := r.FormFile("file")
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

	title := r.FormValue("title")
	contentType := header.Header.Get("Content-Type")

	draft, clauses, err := h.draftService.CreateFromUpload(r.Context(), header.Filename, title, contentType, data)
	if err != nil {
		if errors.Is(err, apperrors.ErrEmptyDraft) {
			if err := ErrorResponse(w, http.StatusBadRequest, "empty_draft", "Uploaded document has no usable text"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to create draft from upload",
			zap.String("filename", header.Filename),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to create draft"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := DraftResponse{Draft: draft, ClausesExtracted: len(clauses)}
	if err := WriteJSON(w, http.StatusCreated, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /drafts
// Supports skip and limit query parameters for pagination.
func (h *DraftsHandler) List(w http.ResponseWriter, r *http.Request) {
	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", 50)

	drafts, err := h.draftService.ListDrafts(r.Context(), limit, skip)
	if err != nil {
		h.logger.Error("Failed to list drafts", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to list drafts"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if drafts == nil {
		drafts = []*models.Draft{}
	}

	if err := WriteJSON(w, http.StatusOK, drafts); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /drafts/{id}
func (h *DraftsHandler) Get(w http.ResponseWriter, r *http.Request) {
	draftID, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}

	draft, err := h.draftService.GetDraft(r.Context(), draftID)
	if err != nil {
		if errors.Is(err, apperrors.ErrDraftNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "Draft not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to get draft",
			zap.String("draft_id", draftID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to get draft"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, draft); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// GetClauses handles GET /drafts/{id}/clauses
func (h *DraftsHandler) GetClauses(w http.ResponseWriter, r *http.Request) {
	draftID, ok := h.pathUUID(w, r, "id")
	if !ok {
		return
	}

	clauses, err := h.draftService.GetClauses(r.Context(), draftID)
	if err != nil {
		if errors.Is(err, apperrors.ErrDraftNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "Draft not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to get clauses",
			zap.String("draft_id", draftID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to get clauses"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if clauses == nil {
		clauses = []*models.Clause{}
	}

	if err := WriteJSON(w, http.StatusOK, clauses); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *DraftsHandler) pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_id", "Invalid "+name+" format"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return id, true
}

// queryInt parses an integer query parameter, falling back to def when the
// parameter is missing or malformed.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}
