package documents

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ledgerly-backend/internal/shared/server/middleware"
	"ledgerly-backend/internal/shared/server/respond"
	"ledgerly-backend/internal/usage"
	"ledgerly-backend/internal/workspaces"
	"ledgerly-backend/review/model"
)

const maxUploadSize = 10 << 20 // 10MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches document routes to a workspace-scoped group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents", h.upload)
	rg.GET("/documents", h.list)
	rg.GET("/documents/:documentId", h.get)
	rg.DELETE("/documents/:documentId", h.delete)
	rg.GET("/documents/:documentId/file", h.file)
	rg.GET("/documents/:documentId/pages", h.pages)
	rg.PUT("/documents/:documentId/draft", h.updateDraft)
	rg.POST("/documents/:documentId/contact", h.bindContact)
	rg.DELETE("/documents/:documentId/contact", h.clearContact)
	rg.POST("/documents/:documentId/confirm", h.confirm)
	rg.POST("/documents/:documentId/reject", h.reject)
	rg.POST("/documents/:documentId/reprocess", h.reprocess)
}

func (h *Handler) upload(c *gin.Context) {
	workspaceID := workspaces.IDFromContext(c)
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	rec, err := h.Svc.Upload(ctx, workspaceID, userID, fileHeader.Filename, file)
	if err != nil {
		respondServiceError(c, err, "failed to upload document")
		return
	}
	respond.JSON(c, http.StatusCreated, ToRecordResponse(rec))
}

func (h *Handler) list(c *gin.Context) {
	workspaceID := workspaces.IDFromContext(c)

	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	records, err := h.Svc.List(c.Request.Context(), workspaceID, limit, offset, c.Query("status"))
	if err != nil {
		respondServiceError(c, err, "failed to list documents")
		return
	}

	resp := make([]RecordResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, ToRecordResponse(rec))
	}
	respond.JSON(c, http.StatusOK, gin.H{"documents": resp})
}

func (h *Handler) get(c *gin.Context) {
	workspaceID := workspaces.IDFromContext(c)

	rec, err := h.Svc.GetRecord(c.Request.Context(), workspaceID, c.Param("documentId"))
	if err != nil {
		respondServiceError(c, err, "failed to fetch document")
		return
	}
	respond.JSON(c, http.StatusOK, ToRecordResponse(rec))
}

func (h *Handler) delete(c *gin.Context) {
	workspaceID := workspaces.IDFromContext(c)

	if err := h.Svc.Delete(c.Request.Context(), workspaceID, c.Param("documentId")); err != nil {
		respondServiceError(c, err, "failed to delete document")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) file(c *gin.Context) {
	workspaceID := workspaces.IDFromContext(c)

	doc, rc, err := h.Svc.OpenFile(c.Request.Context(), workspaceID, c.Param("documentId"))
	if err != nil {
		respondServiceError(c, err, "failed to open document file")
		return
	}
	defer rc.Close()

	headers := map[string]string{
		"Content-Disposition": fmt.Sprintf("inline; filename=%q", doc.FileName),
	}
	c.DataFromReader(http.StatusOK, doc.SizeBytes, doc.ContentType, rc, headers)
}

func (h *Handler) pages(c *gin.Context) {
	workspaceID := workspaces.IDFromContext(c)

	offset := 0
	limit := 10
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 50 {
			limit = parsed
		}
	}

	pages, err := h.Svc.Pages(c.Request.Context(), workspaceID, c.Param("documentId"), offset, limit)
	if err != nil {
		respondServiceError(c, err, "failed to load pages")
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"pages": toPageResponses(pages), "offset": offset})
}

type draftUpdateRequest struct {
	Data    model.Editable `json:"data"`
	Version int64          `json:"version"`
}

func (h *Handler) updateDraft(c *gin.Context) {
	workspaceID := workspaces.IDFromContext(c)

	var req draftUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	rec, err := h.Svc.UpdateDraft(c.Request.Context(), workspaceID, c.Param("documentId"), req.Data, req.Version)
	if err != nil {
		respondServiceError(c, err, "failed to save draft")
		return
	}
	respond.JSON(c, http.StatusOK, ToRecordResponse(rec))
}

type bindContactRequest struct {
	ContactID string `json:"contactId"`
}

func (h *Handler) bindContact(c *gin.Context) {
	workspaceID := workspaces.IDFromContext(c)

	var req bindContactRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ContactID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "contactId is required", nil)
		return
	}

	rec, err := h.Svc.BindContact(c.Request.Context(), workspaceID, c.Param("documentId"), req.ContactID)
	if err != nil {
		respondServiceError(c, err, "failed to bind contact")
		return
	}
	respond.JSON(c, http.StatusOK, ToRecordResponse(rec))
}

func (h *Handler) clearContact(c *gin.Context) {
	workspaceID := workspaces.IDFromContext(c)

	rec, err := h.Svc.ClearContact(c.Request.Context(), workspaceID, c.Param("documentId"))
	if err != nil {
		respondServiceError(c, err, "failed to clear contact")
		return
	}
	respond.JSON(c, http.StatusOK, ToRecordResponse(rec))
}

func (h *Handler) confirm(c *gin.Context) {
	workspaceID := workspaces.IDFromContext(c)

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	entryID, rec, err := h.Svc.Confirm(ctx, workspaceID, c.Param("documentId"))
	if err != nil {
		respondServiceError(c, err, "failed to confirm document")
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"entryId": entryID, "record": ToRecordResponse(rec)})
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) reject(c *gin.Context) {
	workspaceID := workspaces.IDFromContext(c)

	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	rec, err := h.Svc.Reject(ctx, workspaceID, c.Param("documentId"), model.RejectReason(req.Reason))
	if err != nil {
		respondServiceError(c, err, "failed to reject document")
		return
	}
	respond.JSON(c, http.StatusOK, ToRecordResponse(rec))
}

func (h *Handler) reprocess(c *gin.Context) {
	workspaceID := workspaces.IDFromContext(c)

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	rec, err := h.Svc.Reprocess(ctx, workspaceID, c.Param("documentId"))
	if err != nil {
		respondServiceError(c, err, "failed to reprocess document")
		return
	}
	respond.JSON(c, http.StatusOK, ToRecordResponse(rec))
}

func respondServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
	case errors.Is(err, ErrDraftNotFound):
		respond.Error(c, http.StatusNotFound, "draft_not_found", "document has no draft yet", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrVersionConflict):
		respond.Error(c, http.StatusConflict, "version_conflict", "draft was changed elsewhere, reload and retry", nil)
	case errors.Is(err, ErrDraftFinalized):
		respond.Error(c, http.StatusConflict, "draft_finalized", "draft is already confirmed or rejected", nil)
	case errors.Is(err, ErrNotConfirmable):
		respond.Error(c, http.StatusUnprocessableEntity, "not_confirmable", err.Error(), nil)
	case errors.Is(err, ErrUnsupportedFileType):
		respond.Error(c, http.StatusUnsupportedMediaType, "unsupported_file_type", "upload a PDF, PNG, or JPEG file", nil)
	case errors.Is(err, ErrIngestionInProgress):
		respond.Error(c, http.StatusConflict, "ingestion_in_progress", "extraction is already running", nil)
	case errors.Is(err, usage.ErrLimitReached):
		respond.Error(c, http.StatusTooManyRequests, "limit_reached", "You've reached your document limit. Upgrade your plan to continue.", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
