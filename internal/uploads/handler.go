package uploads

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ledgerly-backend/internal/documents"
	"ledgerly-backend/internal/shared/server/middleware"
	"ledgerly-backend/internal/shared/server/respond"
	"ledgerly-backend/internal/shared/storage/object"
	"ledgerly-backend/internal/shared/telemetry"
	"ledgerly-backend/internal/shared/util"
	"ledgerly-backend/internal/usage"
	"ledgerly-backend/internal/workspaces"
)

const (
	maxUploadBytes = 10 << 20
	presignExpires = 15 * time.Minute
)

var allowedContentTypes = map[string]struct{}{
	"application/pdf": {},
	"image/png":       {},
	"image/jpeg":      {},
}

// Handler issues presigned upload URLs and registers completed uploads so
// large files can bypass the API process.
type Handler struct {
	Presigner object.Presigner
	Docs      *documents.Service
	TTL       time.Duration
}

// NewHandler wires the presign flow against the configured object store.
// Stores without presign support (local disk) leave Presigner nil and the
// presign route answers 503; the multipart upload route still works. A zero
// ttl keeps the default presign expiry.
func NewHandler(store object.ObjectStore, docs *documents.Service, ttl time.Duration) *Handler {
	presigner, _ := store.(object.Presigner)
	return &Handler{Presigner: presigner, Docs: docs, TTL: ttl}
}

// RegisterRoutes attaches upload routes to a workspace-scoped group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/uploads/presign", h.presign)
	rg.POST("/uploads/complete", h.complete)
}

type presignRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
}

type presignResponse struct {
	UploadURL        string `json:"uploadUrl"`
	StorageKey       string `json:"storageKey"`
	ExpiresInSeconds int64  `json:"expiresInSeconds"`
}

func (h *Handler) presign(c *gin.Context) {
	if h.Presigner == nil {
		respond.Error(c, http.StatusServiceUnavailable, "presign_unavailable", "object store does not support presigned uploads", nil)
		return
	}

	var req presignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	req.FileName = strings.TrimSpace(req.FileName)
	req.ContentType = strings.TrimSpace(req.ContentType)

	if req.FileName == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "fileName is required", nil)
		return
	}
	if _, ok := allowedContentTypes[req.ContentType]; !ok {
		respond.Error(c, http.StatusBadRequest, "validation_error", "contentType is not allowed", nil)
		return
	}
	if req.SizeBytes <= 0 || req.SizeBytes > maxUploadBytes {
		respond.Error(c, http.StatusBadRequest, "validation_error", "sizeBytes exceeds limit", nil)
		return
	}

	sanitized, err := util.SanitizeFileName(req.FileName)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid fileName", nil)
		return
	}

	workspaceID := workspaces.IDFromContext(c)
	// Same key shape Save uses, so downloads and ingestion treat both upload
	// paths alike.
	storageKey := path.Join(util.HashScopeKey(workspaceID), fmt.Sprintf("%s_%s", uuid.NewString(), sanitized))

	ttl := h.TTL
	if ttl <= 0 {
		ttl = presignExpires
	}
	uploadURL, err := h.Presigner.PresignPut(c.Request.Context(), storageKey, req.ContentType, ttl)
	if err != nil {
		telemetry.Error("uploads.presign.failed", map[string]any{
			"error":        err.Error(),
			"workspace_id": workspaceID,
			"storage_key":  storageKey,
			"content_type": req.ContentType,
			"size_bytes":   req.SizeBytes,
			"request_id":   middleware.RequestIDFromContext(c),
		})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to generate upload url", nil)
		return
	}

	respond.JSON(c, http.StatusOK, presignResponse{
		UploadURL:        uploadURL,
		StorageKey:       storageKey,
		ExpiresInSeconds: int64(ttl.Seconds()),
	})
}

type completeRequest struct {
	FileName   string `json:"fileName"`
	StorageKey string `json:"storageKey"`
	SizeBytes  int64  `json:"sizeBytes"`
}

func (h *Handler) complete(c *gin.Context) {
	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	req.FileName = strings.TrimSpace(req.FileName)
	req.StorageKey = strings.TrimSpace(req.StorageKey)

	workspaceID := workspaces.IDFromContext(c)
	if !strings.HasPrefix(req.StorageKey, util.HashScopeKey(workspaceID)+"/") {
		respond.Error(c, http.StatusForbidden, "forbidden", "storageKey does not belong to this workspace", nil)
		return
	}

	userID := middleware.UserIDFromContext(c)
	ctx := documents.WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	rec, err := h.Docs.RegisterUploaded(ctx, workspaceID, userID, req.FileName, req.StorageKey, req.SizeBytes)
	if err != nil {
		switch {
		case errors.Is(err, documents.ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "fileName, storageKey and sizeBytes are required", nil)
		case errors.Is(err, documents.ErrUnsupportedFileType):
			respond.Error(c, http.StatusUnsupportedMediaType, "unsupported_file_type", "upload a PDF, PNG, or JPEG file", nil)
		case errors.Is(err, documents.ErrObjectMissing):
			respond.Error(c, http.StatusConflict, "object_missing", "no uploaded object found at storageKey", nil)
		case errors.Is(err, usage.ErrLimitReached):
			respond.Error(c, http.StatusTooManyRequests, "limit_reached", "You've reached your document limit. Upgrade your plan to continue.", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to register upload", nil)
		}
		return
	}

	respond.JSON(c, http.StatusCreated, documents.ToRecordResponse(rec))
}
