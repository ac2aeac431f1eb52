package workspaces

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ledgerly-backend/internal/shared/server/middleware"
	"ledgerly-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/workspaces", h.create)
	rg.GET("/workspaces", h.list)

	scoped := rg.Group("/workspaces/:workspaceId", Scope(h.Svc))
	scoped.GET("", h.get)
	scoped.PATCH("", h.update)
	scoped.GET("/members", h.listMembers)
	scoped.POST("/members", h.addMember)
}

type createRequest struct {
	Name        string `json:"name"`
	CountryCode string `json:"countryCode"`
	Currency    string `json:"currency"`
	VATNumber   string `json:"vatNumber"`
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
		return
	}
	ws, err := h.Svc.Create(c.Request.Context(), middleware.UserIDFromContext(c), req.Name, req.CountryCode, req.Currency, req.VATNumber)
	if err != nil {
		if errors.Is(err, ErrNameRequired) {
			respond.Error(c, http.StatusBadRequest, "invalid_request", err.Error(), nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create workspace", nil)
		return
	}
	respond.JSON(c, http.StatusCreated, ws)
}

func (h *Handler) list(c *gin.Context) {
	list, err := h.Svc.ListForUser(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list workspaces", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"workspaces": list})
}

func (h *Handler) get(c *gin.Context) {
	ws, err := h.Svc.Get(c.Request.Context(), IDFromContext(c))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "workspace not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load workspace", nil)
		return
	}
	respond.JSON(c, http.StatusOK, ws)
}

type updateRequest struct {
	Name        *string `json:"name"`
	CountryCode *string `json:"countryCode"`
	Currency    *string `json:"currency"`
	VATNumber   *string `json:"vatNumber"`
}

func (h *Handler) update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
		return
	}
	ws, err := h.Svc.Update(c.Request.Context(), IDFromContext(c), req.Name, req.CountryCode, req.Currency, req.VATNumber)
	if err != nil {
		switch {
		case errors.Is(err, ErrNameRequired):
			respond.Error(c, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "workspace not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update workspace", nil)
		}
		return
	}
	respond.JSON(c, http.StatusOK, ws)
}

func (h *Handler) listMembers(c *gin.Context) {
	members, err := h.Svc.ListMembers(c.Request.Context(), IDFromContext(c))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list members", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"members": members})
}

type addMemberRequest struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

func (h *Handler) addMember(c *gin.Context) {
	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "userId is required", nil)
		return
	}
	if err := h.Svc.AddMember(c.Request.Context(), IDFromContext(c), req.UserID, req.Role); err != nil {
		switch {
		case errors.Is(err, ErrInvalidRole):
			respond.Error(c, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "workspace not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to add member", nil)
		}
		return
	}
	respond.JSON(c, http.StatusCreated, gin.H{"status": "added"})
}
