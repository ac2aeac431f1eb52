package contacts

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ledgerly-backend/internal/shared/server/respond"
	"ledgerly-backend/internal/workspaces"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes mounts the contact routes. The group must already carry
// the workspace scope middleware.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/contacts", h.create)
	rg.GET("/contacts", h.list)
	rg.GET("/contacts/:contactId", h.get)
	rg.PATCH("/contacts/:contactId", h.update)
	rg.DELETE("/contacts/:contactId", h.remove)
}

type contactRequest struct {
	Name        string `json:"name"`
	VATNumber   string `json:"vatNumber"`
	IBAN        string `json:"iban"`
	Email       string `json:"email"`
	CountryCode string `json:"countryCode"`
}

func (req contactRequest) toContact() Contact {
	return Contact{
		Name:        req.Name,
		VATNumber:   req.VATNumber,
		IBAN:        req.IBAN,
		Email:       req.Email,
		CountryCode: req.CountryCode,
	}
}

func (h *Handler) create(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
		return
	}
	contact, err := h.Svc.Create(c.Request.Context(), workspaces.IDFromContext(c), req.toContact())
	if err != nil {
		if errors.Is(err, ErrNameRequired) {
			respond.Error(c, http.StatusBadRequest, "invalid_request", err.Error(), nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create contact", nil)
		return
	}
	respond.JSON(c, http.StatusCreated, contact)
}

func (h *Handler) list(c *gin.Context) {
	list, err := h.Svc.List(c.Request.Context(), workspaces.IDFromContext(c), c.Query("q"))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list contacts", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"contacts": list})
}

func (h *Handler) get(c *gin.Context) {
	contact, err := h.Svc.Get(c.Request.Context(), workspaces.IDFromContext(c), c.Param("contactId"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "contact not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load contact", nil)
		return
	}
	respond.JSON(c, http.StatusOK, contact)
}

func (h *Handler) update(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
		return
	}
	contact, err := h.Svc.Update(c.Request.Context(), workspaces.IDFromContext(c), c.Param("contactId"), req.toContact())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "contact not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update contact", nil)
		return
	}
	respond.JSON(c, http.StatusOK, contact)
}

func (h *Handler) remove(c *gin.Context) {
	err := h.Svc.Delete(c.Request.Context(), workspaces.IDFromContext(c), c.Param("contactId"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "contact not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete contact", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"status": "deleted"})
}
