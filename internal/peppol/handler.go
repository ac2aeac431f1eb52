package peppol

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ledgerly-backend/internal/contacts"
	"ledgerly-backend/internal/documents"
	"ledgerly-backend/internal/shared/server/respond"
	"ledgerly-backend/internal/workspaces"
)

type Handler struct {
	Svc        *Service
	Documents  *documents.Service
	Contacts   *contacts.Service
	Workspaces *workspaces.Service
}

func NewHandler(svc *Service, docs *documents.Service, contactsSvc *contacts.Service, wsSvc *workspaces.Service) *Handler {
	return &Handler{Svc: svc, Documents: docs, Contacts: contactsSvc, Workspaces: wsSvc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/peppol/registration", h.get)
	rg.POST("/peppol/registration", h.register)
	rg.DELETE("/peppol/registration", h.deregister)
	rg.GET("/documents/:documentId/ubl", h.exportUBL)
}

func (h *Handler) get(c *gin.Context) {
	reg, err := h.Svc.Get(c.Request.Context(), workspaces.IDFromContext(c))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load peppol registration", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"registration": reg})
}

func (h *Handler) register(c *gin.Context) {
	reg, err := h.Svc.Register(c.Request.Context(), workspaces.IDFromContext(c))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotConfigured):
			respond.Error(c, http.StatusServiceUnavailable, "peppol_not_configured", "Peppol provider is not configured", nil)
		case errors.Is(err, ErrVATRequired):
			respond.Error(c, http.StatusUnprocessableEntity, "vat_required", "set the workspace VAT number before registering", nil)
		case errors.Is(err, ErrUnsupportedCountry):
			respond.Error(c, http.StatusUnprocessableEntity, "unsupported_country", "no Peppol scheme for the workspace country", nil)
		case errors.Is(err, workspaces.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "workspace not found", nil)
		case errors.Is(err, ErrProvider):
			respond.Error(c, http.StatusBadGateway, "provider_error", "Peppol provider rejected the registration", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to register", nil)
		}
		return
	}
	respond.JSON(c, http.StatusCreated, gin.H{"registration": reg})
}

func (h *Handler) deregister(c *gin.Context) {
	err := h.Svc.Deregister(c.Request.Context(), workspaces.IDFromContext(c))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_registered", "workspace has no peppol registration", nil)
		case errors.Is(err, ErrNotConfigured):
			respond.Error(c, http.StatusServiceUnavailable, "peppol_not_configured", "Peppol provider is not configured", nil)
		case errors.Is(err, ErrProvider):
			respond.Error(c, http.StatusBadGateway, "provider_error", "Peppol provider rejected the deregistration", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to deregister", nil)
		}
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"status": StatusNotRegistered})
}

func (h *Handler) exportUBL(c *gin.Context) {
	ctx := c.Request.Context()
	workspaceID := workspaces.IDFromContext(c)

	rec, err := h.Documents.GetRecord(ctx, workspaceID, c.Param("documentId"))
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load document", nil)
		return
	}
	if rec.Draft == nil {
		respond.Error(c, http.StatusUnprocessableEntity, "not_invoice", "only confirmed invoices export as UBL", nil)
		return
	}

	ws, err := h.Workspaces.Get(ctx, workspaceID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load workspace", nil)
		return
	}
	customer, err := h.Contacts.Get(ctx, workspaceID, rec.Draft.LinkedContactID)
	if err != nil {
		if errors.Is(err, contacts.ErrNotFound) {
			respond.Error(c, http.StatusConflict, "contact_missing", "the linked contact no longer exists", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load contact", nil)
		return
	}
	var reg *Registration
	if stored, err := h.Svc.Repo.Get(ctx, workspaceID); err == nil {
		reg = &stored
	}

	out, err := RenderInvoiceUBL(ws, reg, rec, customer)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotInvoice):
			respond.Error(c, http.StatusUnprocessableEntity, "not_invoice", "only confirmed invoices export as UBL", nil)
		case errors.Is(err, ErrNotConfirmed):
			respond.Error(c, http.StatusConflict, "not_confirmed", "confirm the invoice before exporting", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to render UBL", nil)
		}
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ublFileName(rec)))
	c.Data(http.StatusOK, "application/xml; charset=utf-8", out)
}

func ublFileName(rec documents.Record) string {
	number := ""
	if rec.Draft != nil && rec.Draft.Data.Invoice != nil {
		number = rec.Draft.Data.Invoice.InvoiceNumber
	}
	if number == "" {
		number = rec.Document.ID
	}
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, number)
	return "invoice-" + safe + ".xml"
}
