package cashflow

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"ledgerly-backend/internal/shared/server/respond"
	"ledgerly-backend/internal/workspaces"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/cashflow/entries", h.listEntries)
	rg.GET("/cashflow/summary", h.summary)
}

func (h *Handler) listEntries(c *gin.Context) {
	workspaceID := workspaces.IDFromContext(c)

	var from, to time.Time
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "invalid_range", "from must be YYYY-MM-DD", nil)
			return
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "invalid_range", "to must be YYYY-MM-DD", nil)
			return
		}
		to = parsed
	}
	if !from.IsZero() && !to.IsZero() && !to.After(from) {
		respond.Error(c, http.StatusBadRequest, "invalid_range", "to must be after from", nil)
		return
	}
	direction := c.Query("direction")

	entries, err := h.service.List(c.Request.Context(), workspaceID, from, to, direction)
	if err != nil {
		if errors.Is(err, ErrInvalidDirection) {
			respond.Error(c, http.StatusBadRequest, "invalid_direction", "direction must be in or out", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list cashflow entries", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"entries": entries})
}

func (h *Handler) summary(c *gin.Context) {
	workspaceID := workspaces.IDFromContext(c)

	months := 0
	if raw := c.Query("months"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respond.Error(c, http.StatusBadRequest, "invalid_range", "months must be a positive integer", nil)
			return
		}
		months = parsed
	}

	summary, err := h.service.Summary(c.Request.Context(), workspaceID, months)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to summarize cashflow", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"months": summary})
}
