package usage

import (
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

// RegisterRoutes mounts the usage routes on a workspace-scoped group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/usage", h.get)
}

func (h *Handler) get(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	u, err := h.Svc.Get(c.Request.Context(), workspaces.IDFromContext(c))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load usage", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{
		"plan":      u.Plan,
		"limit":     u.Limit,
		"used":      u.Used,
		"remaining": u.Remaining(),
		"resetsAt":  u.ResetsAt,
	})
}
