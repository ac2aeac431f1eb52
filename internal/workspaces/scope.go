package workspaces

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ledgerly-backend/internal/shared/server/middleware"
	"ledgerly-backend/internal/shared/server/respond"
)

const contextKey = "workspaceId"

// Scope resolves the workspace a request operates on and verifies the
// caller is a member. The workspace comes from the :workspaceId path param
// when the route carries one, otherwise from the X-Workspace-Id header.
func Scope(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		workspaceID := c.Param("workspaceId")
		if workspaceID == "" {
			workspaceID = c.GetHeader("X-Workspace-Id")
		}
		if workspaceID == "" {
			respond.Error(c, http.StatusBadRequest, "workspace_required", "workspace id missing", nil)
			return
		}

		userID := middleware.UserIDFromContext(c)
		if err := svc.Authorize(c.Request.Context(), workspaceID, userID); err != nil {
			switch {
			case errors.Is(err, ErrNotMember), errors.Is(err, ErrNotFound):
				respond.Error(c, http.StatusForbidden, "forbidden", "not a member of this workspace", nil)
			default:
				respond.Error(c, http.StatusInternalServerError, "internal_error", "membership check failed", nil)
			}
			return
		}

		c.Set(contextKey, workspaceID)
		c.Next()
	}
}

// IDFromContext returns the workspace resolved by Scope, or "".
func IDFromContext(c *gin.Context) string {
	return c.GetString(contextKey)
}
