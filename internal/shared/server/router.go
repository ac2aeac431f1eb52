package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	googleauth "ledgerly-backend/internal/auth"
	"ledgerly-backend/internal/cashflow"
	"ledgerly-backend/internal/contacts"
	"ledgerly-backend/internal/documents"
	"ledgerly-backend/internal/peppol"
	"ledgerly-backend/internal/services/health"
	"ledgerly-backend/internal/shared/config"
	"ledgerly-backend/internal/shared/metrics"
	"ledgerly-backend/internal/shared/server/middleware"
	"ledgerly-backend/internal/uploads"
	"ledgerly-backend/internal/usage"
	"ledgerly-backend/internal/users"
	"ledgerly-backend/internal/workspaces"
)

// RouterDeps carries everything the router mounts. Bootstrap builds the
// handlers; the router only decides paths and middleware order.
type RouterDeps struct {
	Config            config.Config
	Health            *health.Service
	GoogleAuth        *googleauth.GoogleService
	Users             *users.Handler
	Workspaces        *workspaces.Handler
	WorkspacesService *workspaces.Service
	Contacts          *contacts.Handler
	Documents         *documents.Handler
	Cashflow          *cashflow.Handler
	Usage             *usage.Handler
	Peppol            *peppol.Handler
	Uploads           *uploads.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)
	if deps.Config.RateLimitEnabled {
		r.Use(middleware.RateLimit(writeLimits()))
	}

	r.GET("/healthz", healthHandler(deps.Health))
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.Use(middleware.Auth(deps.Config.Env))

	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.Users != nil {
		deps.Users.RegisterRoutes(api)
	}
	if deps.Workspaces != nil {
		deps.Workspaces.RegisterRoutes(api)
	}

	// Everything below operates on one workspace, resolved from the
	// X-Workspace-Id header and checked for membership.
	scoped := api.Group("", workspaces.Scope(deps.WorkspacesService))
	if deps.Contacts != nil {
		deps.Contacts.RegisterRoutes(scoped)
	}
	if deps.Documents != nil {
		deps.Documents.RegisterRoutes(scoped)
	}
	if deps.Cashflow != nil {
		deps.Cashflow.RegisterRoutes(scoped)
	}
	if deps.Usage != nil {
		deps.Usage.RegisterRoutes(scoped)
	}
	if deps.Peppol != nil {
		deps.Peppol.RegisterRoutes(scoped)
	}
	if deps.Uploads != nil {
		deps.Uploads.RegisterRoutes(scoped)
	}

	return r
}

func healthHandler(svc *health.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if svc == nil {
			c.JSON(http.StatusOK, gin.H{"ok": true})
			return
		}
		ok, checks := svc.Status(c.Request.Context())
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"ok": ok, "checks": checks})
	}
}

// writeLimits throttles the expensive write paths: uploads burn storage and
// quota, reprocess burns extraction calls.
func writeLimits() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			"UPLOADS":   {Rate: 1, Burst: 10},
			"REPROCESS": {Rate: 0.5, Burst: 5},
		},
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method != http.MethodPost {
				return ""
			}
			path := c.Request.URL.Path
			switch {
			case strings.HasSuffix(path, "/reprocess"):
				return "REPROCESS"
			case strings.HasSuffix(path, "/documents"), strings.Contains(path, "/uploads/"):
				return "UPLOADS"
			default:
				return ""
			}
		},
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
