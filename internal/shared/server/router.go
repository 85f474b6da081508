package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	googleauth "cv-builder/internal/auth"
	"cv-builder/internal/cvs"
	"cv-builder/internal/exports"
	"cv-builder/internal/sessions"
	"cv-builder/internal/shared/config"
	"cv-builder/internal/shared/metrics"
	"cv-builder/internal/shared/server/middleware"
	"cv-builder/internal/shared/server/respond"
)

const exportRateGroup = "EXPORT"

// RouterDeps carries the handlers the router mounts. Nil handlers are skipped.
type RouterDeps struct {
	Config          config.Config
	SessionsHandler *sessions.Handler
	CVsHandler      *cvs.Handler
	ExportsHandler  *exports.Handler
	GoogleAuth      *googleauth.GoogleService
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		metrics.Middleware(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(),
		middleware.RateLimit(rateLimitConfig(deps.Config)),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	registerMeRoutes(api)
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.SessionsHandler != nil {
		deps.SessionsHandler.RegisterRoutes(api)
	}
	if deps.CVsHandler != nil {
		deps.CVsHandler.RegisterRoutes(api)
	}
	if deps.ExportsHandler != nil {
		deps.ExportsHandler.RegisterRoutes(api)
	}

	return r
}

// rateLimitConfig limits exports per principal. Other routes are not limited.
func rateLimitConfig(cfg config.Config) middleware.RateLimitConfig {
	rules := map[string]middleware.RateLimitRule{}
	if perMinute := cfg.ExportRatePerMinute; perMinute > 0 {
		rules[exportRateGroup] = middleware.RateLimitRule{Rate: float64(perMinute) / 60, Burst: perMinute}
	}
	return middleware.RateLimitConfig{
		Rules: rules,
		GroupFor: middleware.GroupByRoute(middleware.RouteGroup{
			Method: http.MethodPost,
			Route:  "/api/v1/sessions/:id/exports",
			Group:  exportRateGroup,
		}),
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
