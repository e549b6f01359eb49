package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cv-reviewer/internal/apidocs"
	"cv-reviewer/internal/reviews"
	"cv-reviewer/internal/services/health"
	"cv-reviewer/internal/shared/config"
	"cv-reviewer/internal/shared/metrics"
	"cv-reviewer/internal/shared/server/middleware"
	"cv-reviewer/internal/shared/server/respond"
)

// RouterDeps are the handlers mounted by NewRouter.
type RouterDeps struct {
	Config        config.Config
	ReviewHandler *reviews.Handler
	Health        *health.Service
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	apidocs.Register(r)
	r.GET("/health", func(c *gin.Context) {
		respond.OK(c, deps.Health.Status())
	})
	r.GET("/metrics", metrics.Handler())

	deps.ReviewHandler.RegisterRoutes(r.Group("/review"))

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "not_found", "Not Found")
	})
	r.NoMethod(func(c *gin.Context) {
		respond.Error(c, http.StatusMethodNotAllowed, "method_not_allowed", "Method Not Allowed")
	})

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8000"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
