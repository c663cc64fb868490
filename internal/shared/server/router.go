package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docflow-backend/internal/services/health"
	"docflow-backend/internal/shared/config"
	"docflow-backend/internal/shared/metrics"
	"docflow-backend/internal/shared/server/middleware"
	"docflow-backend/internal/shared/server/respond"
)

const (
	healthPath = "/api/v1/health"
	signupPath = "/api/v1/auth/signup"
	loginPath  = "/api/v1/auth/login"
)

// RouteRegistrar is implemented by feature handlers.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// AdminRouteRegistrar registers routes on both the API and admin groups.
type AdminRouteRegistrar interface {
	RegisterRoutes(rg, admin *gin.RouterGroup)
}

// RouterDeps lists the handlers mounted by NewRouter.
type RouterDeps struct {
	Config    config.Config
	Verifier  middleware.TokenVerifier
	Health    *health.Service
	Documents RouteRegistrar
	Actions   RouteRegistrar
	Usage     RouteRegistrar
	Tasks     RouteRegistrar
	Dashboard RouteRegistrar
	Users     AdminRouteRegistrar
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
		middleware.Auth(deps.Verifier, healthPath, "/metrics", signupPath, loginPath),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService(nil)
	}
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, healthSvc.Check(c.Request.Context()))
	})

	register(api, deps.Documents)
	register(api, deps.Tasks)
	register(api, deps.Dashboard)

	actionsGroup := api.Group("/actions")
	register(actionsGroup, deps.Actions)
	register(actionsGroup, deps.Usage)

	if deps.Users != nil {
		deps.Users.RegisterRoutes(api, api.Group("/admin"))
	}

	return r
}

func register(rg *gin.RouterGroup, h RouteRegistrar) {
	if h != nil {
		h.RegisterRoutes(rg)
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
