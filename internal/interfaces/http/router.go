package http

import (
	nethttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/saathi-inc/saathi/internal/interfaces/http/handlers"
	"github.com/saathi-inc/saathi/internal/interfaces/http/middleware"
	"github.com/saathi-inc/saathi/internal/interfaces/http/routes"
	sharedConfig "github.com/saathi-inc/saathi/internal/shared/config"
	"github.com/saathi-inc/saathi/internal/shared/logger"
	"github.com/saathi-inc/saathi/internal/shared/utils"
	"github.com/saathi-inc/saathi/internal/shared/version"
)

// QuotaService is the application surface served over HTTP.
type QuotaService interface {
	handlers.EntitlementService
	handlers.PlanService
}

// RouterDeps carries everything the router wires into handlers.
type RouterDeps struct {
	Service      QuotaService
	HealthChecks map[string]handlers.HealthCheck
	Metrics      sharedConfig.MetricsConfig
	Logger       logger.Interface
}

// Router represents the HTTP router configuration
type Router struct {
	engine             *gin.Engine
	entitlementHandler *handlers.EntitlementHandler
	planHandler        *handlers.PlanHandler
	healthHandler      *handlers.HealthHandler
	metrics            sharedConfig.MetricsConfig
	logger             logger.Interface
}

// NewRouter creates a new HTTP router with all dependencies
func NewRouter(deps RouterDeps) *Router {
	log := deps.Logger
	if log == nil {
		log = logger.NewNop()
	}

	return &Router{
		engine:             gin.New(),
		entitlementHandler: handlers.NewEntitlementHandler(deps.Service, log.Named("http.entitlement")),
		planHandler:        handlers.NewPlanHandler(deps.Service, log.Named("http.plan")),
		healthHandler:      handlers.NewHealthHandler(deps.HealthChecks, version.String(), log.Named("http.health")),
		metrics:            deps.Metrics,
		logger:             log,
	}
}

// SetupRoutes configures all HTTP routes
func (r *Router) SetupRoutes() {
	r.engine.Use(middleware.RequestID())
	r.engine.Use(middleware.Logger(r.logger.Named("http")))
	r.engine.Use(middleware.Recovery(r.logger.Named("http")))
	if r.metrics.Enabled {
		r.engine.Use(middleware.Metrics(r.metrics.GetPath()))
	}

	r.engine.GET("/health", r.healthHandler.HealthCheck)
	if r.metrics.Enabled {
		r.engine.GET(r.metrics.GetPath(),
			middleware.MetricsAuth(r.metrics.Username, r.metrics.Password),
			gin.WrapH(promhttp.Handler()))
	}

	api := r.engine.Group("/api")
	routes.SetupPlanRoutes(api, &routes.PlanRouteConfig{
		PlanHandler: r.planHandler,
	})
	routes.SetupSubscriberRoutes(api, &routes.SubscriberRouteConfig{
		EntitlementHandler: r.entitlementHandler,
	})

	r.engine.NoRoute(func(c *gin.Context) {
		utils.ErrorResponse(c, nethttp.StatusNotFound, "route not found")
	})
}

// Engine returns the gin engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
