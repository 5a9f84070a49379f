package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/saathi-inc/saathi/internal/interfaces/http/handlers"
)

// SubscriberRouteConfig holds dependencies for subscriber entitlement routes.
type SubscriberRouteConfig struct {
	EntitlementHandler *handlers.EntitlementHandler
}

// SetupSubscriberRoutes configures enforcement, renewal and display routes.
func SetupSubscriberRoutes(api *gin.RouterGroup, cfg *SubscriberRouteConfig) {
	subscribers := api.Group("/subscribers/:id")
	{
		subscribers.GET("/entitlement", cfg.EntitlementHandler.GetEntitlement)
		subscribers.GET("/usage", cfg.EntitlementHandler.GetUsage)

		subscribers.POST("/consume", cfg.EntitlementHandler.Consume)
		subscribers.POST("/plan", cfg.EntitlementHandler.ApplyPlan)
		subscribers.POST("/provision", cfg.EntitlementHandler.Provision)
	}
}
