package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/saathi-inc/saathi/internal/shared/logger"
	"github.com/saathi-inc/saathi/internal/shared/utils"
)

// PlanHandler serves the read-only plan catalog.
type PlanHandler struct {
	plans  PlanService
	logger logger.Interface
}

func NewPlanHandler(plans PlanService, logger logger.Interface) *PlanHandler {
	return &PlanHandler{
		plans:  plans,
		logger: logger,
	}
}

// ListPlans handles GET /api/plans
func (h *PlanHandler) ListPlans(c *gin.Context) {
	plans, err := h.plans.ListPlans(c.Request.Context())
	if err != nil {
		h.logger.Errorw("failed to list plans", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.ItemsSuccessResponse(c, plans, len(plans))
}

// GetPlan handles GET /api/plans/:id
func (h *PlanHandler) GetPlan(c *gin.Context) {
	planID, err := utils.ParseUintParam(c, "id", "plan")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	plan, err := h.plans.GetPlan(c.Request.Context(), planID)
	if err != nil {
		h.logger.Warnw("failed to get plan", "plan_id", planID, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", plan)
}
