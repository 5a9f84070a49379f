package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/saathi-inc/saathi/internal/application/quota/usecases"
	"github.com/saathi-inc/saathi/internal/shared/errors"
	"github.com/saathi-inc/saathi/internal/shared/logger"
	"github.com/saathi-inc/saathi/internal/shared/utils"
)

// EntitlementHandler exposes enforcement, renewal and display reads per subscriber.
type EntitlementHandler struct {
	service EntitlementService
	logger  logger.Interface
	now     func() time.Time
}

func NewEntitlementHandler(service EntitlementService, logger logger.Interface) *EntitlementHandler {
	return &EntitlementHandler{
		service: service,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

type ConsumeRequest struct {
	Kind string `json:"kind" binding:"required,oneof=interest contact_view image"`
}

type ApplyPlanRequest struct {
	PlanID uint `json:"plan_id" binding:"required,gt=0"`
}

type UsageReportRequest struct {
	Since string `form:"since"`
	Limit int    `form:"limit" binding:"omitempty,gte=1,lte=1000"`
}

// GetEntitlement handles GET /api/subscribers/:id/entitlement
func (h *EntitlementHandler) GetEntitlement(c *gin.Context) {
	subscriberID, err := utils.ParseUintParam(c, "id", "subscriber")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.service.GetEntitlement(c.Request.Context(), subscriberID, h.now())
	if err != nil {
		h.logger.Warnw("failed to get entitlement", "subscriber_id", subscriberID, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// Consume handles POST /api/subscribers/:id/consume
// A denied decision is still a 200; the body carries allowed=false and the reason.
func (h *EntitlementHandler) Consume(c *gin.Context) {
	subscriberID, err := utils.ParseUintParam(c, "id", "subscriber")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req ConsumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for consume", "subscriber_id", subscriberID, "error", err)
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	decision, err := h.service.CheckAndConsume(c.Request.Context(), subscriberID, req.Kind, h.now())
	if err != nil {
		h.logger.Errorw("failed to check and consume",
			"subscriber_id", subscriberID,
			"kind", req.Kind,
			"error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", decision)
}

// ApplyPlan handles POST /api/subscribers/:id/plan
func (h *EntitlementHandler) ApplyPlan(c *gin.Context) {
	subscriberID, err := utils.ParseUintParam(c, "id", "subscriber")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req ApplyPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for apply plan", "subscriber_id", subscriberID, "error", err)
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	result, err := h.service.ApplyPlan(c.Request.Context(), subscriberID, req.PlanID, h.now())
	if err != nil {
		h.logger.Errorw("failed to apply plan",
			"subscriber_id", subscriberID,
			"plan_id", req.PlanID,
			"error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "plan applied", result)
}

// Provision handles POST /api/subscribers/:id/provision
func (h *EntitlementHandler) Provision(c *gin.Context) {
	subscriberID, err := utils.ParseUintParam(c, "id", "subscriber")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.service.ProvisionDefault(c.Request.Context(), subscriberID, h.now())
	if err != nil {
		h.logger.Errorw("failed to provision default plan", "subscriber_id", subscriberID, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	utils.SuccessResponse(c, status, "", result)
}

// GetUsage handles GET /api/subscribers/:id/usage
// Query parameters:
//   - since: RFC3339 lower bound, defaults to 30 days ago
//   - limit: maximum events returned (1-1000)
func (h *EntitlementHandler) GetUsage(c *gin.Context) {
	subscriberID, err := utils.ParseUintParam(c, "id", "subscriber")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req UsageReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.ErrorResponseWithError(c, utils.BindingError(err))
		return
	}

	query := usecases.GetUsageReportQuery{
		SubscriberID: subscriberID,
		Limit:        req.Limit,
		Now:          h.now(),
	}
	if req.Since != "" {
		since, err := time.Parse(time.RFC3339, req.Since)
		if err != nil {
			utils.ErrorResponseWithError(c, errors.NewValidationError("since must be an RFC3339 timestamp"))
			return
		}
		query.Since = since
	}

	report, err := h.service.GetUsageReport(c.Request.Context(), query)
	if err != nil {
		h.logger.Warnw("failed to get usage report", "subscriber_id", subscriberID, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", report)
}
