package handlers

import (
	"context"
	"time"

	"github.com/saathi-inc/saathi/internal/application/quota/dto"
	"github.com/saathi-inc/saathi/internal/application/quota/usecases"
)

// Service interfaces for EntitlementHandler and PlanHandler

type checkAndConsumeService interface {
	CheckAndConsume(ctx context.Context, subscriberID uint, kind string, now time.Time) (*dto.DecisionResponse, error)
}

type applyPlanService interface {
	ApplyPlan(ctx context.Context, subscriberID, planID uint, now time.Time) (*dto.RenewalResponse, error)
}

type getEntitlementService interface {
	GetEntitlement(ctx context.Context, subscriberID uint, now time.Time) (*dto.EntitlementResponse, error)
}

type provisionDefaultService interface {
	ProvisionDefault(ctx context.Context, subscriberID uint, now time.Time) (*dto.ProvisionResponse, error)
}

type usageReportService interface {
	GetUsageReport(ctx context.Context, query usecases.GetUsageReportQuery) (*dto.UsageReportResponse, error)
}

// EntitlementService is everything EntitlementHandler needs.
type EntitlementService interface {
	checkAndConsumeService
	applyPlanService
	getEntitlementService
	provisionDefaultService
	usageReportService
}

// PlanService is everything PlanHandler needs.
type PlanService interface {
	ListPlans(ctx context.Context) ([]dto.PlanResponse, error)
	GetPlan(ctx context.Context, planID uint) (*dto.PlanResponse, error)
}
