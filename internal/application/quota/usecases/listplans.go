package usecases

import (
	"context"
	"fmt"

	"github.com/saathi-inc/saathi/internal/application/quota/dto"
	"github.com/saathi-inc/saathi/internal/domain/quota"
	apperrors "github.com/saathi-inc/saathi/internal/shared/errors"
	"github.com/saathi-inc/saathi/internal/shared/logger"
)

type ListPlansUseCase struct {
	catalog quota.PlanCatalog
	logger  logger.Interface
}

func NewListPlansUseCase(catalog quota.PlanCatalog, logger logger.Interface) *ListPlansUseCase {
	return &ListPlansUseCase{
		catalog: catalog,
		logger:  logger,
	}
}

func (uc *ListPlansUseCase) Execute(ctx context.Context) ([]dto.PlanResponse, error) {
	plans, err := uc.catalog.ListPlans(ctx)
	if err != nil {
		uc.logger.Errorw("failed to list plans", "error", err)
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return dto.ToPlanResponses(plans), nil
}

type GetPlanUseCase struct {
	catalog quota.PlanCatalog
	logger  logger.Interface
}

func NewGetPlanUseCase(catalog quota.PlanCatalog, logger logger.Interface) *GetPlanUseCase {
	return &GetPlanUseCase{
		catalog: catalog,
		logger:  logger,
	}
}

func (uc *GetPlanUseCase) Execute(ctx context.Context, planID uint) (*dto.PlanResponse, error) {
	if planID == 0 {
		return nil, apperrors.NewValidationError("plan ID is required")
	}
	plan, err := uc.catalog.GetPlan(ctx, planID)
	if err != nil {
		return nil, toAppError(err)
	}
	resp := dto.ToPlanResponse(plan)
	return &resp, nil
}
