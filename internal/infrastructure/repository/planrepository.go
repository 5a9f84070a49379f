package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/saathi-inc/saathi/internal/domain/quota"
	"github.com/saathi-inc/saathi/internal/infrastructure/persistence/mappers"
	"github.com/saathi-inc/saathi/internal/infrastructure/persistence/models"
	"github.com/saathi-inc/saathi/internal/shared/logger"
)

// PlanRepository reads and seeds plan reference data.
type PlanRepository struct {
	db     *gorm.DB
	mapper mappers.PlanMapper
	logger logger.Interface
}

func NewPlanRepository(db *gorm.DB, logger logger.Interface) *PlanRepository {
	return &PlanRepository{
		db:     db,
		mapper: mappers.NewPlanMapper(),
		logger: logger,
	}
}

// GetPlan returns quota.ErrPlanNotFound when planID is unknown.
func (r *PlanRepository) GetPlan(ctx context.Context, planID uint) (*quota.Plan, error) {
	var model models.PlanModel
	if err := r.db.WithContext(ctx).First(&model, planID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", quota.ErrPlanNotFound, planID)
		}
		r.logger.Errorw("failed to get plan", "plan_id", planID, "error", err)
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *PlanRepository) ListPlans(ctx context.Context) ([]*quota.Plan, error) {
	var planModels []*models.PlanModel
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&planModels).Error; err != nil {
		r.logger.Errorw("failed to list plans", "error", err)
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}

	return r.mapper.ToEntities(planModels)
}

// Upsert inserts plan or overwrites the existing row with the same ID.
func (r *PlanRepository) Upsert(ctx context.Context, plan *quota.Plan) error {
	model, err := r.mapper.ToModel(plan)
	if err != nil {
		return err
	}

	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "description", "interest_limit", "contact_view_limit",
			"image_limit", "validity_days", "metadata", "updated_at",
		}),
	}).Create(model).Error
	if err != nil {
		r.logger.Errorw("failed to upsert plan", "plan_id", plan.ID(), "error", err)
		return fmt.Errorf("failed to upsert plan: %w", err)
	}

	r.logger.Infow("plan upserted", "plan_id", plan.ID(), "name", plan.Name())
	return nil
}
