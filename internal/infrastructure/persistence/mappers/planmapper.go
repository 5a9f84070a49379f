package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/saathi-inc/saathi/internal/domain/quota"
	"github.com/saathi-inc/saathi/internal/infrastructure/persistence/models"
)

// PlanMapper handles the conversion between plan definitions and persistence models
type PlanMapper interface {
	ToEntity(model *models.PlanModel) (*quota.Plan, error)
	ToModel(entity *quota.Plan) (*models.PlanModel, error)
	ToEntities(models []*models.PlanModel) ([]*quota.Plan, error)
}

type planMapper struct{}

// NewPlanMapper creates a new plan mapper
func NewPlanMapper() PlanMapper {
	return &planMapper{}
}

// ToEntity converts a persistence model to a domain plan
func (m *planMapper) ToEntity(model *models.PlanModel) (*quota.Plan, error) {
	if model == nil {
		return nil, nil
	}

	interest, err := LimitFromLegacy(model.InterestLimit)
	if err != nil {
		return nil, fmt.Errorf("plan %d interest_limit: %w", model.ID, err)
	}
	contactView, err := LimitFromLegacy(model.ContactViewLimit)
	if err != nil {
		return nil, fmt.Errorf("plan %d contact_view_limit: %w", model.ID, err)
	}
	image, err := LimitFromLegacy(model.ImageLimit)
	if err != nil {
		return nil, fmt.Errorf("plan %d image_limit: %w", model.ID, err)
	}
	validity, err := ValidityFromLegacy(model.ValidityDays)
	if err != nil {
		return nil, fmt.Errorf("plan %d: %w", model.ID, err)
	}

	plan, err := quota.NewPlan(model.ID, model.Name, quota.PlanLimits{
		Interest:    interest,
		ContactView: contactView,
		Image:       image,
	}, validity)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct plan %d: %w", model.ID, err)
	}

	plan = plan.WithDescription(model.Description)

	if len(model.Metadata) > 0 {
		var metadata map[string]any
		if err := json.Unmarshal(model.Metadata, &metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal plan %d metadata: %w", model.ID, err)
		}
		plan = plan.WithMetadata(metadata)
	}

	return plan, nil
}

// ToModel converts a domain plan to a persistence model
func (m *planMapper) ToModel(entity *quota.Plan) (*models.PlanModel, error) {
	if entity == nil {
		return nil, nil
	}

	limits := entity.Limits()
	model := &models.PlanModel{
		ID:               entity.ID(),
		Name:             entity.Name(),
		Description:      entity.Description(),
		InterestLimit:    LimitToLegacy(limits.Interest),
		ContactViewLimit: LimitToLegacy(limits.ContactView),
		ImageLimit:       LimitToLegacy(limits.Image),
		ValidityDays:     ValidityToLegacy(entity.Validity()),
	}

	if metadata := entity.Metadata(); len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal plan metadata: %w", err)
		}
		model.Metadata = datatypes.JSON(raw)
	}

	return model, nil
}

// ToEntities converts multiple persistence models to domain plans
func (m *planMapper) ToEntities(planModels []*models.PlanModel) ([]*quota.Plan, error) {
	plans := make([]*quota.Plan, 0, len(planModels))
	for i, model := range planModels {
		plan, err := m.ToEntity(model)
		if err != nil {
			return nil, fmt.Errorf("failed to map model at index %d (ID %d): %w", i, model.ID, err)
		}
		if plan != nil {
			plans = append(plans, plan)
		}
	}
	return plans, nil
}
