package mappers

import (
	"fmt"

	"github.com/saathi-inc/saathi/internal/domain/quota"
	"github.com/saathi-inc/saathi/internal/infrastructure/persistence/models"
)

// EntitlementMapper handles the conversion between entitlements and persistence models.
// It is the only place the -1 storage sentinel is translated.
type EntitlementMapper interface {
	ToEntity(model *models.EntitlementModel) (*quota.Entitlement, error)
	ToModel(entity *quota.Entitlement) *models.EntitlementModel
}

type entitlementMapper struct{}

// NewEntitlementMapper creates a new entitlement mapper
func NewEntitlementMapper() EntitlementMapper {
	return &entitlementMapper{}
}

// ToEntity converts a persistence model to a domain entitlement
func (m *entitlementMapper) ToEntity(model *models.EntitlementModel) (*quota.Entitlement, error) {
	if model == nil {
		return nil, nil
	}

	interestLimit, err := LimitFromLegacy(model.InterestLimit)
	if err != nil {
		return nil, fmt.Errorf("subscriber %d interest_limit: %w", model.SubscriberID, err)
	}
	interestUsed, err := UsedFromLegacy(quota.ResourceKindInterest, model.InterestUsed)
	if err != nil {
		return nil, fmt.Errorf("subscriber %d: %w", model.SubscriberID, err)
	}
	contactViewLimit, err := LimitFromLegacy(model.ContactViewLimit)
	if err != nil {
		return nil, fmt.Errorf("subscriber %d contact_view_limit: %w", model.SubscriberID, err)
	}
	contactViewUsed, err := UsedFromLegacy(quota.ResourceKindContactView, model.ContactViewUsed)
	if err != nil {
		return nil, fmt.Errorf("subscriber %d: %w", model.SubscriberID, err)
	}
	imageLimit, err := LimitFromLegacy(model.ImageLimit)
	if err != nil {
		return nil, fmt.Errorf("subscriber %d image_limit: %w", model.SubscriberID, err)
	}

	entity, err := quota.ReconstructEntitlement(quota.EntitlementState{
		SubscriberID:     model.SubscriberID,
		PlanID:           model.PlanID,
		InterestLimit:    interestLimit,
		InterestUsed:     interestUsed,
		ContactViewLimit: contactViewLimit,
		ContactViewUsed:  contactViewUsed,
		ImageLimit:       imageLimit,
		ExpiresAt:        model.ExpiresAt,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
		Version:          model.Version,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct entitlement for subscriber %d: %w", model.SubscriberID, err)
	}
	return entity, nil
}

// ToModel converts a domain entitlement to a persistence model
func (m *entitlementMapper) ToModel(entity *quota.Entitlement) *models.EntitlementModel {
	if entity == nil {
		return nil
	}

	s := entity.State()
	return &models.EntitlementModel{
		SubscriberID:     s.SubscriberID,
		PlanID:           s.PlanID,
		InterestLimit:    LimitToLegacy(s.InterestLimit),
		InterestUsed:     int64(s.InterestUsed),
		ContactViewLimit: LimitToLegacy(s.ContactViewLimit),
		ContactViewUsed:  int64(s.ContactViewUsed),
		ImageLimit:       LimitToLegacy(s.ImageLimit),
		ExpiresAt:        s.ExpiresAt,
		Version:          s.Version,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}
