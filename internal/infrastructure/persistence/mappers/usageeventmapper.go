package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/saathi-inc/saathi/internal/domain/quota"
	"github.com/saathi-inc/saathi/internal/infrastructure/persistence/models"
)

// UsageEventToModel converts a usage event to its persistence model.
func UsageEventToModel(event *quota.UsageEvent) (*models.UsageEventModel, error) {
	model := &models.UsageEventModel{
		ID:           event.ID,
		SubscriberID: event.SubscriberID,
		ResourceKind: string(event.Kind),
		Outcome:      string(event.Outcome),
		Reason:       string(event.Reason),
		OccurredAt:   event.OccurredAt,
	}

	if len(event.Details) > 0 {
		raw, err := json.Marshal(event.Details)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal usage event details: %w", err)
		}
		model.Details = datatypes.JSON(raw)
	}
	return model, nil
}

// UsageEventToEntity converts a persistence model to a usage event.
func UsageEventToEntity(model *models.UsageEventModel) (*quota.UsageEvent, error) {
	event := &quota.UsageEvent{
		ID:           model.ID,
		SubscriberID: model.SubscriberID,
		Kind:         quota.ResourceKind(model.ResourceKind),
		Outcome:      quota.UsageOutcome(model.Outcome),
		Reason:       quota.DenyReason(model.Reason),
		OccurredAt:   model.OccurredAt,
		Details:      make(map[string]any),
	}

	if len(model.Details) > 0 {
		if err := json.Unmarshal(model.Details, &event.Details); err != nil {
			return nil, fmt.Errorf("failed to unmarshal usage event %s details: %w", model.ID, err)
		}
	}
	return event, nil
}
