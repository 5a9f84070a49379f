package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/saathi-inc/saathi/internal/domain/quota"
	"github.com/saathi-inc/saathi/internal/infrastructure/persistence/mappers"
	"github.com/saathi-inc/saathi/internal/infrastructure/persistence/models"
	"github.com/saathi-inc/saathi/internal/shared/constants"
	"github.com/saathi-inc/saathi/internal/shared/logger"
)

// UsageLedgerRepository stores the advisory audit trail of consumption attempts.
type UsageLedgerRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewUsageLedgerRepository(db *gorm.DB, logger logger.Interface) *UsageLedgerRepository {
	return &UsageLedgerRepository{
		db:     db,
		logger: logger,
	}
}

func (r *UsageLedgerRepository) Append(ctx context.Context, event *quota.UsageEvent) error {
	model, err := mappers.UsageEventToModel(event)
	if err != nil {
		return err
	}
	model.OccurredAt = model.OccurredAt.UTC()

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to append usage event: %w", err)
	}
	return nil
}

// ListBySubscriber returns events at or after since, newest first.
func (r *UsageLedgerRepository) ListBySubscriber(ctx context.Context, subscriberID uint, since time.Time, limit int) ([]*quota.UsageEvent, error) {
	if limit <= 0 {
		limit = constants.DefaultUsageListLimit
	}
	if limit > constants.MaxUsageListLimit {
		limit = constants.MaxUsageListLimit
	}

	var eventModels []*models.UsageEventModel
	err := r.db.WithContext(ctx).
		Where("subscriber_id = ? AND occurred_at >= ?", subscriberID, since.UTC()).
		Order("occurred_at DESC").
		Limit(limit).
		Find(&eventModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list usage events: %w", err)
	}

	events := make([]*quota.UsageEvent, 0, len(eventModels))
	for _, m := range eventModels {
		event, err := mappers.UsageEventToEntity(m)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

// Summarize counts events at or after since per resource kind and outcome.
func (r *UsageLedgerRepository) Summarize(ctx context.Context, subscriberID uint, since time.Time) ([]quota.UsageSummary, error) {
	var rows []struct {
		ResourceKind string
		Outcome      string
		Count        int64
	}

	err := r.db.WithContext(ctx).
		Model(&models.UsageEventModel{}).
		Select("resource_kind, outcome, COUNT(*) AS count").
		Where("subscriber_id = ? AND occurred_at >= ?", subscriberID, since.UTC()).
		Group("resource_kind, outcome").
		Order("resource_kind, outcome").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to summarize usage events: %w", err)
	}

	summaries := make([]quota.UsageSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, quota.UsageSummary{
			Kind:    quota.ResourceKind(row.ResourceKind),
			Outcome: quota.UsageOutcome(row.Outcome),
			Count:   row.Count,
		})
	}
	return summaries, nil
}

// PurgeBefore deletes events that occurred strictly before cutoff.
func (r *UsageLedgerRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("occurred_at < ?", cutoff.UTC()).
		Delete(&models.UsageEventModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge usage events: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		r.logger.Infow("purged usage events", "count", result.RowsAffected, "cutoff", cutoff.UTC())
	}
	return result.RowsAffected, nil
}
